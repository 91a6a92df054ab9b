package layers

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"github.com/paulmach/orb/geojson"
)

var fieldToken = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

// PopupTemplate describes how a selected feature is presented.
type PopupTemplate struct {
	// Title and Content may reference properties as {FIELD}.
	Title   string
	Content string
	// ContentFunc, when set, replaces Content. Its result is interpolated too.
	ContentFunc func(f *geojson.Feature) string
	// OutFields lists the properties exposed with the popup; "*" exposes all.
	OutFields []string
}

// Field is a name/value pair shown below the popup content.
type Field struct {
	Name  string
	Value string
}

// Popup is a rendered PopupTemplate.
type Popup struct {
	Title   string
	Content string
	Fields  []Field
}

// Render interpolates the template against f.
func (t *PopupTemplate) Render(f *geojson.Feature) Popup {
	content := t.Content
	if t.ContentFunc != nil {
		content = t.ContentFunc(f)
	}
	return Popup{
		Title:   Interpolate(t.Title, f.Properties),
		Content: Interpolate(content, f.Properties),
		Fields:  t.fields(f.Properties),
	}
}

func (t *PopupTemplate) fields(props geojson.Properties) []Field {
	var names []string
	for _, name := range t.OutFields {
		if name == "*" {
			names = names[:0]
			for k := range props {
				names = append(names, k)
			}
			sort.Strings(names)
			break
		}
		names = append(names, name)
	}

	out := make([]Field, 0, len(names))
	for _, name := range names {
		out = append(out, Field{Name: name, Value: FormatValue(props[name])})
	}
	return out
}

// Interpolate replaces {FIELD} tokens with property values. Unknown fields
// become empty strings.
func Interpolate(s string, props geojson.Properties) string {
	return fieldToken.ReplaceAllStringFunc(s, func(tok string) string {
		return FormatValue(props[tok[1:len(tok)-1]])
	})
}

// FormatValue renders a property value for display.
func FormatValue(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
