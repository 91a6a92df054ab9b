package widgets

import (
	"sync"

	"gioui.org/layout"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"

	"github.com/olablt/gio-maps/layers"
	"github.com/olablt/gio-maps/mapview"
)

// LayerInfo lists the attributes the editor may change on a layer.
type LayerInfo struct {
	Layer  *layers.Layer
	Fields []layers.FieldConfig
}

// LayerInfos returns an entry for every layer that declares editable fields.
func LayerInfos(stack *layers.Stack) []LayerInfo {
	var out []LayerInfo
	for _, l := range stack.Layers() {
		if fs := l.Fields(); len(fs) > 0 {
			out = append(out, LayerInfo{Layer: l, Fields: fs})
		}
	}
	return out
}

// Editor edits the attributes of the selected feature. Edits are kept in
// memory on the feature itself.
type Editor struct {
	th    *material.Theme
	sel   SelectionSource
	infos []LayerInfo

	mu      sync.Mutex
	current *mapview.Selection
	info    *LayerInfo
	inputs  []widget.Editor
	status  string

	save, discard widget.Clickable
}

func NewEditor(th *material.Theme, sel SelectionSource, infos []LayerInfo) *Editor {
	return &Editor{th: th, sel: sel, infos: infos}
}

func (e *Editor) Kind() Kind { return KindEditor }

func (e *Editor) LayerInfos() []LayerInfo { return e.infos }

// Begin starts editing sel. It reports false when sel's layer is not
// editable.
func (e *Editor) Begin(sel mapview.Selection) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.current = &sel
	e.info = nil
	e.inputs = nil
	e.status = ""
	for i := range e.infos {
		if e.infos[i].Layer == sel.Layer {
			e.info = &e.infos[i]
			break
		}
	}
	if e.info == nil || sel.Feature == nil {
		e.info = nil
		return false
	}
	e.inputs = make([]widget.Editor, len(e.info.Fields))
	for i, fc := range e.info.Fields {
		e.inputs[i].SingleLine = true
		e.inputs[i].SetText(layers.FormatValue(sel.Feature.Properties[fc.Name]))
	}
	return true
}

// Editing reports whether an editable feature is open.
func (e *Editor) Editing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.info != nil
}

// Set changes the pending value of field name.
func (e *Editor) Set(name, value string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.info == nil {
		return false
	}
	for i, fc := range e.info.Fields {
		if fc.Name == name {
			e.inputs[i].SetText(value)
			return true
		}
	}
	return false
}

// Values returns the pending values keyed by field name.
func (e *Editor) Values() map[string]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.values()
}

func (e *Editor) values() map[string]string {
	if e.info == nil {
		return nil
	}
	out := make(map[string]string, len(e.info.Fields))
	for i, fc := range e.info.Fields {
		out[fc.Name] = e.inputs[i].Text()
	}
	return out
}

// Apply writes the pending values into the feature.
func (e *Editor) Apply() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.info == nil || e.current == nil {
		return ErrNothingToEdit
	}
	if err := e.info.Layer.UpdateAttributes(e.current.Feature, e.values()); err != nil {
		e.status = err.Error()
		return err
	}
	e.status = "Saved"
	return nil
}

// Discard closes the open feature without saving.
func (e *Editor) Discard() {
	e.mu.Lock()
	e.info = nil
	e.inputs = nil
	e.status = ""
	e.mu.Unlock()
}

func (e *Editor) sync() {
	sel := e.sel.Selected()
	e.mu.Lock()
	same := (sel == nil && e.current == nil) ||
		(sel != nil && e.current != nil && sel.Feature == e.current.Feature)
	e.mu.Unlock()
	if same {
		return
	}
	if sel == nil {
		e.mu.Lock()
		e.current = nil
		e.info = nil
		e.inputs = nil
		e.mu.Unlock()
		return
	}
	e.Begin(*sel)
}

func (e *Editor) Layout(gtx layout.Context) layout.Dimensions {
	e.sync()
	if e.save.Clicked(gtx) {
		e.Apply()
	}
	if e.discard.Clicked(gtx) {
		e.Discard()
	}

	gtx = maxWidth(gtx, unit.Dp(260))
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.info == nil {
		c := material.Body2(e.th, "Select a feature to edit its attributes.")
		c.Color = mutedColor
		return c.Layout(gtx)
	}

	children := []layout.FlexChild{
		layout.Rigid(material.Subtitle2(e.th, e.info.Layer.Title()).Layout),
	}
	for i, fc := range e.info.Fields {
		label := fc.Label
		if label == "" {
			label = fc.Name
		}
		input := &e.inputs[i]
		children = append(children,
			layout.Rigid(layout.Spacer{Height: unit.Dp(6)}.Layout),
			layout.Rigid(material.Caption(e.th, label).Layout),
			layout.Rigid(material.Editor(e.th, input, label).Layout),
		)
	}
	children = append(children,
		layout.Rigid(layout.Spacer{Height: unit.Dp(8)}.Layout),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return layout.Flex{Alignment: layout.Middle}.Layout(gtx,
				layout.Rigid(material.Button(e.th, &e.save, "Save").Layout),
				layout.Rigid(layout.Spacer{Width: unit.Dp(4)}.Layout),
				layout.Rigid(material.Button(e.th, &e.discard, "Close").Layout),
				layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
				layout.Rigid(material.Caption(e.th, e.status).Layout),
			)
		}),
	)
	return layout.Flex{Axis: layout.Vertical}.Layout(gtx, children...)
}
