package mapview

import (
	"image"
	"image/color"

	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"

	"github.com/olablt/gio-maps/layers"
)

const maxPopupFields = 12

type popupState struct {
	close widget.Clickable
	list  widget.List
}

// layoutPopup shows the popup of the selected feature at the bottom of the
// view.
func (v *View) layoutPopup(gtx layout.Context) {
	sel := v.Selected()
	if sel == nil || sel.Layer == nil || v.Theme == nil {
		return
	}
	tmpl := sel.Layer.Popup()
	if tmpl == nil {
		return
	}
	if v.popup.close.Clicked(gtx) {
		v.ClearSelection()
		return
	}
	p := tmpl.Render(sel.Feature)

	layout.S.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.UniformInset(unit.Dp(24)).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
			gtx.Constraints.Max.X = min(gtx.Constraints.Max.X, gtx.Dp(unit.Dp(360)))
			gtx.Constraints.Max.Y = min(gtx.Constraints.Max.Y, gtx.Dp(unit.Dp(320)))
			return card(gtx, func(gtx layout.Context) layout.Dimensions {
				return v.popupBody(gtx, p)
			})
		})
	})
}

func (v *View) popupBody(gtx layout.Context, p layers.Popup) layout.Dimensions {
	th := v.Theme
	fields := p.Fields
	if len(fields) > maxPopupFields {
		fields = fields[:maxPopupFields]
	}
	v.popup.list.Axis = layout.Vertical

	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return layout.Flex{Alignment: layout.Middle}.Layout(gtx,
				layout.Flexed(1, material.H6(th, p.Title).Layout),
				layout.Rigid(material.Button(th, &v.popup.close, "Close").Layout),
			)
		}),
		layout.Rigid(layout.Spacer{Height: unit.Dp(6)}.Layout),
		layout.Rigid(material.Body2(th, p.Content).Layout),
		layout.Rigid(layout.Spacer{Height: unit.Dp(6)}.Layout),
		layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
			return material.List(th, &v.popup.list).Layout(gtx, len(fields), func(gtx layout.Context, i int) layout.Dimensions {
				f := fields[i]
				return material.Caption(th, f.Name+": "+f.Value).Layout(gtx)
			})
		}),
	)
}

// card draws w on a rounded white panel.
func card(gtx layout.Context, w layout.Widget) layout.Dimensions {
	return layout.Background{}.Layout(gtx,
		func(gtx layout.Context) layout.Dimensions {
			rr := gtx.Dp(unit.Dp(4))
			defer clip.UniformRRect(image.Rectangle{Max: gtx.Constraints.Min}, rr).Push(gtx.Ops).Pop()
			paint.Fill(gtx.Ops, color.NRGBA{R: 255, G: 255, B: 255, A: 245})
			return layout.Dimensions{Size: gtx.Constraints.Min}
		},
		func(gtx layout.Context) layout.Dimensions {
			return layout.UniformInset(unit.Dp(12)).Layout(gtx, w)
		},
	)
}
