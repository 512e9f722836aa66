package handler

import (
	"github.com/Alia5/vkbd/apitypes"
	"github.com/Alia5/vkbd/keyboard"
	"github.com/Alia5/vkbd/layout"
)

func layoutInfo(name string, l *layout.Layout) apitypes.LayoutInfo {
	return apitypes.LayoutInfo{
		Name:     name,
		Label:    l.Name,
		Lang:     l.Lang,
		DeadKeys: l.DeadKeys,
		Rows:     len(l.Keys),
		Slots:    l.SlotCount(),
	}
}

func layoutBody(name string, l *layout.Layout) apitypes.Layout {
	doc := layout.ToDocument(l)
	return apitypes.Layout{
		Name:     name,
		Label:    doc.Name,
		Keys:     doc.Keys,
		Lang:     doc.Lang,
		DeadKeys: doc.DeadKeys,
	}
}

func strokes(in []keyboard.Stroke) []apitypes.Stroke {
	out := make([]apitypes.Stroke, len(in))
	for i, s := range in {
		out[i] = apitypes.Stroke{Row: s.Row, Col: s.Col, Shift: s.Shift, AltGr: s.AltGr, Key: s.Key.String()}
	}
	return out
}
