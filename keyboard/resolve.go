// Package keyboard turns on-screen key presses into text. Resolve picks the
// key a slot produces for a modifier state; Session tracks the sticky and
// one-shot modifiers and dead keys of one keyboard; Buffer applies the
// resulting events to an edited text.
package keyboard

import "github.com/Alia5/vkbd/layout"

// Modifier slot offsets.
const (
	IndexShift = 1
	IndexAltGr = 2
)

// SlotIndex returns the key slot index for a modifier state.
func SlotIndex(shift, altgr bool) int {
	i := 0
	if shift {
		i += IndexShift
	}
	if altgr {
		i += IndexAltGr
	}
	return i
}

// Resolve returns the key slot produces with the given modifiers. Slots that
// have no entry for the state resolve to a blank Key.
func Resolve(slot layout.KeySlot, shift, altgr bool) layout.Key {
	return slot.At(SlotIndex(shift, altgr))
}
