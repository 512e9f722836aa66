package keyboard

import "unicode/utf8"

// Buffer is an edited text with a caret, measured in runes.
type Buffer struct {
	text      []rune
	caret     int
	submitted bool
}

// NewBuffer returns a buffer holding s with the caret at its end.
func NewBuffer(s string) *Buffer {
	r := []rune(s)
	return &Buffer{text: r, caret: len(r)}
}

// Apply performs ev on the buffer.
func (b *Buffer) Apply(ev Event) {
	switch ev.Action {
	case ActionInsert:
		b.Insert(ev.Text)
	case ActionBackspace:
		b.Backspace()
	case ActionSubmit:
		b.Insert(ev.Text)
		b.submitted = true
	}
}

// Insert inserts s at the caret and moves the caret past it.
func (b *Buffer) Insert(s string) {
	if s == "" {
		return
	}
	ins := []rune(s)
	out := make([]rune, 0, len(b.text)+len(ins))
	out = append(out, b.text[:b.caret]...)
	out = append(out, ins...)
	out = append(out, b.text[b.caret:]...)
	b.text = out
	b.caret += len(ins)
}

// Backspace deletes the rune before the caret.
func (b *Buffer) Backspace() {
	if b.caret == 0 {
		return
	}
	b.text = append(b.text[:b.caret-1], b.text[b.caret:]...)
	b.caret--
}

// MoveCaret moves the caret by n runes, clamped to the text.
func (b *Buffer) MoveCaret(n int) { b.SetCaret(b.caret + n) }

// SetCaret places the caret at pos, clamped to the text.
func (b *Buffer) SetCaret(pos int) {
	b.caret = max(0, min(pos, len(b.text)))
}

// Caret returns the caret position in runes.
func (b *Buffer) Caret() int { return b.caret }

// Len returns the text length in runes.
func (b *Buffer) Len() int { return len(b.text) }

// Submitted reports whether a submit event was applied.
func (b *Buffer) Submitted() bool { return b.submitted }

// Reset empties the buffer.
func (b *Buffer) Reset() {
	b.text = b.text[:0]
	b.caret = 0
	b.submitted = false
}

func (b *Buffer) String() string { return string(b.text) }

// ByteLen returns the UTF-8 length of the text.
func (b *Buffer) ByteLen() int {
	n := 0
	for _, r := range b.text {
		n += utf8.RuneLen(r)
	}
	return n
}
