package keyboard_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/vkbd/deadkey"
	"github.com/Alia5/vkbd/keyboard"
	"github.com/Alia5/vkbd/layout"
)

func getLayout(t *testing.T, name string) *layout.Layout {
	t.Helper()
	l, err := layout.Default().Get(name)
	require.NoError(t, err)
	return l
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name  string
		slot  layout.KeySlot
		shift bool
		altgr bool
		want  layout.Key
	}{
		{name: "plain", slot: layout.KeySlot{layout.Char("-"), layout.Char("_")}, want: layout.Char("-")},
		{name: "shift", slot: layout.KeySlot{layout.Char("-"), layout.Char("_")}, shift: true, want: layout.Char("_")},
		{name: "altgr missing", slot: layout.KeySlot{layout.Char("-"), layout.Char("_")}, altgr: true, want: layout.Key{}},
		{name: "shift altgr missing", slot: layout.KeySlot{layout.Char("-"), layout.Char("_")}, shift: true, altgr: true, want: layout.Key{}},
		{
			name:  "shift altgr",
			slot:  layout.KeySlot{layout.Char("1"), layout.Char("!"), layout.Char("¡"), layout.Char("¹")},
			shift: true, altgr: true,
			want: layout.Char("¹"),
		},
		{name: "function", slot: layout.KeySlot{layout.Fn(layout.KeyBksp), layout.Fn(layout.KeyBksp)}, shift: true, want: layout.Fn(layout.KeyBksp)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, keyboard.Resolve(tt.slot, tt.shift, tt.altgr))
		})
	}
}

type press struct{ row, col int }

func run(t *testing.T, s *keyboard.Session, presses ...press) (*keyboard.Buffer, []keyboard.Event) {
	t.Helper()
	buf := keyboard.NewBuffer("")
	var events []keyboard.Event
	for _, p := range presses {
		ev, err := s.Press(p.row, p.col)
		require.NoError(t, err)
		buf.Apply(ev)
		events = append(events, ev)
	}
	return buf, events
}

func TestSessionModifiers(t *testing.T) {
	var (
		shift = press{3, 0}
		caps  = press{2, 0}
		q     = press{1, 1}
		one   = press{0, 1}
		enter = press{2, 12}
		bksp  = press{0, 13}
		space = press{4, 0}
		tab   = press{1, 0}
	)

	tests := []struct {
		name    string
		layout  string
		opts    keyboard.Options
		presses []press
		want    string
		state   keyboard.State
		submit  bool
	}{
		{name: "plain", layout: "US Standard", presses: []press{q, one}, want: "q1"},
		{name: "shift is one-shot", layout: "US Standard", presses: []press{shift, q, q}, want: "Qq"},
		{name: "shift twice cancels", layout: "US Standard", presses: []press{shift, shift, q}, want: "q"},
		{name: "caps is sticky", layout: "US Standard", presses: []press{caps, q, q, one}, want: "QQ!", state: keyboard.State{Caps: true}},
		{name: "caps with shift", layout: "US Standard", presses: []press{caps, shift, q, one}, want: "q!", state: keyboard.State{Caps: true}},
		{name: "caps shifts symbols", layout: "US Standard", presses: []press{caps, one}, want: "!", state: keyboard.State{Caps: true}},
		{name: "space tab enter", layout: "US Standard", presses: []press{q, space, q, tab, enter}, want: "q q\t\n"},
		{name: "backspace", layout: "US Standard", presses: []press{q, one, bksp}, want: "q"},
		{name: "backspace on empty", layout: "US Standard", presses: []press{bksp}, want: ""},
		{name: "single line submits", layout: "US Standard", opts: keyboard.Options{SingleLine: true}, presses: []press{q, enter}, want: "q", submit: true},
		{name: "shift with function key", layout: "US Standard", presses: []press{shift, enter, q}, want: "\nq"},
		{name: "altgr one-shot", layout: "Deutsch", presses: []press{{4, 1}, q, q}, want: "@q"},
		{name: "altgr blank slot", layout: "Deutsch", presses: []press{{4, 1}, {1, 2}, q}, want: "q"},
		{name: "shift altgr", layout: "US International", presses: []press{shift, {4, 1}, one}, want: "¹"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := keyboard.NewSession(getLayout(t, tt.layout), tt.opts)
			buf, _ := run(t, s, tt.presses...)
			assert.Equal(t, tt.want, buf.String())
			assert.Equal(t, tt.state, s.State())
			assert.Equal(t, tt.submit, buf.Submitted())
		})
	}
}

func TestSessionDeadKeys(t *testing.T) {
	var (
		circ  = press{0, 0}
		acute = press{0, 12}
		a     = press{2, 1}
		q     = press{1, 1}
		space = press{4, 0}
		bksp  = press{0, 13}
		enter = press{1, 13}
		shift = press{3, 0}
	)
	table := deadkey.Default()

	tests := []struct {
		name    string
		table   deadkey.Table
		presses []press
		want    string
	}{
		{name: "compose", table: table, presses: []press{circ, a}, want: "â"},
		{name: "compose shifted base", table: table, presses: []press{acute, shift, a}, want: "Á"},
		{name: "space emits diacritic", table: table, presses: []press{circ, space}, want: "^"},
		{name: "same key twice", table: table, presses: []press{circ, circ}, want: "^"},
		{name: "no composition", table: table, presses: []press{circ, q}, want: "^q"},
		{name: "other dead key", table: table, presses: []press{circ, acute, a}, want: "^´a"},
		{name: "backspace cancels", table: table, presses: []press{a, circ, bksp, a}, want: "aa"},
		{name: "enter flushes", table: table, presses: []press{circ, enter}, want: "^\n"},
		{name: "disabled", table: nil, presses: []press{circ, a}, want: "^a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := keyboard.NewSession(getLayout(t, "Deutsch"), keyboard.Options{DeadKeys: tt.table})
			buf, _ := run(t, s, tt.presses...)
			assert.Equal(t, tt.want, buf.String())
			assert.Empty(t, s.State().Pending)
		})
	}
}

func TestSessionDeadKeyEvents(t *testing.T) {
	s := keyboard.NewSession(getLayout(t, "Deutsch"), keyboard.Options{DeadKeys: deadkey.Default()})
	ev, err := s.Press(0, 0)
	require.NoError(t, err)
	assert.Equal(t, keyboard.ActionDeadKey, ev.Action)
	assert.Equal(t, "^", s.State().Pending)

	s.Reset()
	assert.Equal(t, keyboard.State{}, s.State())

	ev, err = s.Press(0, 13)
	require.NoError(t, err)
	assert.Equal(t, keyboard.ActionBackspace, ev.Action)
	assert.Equal(t, layout.Fn(layout.KeyBksp), ev.Key)
}

func TestSessionLayoutNotDeadKey(t *testing.T) {
	// "^" is a dead key in the table but not on US Standard.
	s := keyboard.NewSession(getLayout(t, "US Standard"), keyboard.Options{DeadKeys: deadkey.Default()})
	buf, _ := run(t, s, press{3, 0}, press{0, 6}, press{2, 1})
	assert.Equal(t, "^a", buf.String())
}

func TestSessionOutOfRange(t *testing.T) {
	s := keyboard.NewSession(getLayout(t, "US Standard"), keyboard.Options{})
	_, err := s.Press(9, 0)
	assert.ErrorIs(t, err, layout.ErrOutOfRange)
	_, err = s.Press(0, -1)
	assert.ErrorIs(t, err, layout.ErrOutOfRange)
}

func TestSessionOwnsLayout(t *testing.T) {
	l := getLayout(t, "US Standard")
	s := keyboard.NewSession(l, keyboard.Options{})
	l.Keys[1][1][0] = layout.Char("x")
	buf, _ := run(t, s, press{1, 1})
	assert.Equal(t, "q", buf.String())
}

func TestPlanAndType(t *testing.T) {
	table := deadkey.Default()

	tests := []struct {
		layout string
		text   string
	}{
		{layout: "US Standard", text: "Hello, World!\n"},
		{layout: "US Standard", text: "a\tb ~^"},
		{layout: "Deutsch", text: "Grüße, Straße! â ´ é @ ^"},
		{layout: "Français", text: "Où êtes-vous ? ï"},
		{layout: "US International", text: "Ça va, ¿señor? ö"},
		{layout: "Bosanski", text: "Šđčćž ł ő"},
		{layout: "Ελληνικά", text: "Καλημέρα ΐ"},
		{layout: "العربية", text: "مرحبا 123"},
		{layout: "Русский", text: "Привет, мир!"},
	}

	for _, tt := range tests {
		t.Run(tt.layout, func(t *testing.T) {
			l := getLayout(t, tt.layout)
			strokes, err := keyboard.Plan(l, tt.text, table)
			require.NoError(t, err)

			s := keyboard.NewSession(l, keyboard.Options{DeadKeys: table})
			got, err := s.Type(strokes)
			require.NoError(t, err)
			assert.Equal(t, tt.text, got)
			assert.Equal(t, keyboard.State{}, s.State())
		})
	}
}

func TestTypeWithCapsLock(t *testing.T) {
	l := getLayout(t, "US Standard")
	s := keyboard.NewSession(l, keyboard.Options{})
	_, err := s.Press(2, 0)
	require.NoError(t, err)

	strokes, err := keyboard.Plan(l, "aB1!", nil)
	require.NoError(t, err)
	got, err := s.Type(strokes)
	require.NoError(t, err)
	assert.Equal(t, "aB1!", got)
	assert.True(t, s.State().Caps)
}

func TestPlanUnreachable(t *testing.T) {
	tests := []struct {
		layout string
		text   string
		table  deadkey.Table
	}{
		{layout: "US Standard", text: "€"},
		{layout: "US Standard", text: "é", table: deadkey.Default()},
		{layout: "Deutsch", text: "é"},
		{layout: "Русский", text: "q"},
	}

	for _, tt := range tests {
		t.Run(tt.layout+" "+tt.text, func(t *testing.T) {
			_, err := keyboard.Plan(getLayout(t, tt.layout), tt.text, tt.table)
			assert.ErrorIs(t, err, keyboard.ErrUnreachable)
		})
	}
}

func TestBuffer(t *testing.T) {
	b := keyboard.NewBuffer("héllo")
	assert.Equal(t, 5, b.Caret())
	assert.Equal(t, 6, b.ByteLen())

	b.MoveCaret(-3)
	b.Backspace()
	assert.Equal(t, "hllo", b.String())
	assert.Equal(t, 1, b.Caret())

	b.Insert("ё")
	assert.Equal(t, "hёllo", b.String())

	b.SetCaret(-10)
	b.Backspace()
	assert.Equal(t, 0, b.Caret())
	b.MoveCaret(100)
	assert.Equal(t, b.Len(), b.Caret())

	b.Apply(keyboard.Event{Action: keyboard.ActionSubmit, Text: "!"})
	assert.True(t, b.Submitted())
	assert.Equal(t, "hёllo!", b.String())

	b.Apply(keyboard.Event{Action: keyboard.ActionModifier})
	assert.Equal(t, "hёllo!", b.String())

	b.Reset()
	assert.Equal(t, "", b.String())
	assert.False(t, b.Submitted())
}

func TestActionString(t *testing.T) {
	assert.Equal(t, "insert", keyboard.ActionInsert.String())
	assert.Equal(t, "deadkey", keyboard.ActionDeadKey.String())
	assert.Equal(t, "unknown", keyboard.Action(99).String())
}
