package keyboard

import (
	"github.com/Alia5/vkbd/deadkey"
	"github.com/Alia5/vkbd/layout"
)

// Action tells the consumer what an Event does to the edited text.
type Action uint8

const (
	ActionNone Action = iota
	// ActionInsert inserts Event.Text at the caret.
	ActionInsert
	// ActionBackspace deletes the character before the caret.
	ActionBackspace
	// ActionSubmit inserts Event.Text, if any, and ends input.
	ActionSubmit
	// ActionModifier changed modifier state only.
	ActionModifier
	// ActionDeadKey stored a diacritic for the next character.
	ActionDeadKey
)

var actionNames = map[Action]string{
	ActionNone:      "none",
	ActionInsert:    "insert",
	ActionBackspace: "backspace",
	ActionSubmit:    "submit",
	ActionModifier:  "modifier",
	ActionDeadKey:   "deadkey",
}

func (a Action) String() string {
	if n, ok := actionNames[a]; ok {
		return n
	}
	return "unknown"
}

// Event is the outcome of one key press.
type Event struct {
	Action Action
	Text   string
	// Key is the key the slot resolved to.
	Key layout.Key
}

// Options configure a Session.
type Options struct {
	// DeadKeys composes diacritics typed on the layout's dead keys. Nil
	// disables composition.
	DeadKeys deadkey.Table
	// SingleLine makes Enter submit instead of inserting a newline.
	SingleLine bool
}

// State is a snapshot of a session's modifiers.
type State struct {
	Caps    bool   `json:"caps"`
	Shift   bool   `json:"shift"`
	Alt     bool   `json:"alt"`
	AltLock bool   `json:"altLock"`
	Pending string `json:"pending,omitempty"`
}

// Session resolves presses on one keyboard. Caps and AltLk are sticky; Shift
// and Alt/AltGr apply to the next character only. A Session is not safe for
// concurrent use.
type Session struct {
	layout *layout.Layout
	opts   Options

	caps    bool
	shift   bool
	alt     bool
	altLock bool
	pending string
}

// NewSession returns a session typing on a copy of l.
func NewSession(l *layout.Layout, opts Options) *Session {
	return &Session{layout: l.Clone(), opts: opts}
}

// Layout returns the session's layout.
func (s *Session) Layout() *layout.Layout { return s.layout }

// State returns the current modifier state.
func (s *Session) State() State {
	return State{
		Caps:    s.caps,
		Shift:   s.shift,
		Alt:     s.alt,
		AltLock: s.altLock,
		Pending: s.pending,
	}
}

// Reset clears every modifier and any pending dead key.
func (s *Session) Reset() {
	s.caps, s.shift, s.alt, s.altLock = false, false, false, false
	s.pending = ""
}

// Press presses the key at row, col of the session's layout.
func (s *Session) Press(row, col int) (Event, error) {
	slot, err := s.layout.Slot(row, col)
	if err != nil {
		return Event{}, err
	}
	return s.PressSlot(slot), nil
}

// PressSlot presses a key slot. A slot whose unmodified key is a function key
// acts as that function key whatever the modifier state.
func (s *Session) PressSlot(slot layout.KeySlot) Event {
	if p := slot.Primary(); p.IsFunction() {
		return s.function(p)
	}
	key := Resolve(slot, s.shift != s.caps, s.alt || s.altLock)
	if key.IsFunction() {
		return s.function(key)
	}
	if key.IsBlank() {
		s.clearOneShot()
		return Event{Action: ActionNone, Key: key}
	}
	ev := s.text(key.Text)
	ev.Key = key
	s.clearOneShot()
	return ev
}

func (s *Session) function(key layout.Key) Event {
	ev := Event{Key: key}
	switch key.Func {
	case layout.KeyCaps:
		s.caps = !s.caps
		ev.Action = ActionModifier
	case layout.KeyShift:
		s.shift = !s.shift
		ev.Action = ActionModifier
	case layout.KeyAlt, layout.KeyAltGr:
		s.alt = !s.alt
		ev.Action = ActionModifier
	case layout.KeyAltLk:
		s.altLock = !s.altLock
		ev.Action = ActionModifier
	case layout.KeySpace:
		if s.pending != "" {
			ev.Action, ev.Text = ActionInsert, s.flush()
		} else {
			ev.Action, ev.Text = ActionInsert, " "
		}
		s.clearOneShot()
	case layout.KeyTab:
		ev.Action, ev.Text = ActionInsert, s.flush()+"\t"
		s.clearOneShot()
	case layout.KeyEnter:
		if s.opts.SingleLine {
			ev.Action, ev.Text = ActionSubmit, s.flush()
		} else {
			ev.Action, ev.Text = ActionInsert, s.flush()+"\n"
		}
		s.clearOneShot()
	case layout.KeyBksp:
		if s.pending != "" {
			s.pending = ""
			ev.Action = ActionNone
		} else {
			ev.Action = ActionBackspace
		}
		s.clearOneShot()
	}
	return ev
}

func (s *Session) text(t string) Event {
	if s.pending != "" {
		d := s.pending
		s.pending = ""
		if t == d {
			return Event{Action: ActionInsert, Text: d}
		}
		if c, ok := s.opts.DeadKeys.Compose(d, t); ok {
			return Event{Action: ActionInsert, Text: c}
		}
		return Event{Action: ActionInsert, Text: d + t}
	}
	if s.isDead(t) {
		s.pending = t
		return Event{Action: ActionDeadKey}
	}
	return Event{Action: ActionInsert, Text: t}
}

func (s *Session) isDead(t string) bool {
	return s.opts.DeadKeys != nil && s.layout.IsDeadKey(t) && s.opts.DeadKeys.IsDead(t)
}

func (s *Session) flush() string {
	d := s.pending
	s.pending = ""
	return d
}

func (s *Session) clearOneShot() {
	s.shift = false
	s.alt = false
}
