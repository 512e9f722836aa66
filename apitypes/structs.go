package apitypes

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ApiError represents an RFC 7807 (problem+json) error response.
type ApiError struct {
	// Status is the HTTP-style status code (e.g., 400, 404, 500)
	Status int `json:"status"`
	// Title is a short, human-readable summary of the problem type
	Title string `json:"title"`
	// Detail is a human-readable explanation specific to this occurrence
	Detail string `json:"detail"`
}

func (e ApiError) Error() string {
	if e.Status == 0 && e.Title == "" {
		return "unknown error"
	}
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Title, e.Detail)
	}
	return fmt.Sprintf("%d %s: %s", e.Status, e.Title, e.Detail)
}

// --

type PingResponse struct {
	Server  string `json:"server"`
	Version string `json:"version"`
}

// LayoutInfo summarizes one registered layout.
type LayoutInfo struct {
	Name     string   `json:"name"`
	Label    string   `json:"label"`
	Lang     []string `json:"lang,omitempty"`
	DeadKeys string   `json:"deadKeys,omitempty"`
	Rows     int      `json:"rows"`
	Slots    int      `json:"slots"`
}

type LayoutListResponse struct {
	Layouts []LayoutInfo `json:"layouts"`
}

// Layout is a full layout. Keys use the data-file form: printable text as-is,
// function keys in braces such as "{Bksp}".
type Layout struct {
	Name     string       `json:"name"`
	Label    string       `json:"label"`
	Keys     [][][]string `json:"keys"`
	Lang     []string     `json:"lang,omitempty"`
	DeadKeys string       `json:"deadKeys,omitempty"`
}

// Position addresses a key slot.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// UnmarshalJSON accepts {"row":1,"col":2}, [1,2] or "1,2".
func (p *Position) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	switch {
	case strings.HasPrefix(trimmed, "["):
		var pair []int
		if err := json.Unmarshal(data, &pair); err != nil {
			return err
		}
		if len(pair) != 2 {
			return fmt.Errorf("position: expected [row, col], got %d values", len(pair))
		}
		p.Row, p.Col = pair[0], pair[1]
		return nil
	case strings.HasPrefix(trimmed, `"`):
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := ParsePosition(s)
		if err != nil {
			return err
		}
		*p = parsed
		return nil
	default:
		var raw struct {
			Row int `json:"row"`
			Col int `json:"col"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		p.Row, p.Col = raw.Row, raw.Col
		return nil
	}
}

// ParsePosition parses "row,col" or "row col".
func ParsePosition(s string) (Position, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
	if len(fields) != 2 {
		return Position{}, fmt.Errorf("position %q: expected row,col", s)
	}
	row, err := strconv.Atoi(fields[0])
	if err != nil {
		return Position{}, fmt.Errorf("position %q: row: %w", s, err)
	}
	col, err := strconv.Atoi(fields[1])
	if err != nil {
		return Position{}, fmt.Errorf("position %q: col: %w", s, err)
	}
	return Position{Row: row, Col: col}, nil
}

// LayoutCheckResponse lists data-quality findings across the registry.
type LayoutCheckResponse struct {
	Issues []LayoutIssue `json:"issues"`
}

type LayoutIssue struct {
	Layout string `json:"layout"`
	Detail string `json:"detail"`
}

type ResolveRequest struct {
	Layout string `json:"layout"`
	Position
	Shift bool `json:"shift,omitempty"`
	AltGr bool `json:"altgr,omitempty"`
}

// UnmarshalJSON keeps the embedded Position from swallowing the other fields.
func (r *ResolveRequest) UnmarshalJSON(data []byte) error {
	var raw struct {
		Layout string    `json:"layout"`
		Row    int       `json:"row"`
		Col    int       `json:"col"`
		At     *Position `json:"at,omitempty"`
		Shift  bool      `json:"shift,omitempty"`
		AltGr  bool      `json:"altgr,omitempty"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Layout, r.Shift, r.AltGr = raw.Layout, raw.Shift, raw.AltGr
	r.Position = Position{Row: raw.Row, Col: raw.Col}
	if raw.At != nil {
		r.Position = *raw.At
	}
	return nil
}

type ResolveResponse struct {
	// Key is the data-file form of the resolved key; empty when blank.
	Key      string `json:"key"`
	Label    string `json:"label,omitempty"`
	Function bool   `json:"function,omitempty"`
	Blank    bool   `json:"blank,omitempty"`
}

type PlanRequest struct {
	Layout string `json:"layout"`
	Text   string `json:"text"`
	// NoDeadKeys disables composition through dead keys.
	NoDeadKeys bool `json:"noDeadKeys,omitempty"`
}

type Stroke struct {
	Row   int    `json:"row"`
	Col   int    `json:"col"`
	Shift bool   `json:"shift,omitempty"`
	AltGr bool   `json:"altgr,omitempty"`
	Key   string `json:"key"`
}

type PlanResponse struct {
	Layout  string   `json:"layout"`
	Strokes []Stroke `json:"strokes"`
}

// SessionOptions is the optional payload of a session stream request.
type SessionOptions struct {
	SingleLine bool `json:"singleLine,omitempty"`
	NoDeadKeys bool `json:"noDeadKeys,omitempty"`
	// Text preloads the edit buffer.
	Text string `json:"text,omitempty"`
}

// SessionEvent is one line written by the server on a session stream.
type SessionEvent struct {
	Action    string    `json:"action"`
	Text      string    `json:"text,omitempty"`
	Key       string    `json:"key,omitempty"`
	Buffer    string    `json:"buffer"`
	Caret     int       `json:"caret"`
	Submitted bool      `json:"submitted,omitempty"`
	Caps      bool      `json:"caps"`
	Shift     bool      `json:"shift"`
	Alt       bool      `json:"alt"`
	AltLock   bool      `json:"altLock"`
	Pending   string    `json:"pending,omitempty"`
	Error     *ApiError `json:"error,omitempty"`
}
