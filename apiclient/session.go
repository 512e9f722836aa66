package apiclient

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	apitypes "github.com/Alia5/vkbd/apitypes"
)

// ErrSessionClosed is returned by Session methods after Close.
var ErrSessionClosed = errors.New("session closed")

// Session is an open typing session on the server. Each command is answered
// by exactly one event; calls are serialized.
type Session struct {
	Layout string

	conn   net.Conn
	r      *bufio.Reader
	mu     sync.Mutex
	closed bool
}

// OpenSession opens a session stream for a layout and returns it together
// with the initial state event. opts may be nil.
func (c *Client) OpenSession(ctx context.Context, layoutName string, opts *apitypes.SessionOptions) (*Session, *apitypes.SessionEvent, error) {
	if c.transport.mock != nil {
		return nil, nil, fmt.Errorf("session streams not supported with mock transport")
	}
	var payload any
	if opts != nil {
		payload = opts
	}
	line, err := requestLine("session/{layout}", payload, map[string]string{"layout": layoutName})
	if err != nil {
		return nil, nil, err
	}
	conn, err := c.transport.dial(ctx)
	if err != nil {
		return nil, nil, err
	}
	if _, err := conn.Write(line); err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("write session path: %w", err)
	}

	s := &Session{Layout: layoutName, conn: conn, r: bufio.NewReader(conn)}
	if c.transport.cfg.ReadTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(c.transport.cfg.ReadTimeout))
	}
	ev, err := s.readEvent()
	_ = conn.SetReadDeadline(time.Time{})
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return s, ev, nil
}

// Press presses the key at row, col. Rejected presses return the event
// together with its *apitypes.ApiError.
func (s *Session) Press(row, col int) (*apitypes.SessionEvent, error) {
	return s.send(fmt.Sprintf("%d %d", row, col))
}

// Reset clears modifiers, any pending dead key and the edit buffer.
func (s *Session) Reset() (*apitypes.SessionEvent, error) { return s.send("reset") }

// Clear empties the edit buffer but keeps modifier state.
func (s *Session) Clear() (*apitypes.SessionEvent, error) { return s.send("clear") }

// State returns the current state without changing it.
func (s *Session) State() (*apitypes.SessionEvent, error) { return s.send("state") }

// SetReadDeadline sets the read deadline for the underlying connection.
func (s *Session) SetReadDeadline(t time.Time) error { return s.conn.SetReadDeadline(t) }

// Close closes the session connection.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.conn.Close()
}

func (s *Session) send(cmd string) (*apitypes.SessionEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionClosed
	}
	if _, err := fmt.Fprintf(s.conn, "%s\n", cmd); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}
	ev, err := s.readEvent()
	if err != nil {
		return ev, err
	}
	if ev.Error != nil {
		return ev, ev.Error
	}
	return ev, nil
}

func (s *Session) readEvent() (*apitypes.SessionEvent, error) {
	line, err := s.r.ReadString('\n')
	if err != nil && line == "" {
		return nil, fmt.Errorf("read: %w", err)
	}
	line = strings.TrimSpace(line)
	var ev apitypes.SessionEvent
	if err := json.Unmarshal([]byte(line), &ev); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if ev.Action == "" {
		var problem apitypes.ApiError
		if err := json.Unmarshal([]byte(line), &problem); err == nil && problem.Status != 0 {
			return nil, &problem
		}
		return nil, fmt.Errorf("decode: unexpected session line %q", line)
	}
	return &ev, nil
}
