package api

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"
	"time"

	"github.com/Alia5/vkbd/apitypes"
	"github.com/Alia5/vkbd/keyboard"
	apierror "github.com/Alia5/vkbd/internal/server/api/error"
)

// Stream commands besides "row col" presses.
const (
	SessionCmdReset = "reset"
	SessionCmdState = "state"
	SessionCmdClear = "clear"
)

// MaxSessionLine caps a single stream command; longer lines end the session.
const MaxSessionLine = 4096

// SessionStreamHandler serves "session/{layout}". The optional payload is a
// SessionOptions JSON object. The server writes one SessionEvent line for the
// initial state and one per client line until the client disconnects.
func SessionStreamHandler(a *Server) StreamHandlerFunc {
	return func(conn net.Conn, req *Request, logger *slog.Logger) error {
		defer conn.Close()
		enc := json.NewEncoder(conn)

		name := req.Params["layout"]
		var opts apitypes.SessionOptions
		if strings.TrimSpace(req.Payload) != "" {
			if err := json.Unmarshal([]byte(req.Payload), &opts); err != nil {
				return enc.Encode(apierror.ErrBadRequest(fmt.Sprintf("invalid JSON payload: %v", err)))
			}
		}
		l, err := a.Registry().Get(name)
		if err != nil {
			_ = enc.Encode(apierror.WrapError(err))
			return err
		}

		kopts := keyboard.Options{SingleLine: opts.SingleLine}
		if !opts.NoDeadKeys {
			kopts.DeadKeys = a.DeadKeys()
		}
		sess := keyboard.NewSession(l, kopts)
		buf := keyboard.NewBuffer(opts.Text)
		logger = logger.With("layout", name)
		logger.Debug("session opened", "singleLine", opts.SingleLine, "deadKeys", kopts.DeadKeys != nil)

		if err := enc.Encode(sessionEvent(SessionCmdState, keyboard.Event{}, sess, buf)); err != nil {
			return err
		}

		idle := a.Config().SessionIdleTimeout
		sc := bufio.NewScanner(conn)
		sc.Buffer(make([]byte, 0, 256), MaxSessionLine)
		for {
			if idle > 0 {
				_ = conn.SetReadDeadline(time.Now().Add(idle))
			}
			if !sc.Scan() {
				err := sc.Err()
				switch {
				case err == nil, errors.Is(err, net.ErrClosed), req.Ctx.Err() != nil:
					return nil
				case errors.Is(err, os.ErrDeadlineExceeded):
					logger.Info("session idle timeout", "timeout", idle)
					return nil
				case errors.Is(err, bufio.ErrTooLong):
					logger.Warn("session line too long, closing", "limit", MaxSessionLine)
					ev := sessionEvent("error", keyboard.Event{}, sess, buf)
					ev.Error = apierror.ErrBadRequest(fmt.Sprintf("line exceeds %d bytes", MaxSessionLine))
					return enc.Encode(ev)
				}
				return err
			}
			line := strings.TrimSpace(sc.Text())
			if line == "" {
				continue
			}

			ev := handleSessionLine(line, sess, buf)
			if ev.Error != nil {
				logger.Debug("session command rejected", "line", line, "error", ev.Error)
			}
			if err := enc.Encode(ev); err != nil {
				return err
			}
		}
	}
}

func handleSessionLine(line string, sess *keyboard.Session, buf *keyboard.Buffer) apitypes.SessionEvent {
	switch strings.ToLower(line) {
	case SessionCmdReset:
		sess.Reset()
		buf.Reset()
		return sessionEvent(SessionCmdReset, keyboard.Event{}, sess, buf)
	case SessionCmdClear:
		buf.Reset()
		return sessionEvent(SessionCmdClear, keyboard.Event{}, sess, buf)
	case SessionCmdState:
		return sessionEvent(SessionCmdState, keyboard.Event{}, sess, buf)
	}

	pos, err := apitypes.ParsePosition(line)
	if err != nil {
		ev := sessionEvent("error", keyboard.Event{}, sess, buf)
		ev.Error = apierror.ErrBadRequest(err.Error())
		return ev
	}
	kev, err := sess.Press(pos.Row, pos.Col)
	if err != nil {
		ev := sessionEvent("error", keyboard.Event{}, sess, buf)
		ev.Error = apierror.WrapError(err)
		return ev
	}
	buf.Apply(kev)
	return sessionEvent(kev.Action.String(), kev, sess, buf)
}

func sessionEvent(action string, ev keyboard.Event, sess *keyboard.Session, buf *keyboard.Buffer) apitypes.SessionEvent {
	st := sess.State()
	out := apitypes.SessionEvent{
		Action:    action,
		Text:      ev.Text,
		Buffer:    buf.String(),
		Caret:     buf.Caret(),
		Submitted: buf.Submitted(),
		Caps:      st.Caps,
		Shift:     st.Shift,
		Alt:       st.Alt,
		AltLock:   st.AltLock,
		Pending:   st.Pending,
	}
	if !ev.Key.IsBlank() {
		out.Key = ev.Key.String()
	}
	return out
}
