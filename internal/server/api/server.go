package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/Alia5/vkbd/deadkey"
	"github.com/Alia5/vkbd/internal/log"
	"github.com/Alia5/vkbd/internal/server/api/auth"
	apierror "github.com/Alia5/vkbd/internal/server/api/error"
	"github.com/Alia5/vkbd/layout"
)

var wsRegex = regexp.MustCompile(`\s`)

// Server implements the TCP layout API.
type Server struct {
	reg      *layout.Registry
	deadKeys deadkey.Table
	addr     string
	ln       net.Listener
	logger   *slog.Logger
	raw      log.RawLogger
	router   *Router
	config   ServerConfig
	key      []byte

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates an API server serving layouts from reg. A nil deadKeys table
// disables dead-key composition for sessions.
func New(reg *layout.Registry, deadKeys deadkey.Table, addr string, config ServerConfig, logger *slog.Logger, raw log.RawLogger) *Server {
	if raw == nil {
		raw = log.NewRaw(nil)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		reg:      reg,
		deadKeys: deadKeys,
		addr:     addr,
		logger:   logger,
		raw:      raw,
		router:   NewRouter(),
		config:   config,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Router returns the router used by the API server so callers can register handlers.
func (a *Server) Router() *Router { return a.router }

// Registry returns the layout registry served by the API.
func (a *Server) Registry() *layout.Registry { return a.reg }

// DeadKeys returns the dead-key table used for sessions and plans.
func (a *Server) DeadKeys() deadkey.Table { return a.deadKeys }

// Config returns the server configuration.
func (a *Server) Config() ServerConfig { return a.config }

// Addr returns the bound listen address once started, else the configured one.
func (a *Server) Addr() string {
	if a.ln != nil {
		return a.ln.Addr().String()
	}
	return a.addr
}

// Start listens on the configured address and serves incoming API commands.
func (a *Server) Start() error {
	if a.config.Password != "" {
		key, err := auth.DeriveKey(a.config.Password)
		if err != nil {
			return fmt.Errorf("derive API key: %w", err)
		}
		a.key = key
	}
	ln, err := net.Listen("tcp", a.addr)
	if err != nil {
		return err
	}
	a.ln = ln
	a.logger.Info("API listening", "addr", ln.Addr().String(), "auth", a.key != nil)
	go a.serve()
	return nil
}

// Close stops the API server and ends open session streams.
func (a *Server) Close() {
	a.cancel()
	if a.ln != nil {
		_ = a.ln.Close()
	}
	a.wg.Wait()
}

func (a *Server) serve() {
	for {
		c, err := a.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				a.logger.Info("API server stopped")
				return
			}
			a.logger.Info("API accept error", "error", err)
			return
		}
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			a.handleConn(c)
		}()
	}
}

func (a *Server) writeError(w io.Writer, err error) {
	problemJSON, _ := json.Marshal(apierror.WrapError(err))
	_, _ = fmt.Fprintf(w, "%s\n", problemJSON)
}

func (a *Server) writeOK(w io.Writer, rest string) {
	_, _ = fmt.Fprintf(w, "%s\n", rest)
}

// authenticate handles the optional handshake. It returns the connection to
// use for the request and a reader positioned at the request bytes.
func (a *Server) authenticate(conn net.Conn, r *bufio.Reader) (net.Conn, *bufio.Reader, error) {
	isAuth, err := auth.IsAuthHandshake(r)
	if err != nil {
		return nil, nil, err
	}
	// Unanswerable input is drained before the error so the close is clean.
	if !isAuth {
		if a.key != nil && (a.config.RequireLocalhostAuth || !isLoopback(conn.RemoteAddr())) {
			_, _ = r.ReadString('\x00')
			return nil, nil, apierror.ErrUnauthorized("authentication required")
		}
		return conn, r, nil
	}
	if a.key == nil {
		_, _ = r.Discard(len(auth.HandshakeMagic) + auth.NonceSize + auth.MACSize)
		return nil, nil, apierror.ErrUnauthorized("authentication is not configured on this server")
	}
	enc, err := auth.Accept(conn, r, a.key)
	if err != nil {
		return nil, nil, err
	}
	return enc, bufio.NewReader(enc), nil
}

func isLoopback(addr net.Addr) bool {
	tcp, ok := addr.(*net.TCPAddr)
	return ok && tcp.IP.IsLoopback()
}

func (a *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	connCtx, connCancel := context.WithCancel(a.ctx)
	defer connCancel()
	go func() {
		<-connCtx.Done()
		_ = conn.Close()
	}()

	remote := conn.RemoteAddr().String()
	connLogger := a.logger.With("remote", remote)
	if a.config.ConnectionTimeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(a.config.ConnectionTimeout))
	}

	c, r, err := a.authenticate(conn, bufio.NewReader(conn))
	if err != nil {
		if errors.Is(err, io.EOF) {
			connLogger.Debug("api connection closed before request")
			return
		}
		connLogger.Warn("api auth failed", "error", err)
		a.writeError(conn, err)
		return
	}

	reqData, err := r.ReadString('\x00')
	if err != nil {
		if err == io.EOF {
			connLogger.Error("api incomplete request (no null terminator)")
		} else {
			connLogger.Error("read api data", "error", err)
		}
		return
	}
	a.raw.Log(true, remote, []byte(reqData))
	reqData = strings.TrimSuffix(reqData, "\x00")

	w := &rawWriter{w: c, raw: a.raw, remote: remote}
	if reqData == "" {
		connLogger.Error("api empty command")
		a.writeError(w, apierror.ErrBadRequest("empty request"))
		return
	}

	var path, payload string
	if loc := wsRegex.FindStringIndex(reqData); loc != nil {
		path = reqData[:loc[0]]
		payload = reqData[loc[1]:]
	} else {
		path = reqData
	}
	if path == "" {
		connLogger.Error("api empty path")
		a.writeError(w, apierror.ErrBadRequest("empty path"))
		return
	}
	connLogger.Info("api cmd", "path", path)

	if h, params := a.router.Match(path); h != nil {
		req := &Request{Ctx: connCtx, Params: params, Payload: payload}
		res := &Response{}
		if err := h(req, res, connLogger); err != nil {
			connLogger.Error("api handler error", "path", path, "error", err)
			a.writeError(w, err)
			return
		}
		connLogger.Debug("api handler success", "path", path)
		a.writeOK(w, res.JSON)
		return
	}

	if sh, params := a.router.MatchStream(path); sh != nil {
		connLogger.Info("api stream begin", "path", path)
		_ = conn.SetDeadline(time.Time{})
		sc := &streamConn{Conn: c, r: r, raw: a.raw, remote: remote}
		req := &Request{Ctx: connCtx, Params: params, Payload: payload}
		if err := sh(sc, req, connLogger); err != nil {
			connLogger.Error("api stream handler error", "path", path, "error", err)
		}
		connLogger.Info("api stream end", "path", path)
		return
	}

	connLogger.Error("api unknown path", "path", path)
	a.writeError(w, apierror.ErrNotFound(fmt.Sprintf("unknown path: %s", path)))
}

type rawWriter struct {
	w      io.Writer
	raw    log.RawLogger
	remote string
}

func (w *rawWriter) Write(p []byte) (int, error) {
	n, err := w.w.Write(p)
	w.raw.Log(false, w.remote, p[:n])
	return n, err
}

// streamConn hands a stream handler the request connection with any bytes
// already buffered behind the request still readable.
type streamConn struct {
	net.Conn
	r      *bufio.Reader
	raw    log.RawLogger
	remote string
}

func (c *streamConn) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.raw.Log(true, c.remote, p[:n])
	return n, err
}

func (c *streamConn) Write(p []byte) (int, error) {
	n, err := c.Conn.Write(p)
	c.raw.Log(false, c.remote, p[:n])
	return n, err
}
