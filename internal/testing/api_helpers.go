// Package testing holds helpers shared by the API tests.
package testing

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"testing"

	"github.com/Alia5/vkbd/deadkey"
	"github.com/Alia5/vkbd/internal/log"
	"github.com/Alia5/vkbd/internal/server/api"
	"github.com/Alia5/vkbd/layout"
)

// StartAPIServer starts an API server over the built-in layouts on a free
// loopback port and calls register so the test can add the handlers it needs.
func StartAPIServer(t *testing.T, register func(r *api.Router, reg *layout.Registry, apiSrv *api.Server)) (addr string, reg *layout.Registry, done func()) {
	t.Helper()
	return StartAPIServerWithConfig(t, api.ServerConfig{}, register)
}

// StartAPIServerWithConfig is StartAPIServer with an explicit server config.
// The listen address is always replaced by a free loopback port.
func StartAPIServerWithConfig(t *testing.T, cfg api.ServerConfig, register func(r *api.Router, reg *layout.Registry, apiSrv *api.Server)) (addr string, reg *layout.Registry, done func()) {
	t.Helper()
	reg = layout.Default()
	cfg.Addr = "127.0.0.1:0"

	apiSrv := api.New(reg, deadkey.Default(), cfg.Addr, cfg, slog.Default(), log.NewRaw(nil))
	if register != nil {
		register(apiSrv.Router(), reg, apiSrv)
	}
	if err := apiSrv.Start(); err != nil {
		t.Fatalf("api start failed: %v", err)
	}
	return apiSrv.Addr(), reg, apiSrv.Close
}

// ExecCmd dials the API server, sends cmd with the null terminator and returns
// the response line without its trailing newline.
func ExecCmd(t *testing.T, addr string, cmd string) string {
	t.Helper()
	c, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer c.Close()

	_, _ = fmt.Fprintf(c, "%s\x00", cmd)

	line, err := bufio.NewReader(c).ReadString('\n')
	if err != nil && err != io.EOF {
		t.Fatalf("read failed: %v", err)
	}
	return strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")
}

// FreeAddr returns a loopback address with a port that was free a moment ago,
// for servers that do not report the address they bound.
func FreeAddr(tb testing.TB) string {
	tb.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		tb.Fatalf("listen failed: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()
	return addr
}
