package api

import (
	"context"
	"log/slog"
	"net"
	"net/url"
	"strings"
)

// Request contains route parameters and additional args from the command.
type Request struct {
	Ctx     context.Context
	Params  map[string]string
	Payload string
}

// Response holds the JSON string to return to the client.
type Response struct {
	JSON string
}

// HandlerFunc processes a request and populates the response.
// The logger is connection-scoped; error logging happens in the server.
type HandlerFunc func(req *Request, res *Response, logger *slog.Logger) error

// StreamHandlerFunc handles a long-lived connection. It owns conn for the
// rest of the connection and returns when the client is done.
type StreamHandlerFunc func(conn net.Conn, req *Request, logger *slog.Logger) error

// Router implements path pattern matching with {name} placeholders.
// Literal segments match case-insensitively; placeholder values keep their
// case and are URL-unescaped.
type Router struct {
	routes       []route[HandlerFunc]
	streamRoutes []route[StreamHandlerFunc]
}

type route[H any] struct {
	pattern string
	parts   []string
	handler H
}

// NewRouter returns a new Router instance.
func NewRouter() *Router { return &Router{} }

// Register registers a handler for a path pattern like "layout/{name}".
func (r *Router) Register(pattern string, handler HandlerFunc) {
	r.routes = append(r.routes, route[HandlerFunc]{pattern: pattern, parts: strings.Split(pattern, "/"), handler: handler})
}

// RegisterStream registers a StreamHandlerFunc for long-lived connections.
func (r *Router) RegisterStream(pattern string, handler StreamHandlerFunc) {
	r.streamRoutes = append(r.streamRoutes, route[StreamHandlerFunc]{pattern: pattern, parts: strings.Split(pattern, "/"), handler: handler})
}

// Match returns the HandlerFunc and params for path, or nil.
func (r *Router) Match(path string) (HandlerFunc, map[string]string) {
	return match(r.routes, path)
}

// MatchStream returns the StreamHandlerFunc and params for path, or nil.
func (r *Router) MatchStream(path string) (StreamHandlerFunc, map[string]string) {
	return match(r.streamRoutes, path)
}

// Patterns lists every registered pattern, plain routes first.
func (r *Router) Patterns() []string {
	out := make([]string, 0, len(r.routes)+len(r.streamRoutes))
	for _, rt := range r.routes {
		out = append(out, rt.pattern)
	}
	for _, rt := range r.streamRoutes {
		out = append(out, rt.pattern)
	}
	return out
}

func match[H any](routes []route[H], path string) (H, map[string]string) {
	var zero H
	parts := strings.Split(path, "/")
	for _, rt := range routes {
		if len(rt.parts) != len(parts) {
			continue
		}
		params := map[string]string{}
		ok := true
		for i, p := range rt.parts {
			if strings.HasPrefix(p, "{") && strings.HasSuffix(p, "}") {
				v, err := url.PathUnescape(parts[i])
				if err != nil || v == "" {
					ok = false
					break
				}
				params[p[1:len(p)-1]] = v
				continue
			}
			if !strings.EqualFold(p, parts[i]) {
				ok = false
				break
			}
		}
		if ok {
			return rt.handler, params
		}
	}
	return zero, nil
}
