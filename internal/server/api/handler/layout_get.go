package handler

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/Alia5/vkbd/internal/server/api"
	apierror "github.com/Alia5/vkbd/internal/server/api/error"
	"github.com/Alia5/vkbd/layout"
)

// LayoutGet returns a handler that answers with one full layout. The name is
// taken from the {name} route parameter, else from the payload.
func LayoutGet(reg *layout.Registry) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		name, ok := req.Params["name"]
		if !ok {
			name = strings.TrimSpace(req.Payload)
		}
		if name == "" {
			return apierror.ErrBadRequest("missing layout name")
		}
		l, err := reg.Get(name)
		if err != nil {
			return err
		}
		b, err := json.Marshal(layoutBody(name, l))
		if err != nil {
			return apierror.ErrInternal(err.Error())
		}
		res.JSON = string(b)
		return nil
	}
}

// LayoutLocale returns a handler that picks the layout for a BCP 47 tag.
func LayoutLocale(reg *layout.Registry) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		tag, ok := req.Params["tag"]
		if !ok {
			tag = strings.TrimSpace(req.Payload)
		}
		if tag == "" {
			return apierror.ErrBadRequest("missing locale")
		}
		name, l, err := reg.ForLocale(tag)
		if err != nil {
			return err
		}
		logger.Debug("locale matched", "tag", tag, "layout", name)
		b, err := json.Marshal(layoutBody(name, l))
		if err != nil {
			return apierror.ErrInternal(err.Error())
		}
		res.JSON = string(b)
		return nil
	}
}
