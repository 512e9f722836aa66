package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Alia5/vkbd/apitypes"
	"github.com/Alia5/vkbd/internal/server/api"
	apierror "github.com/Alia5/vkbd/internal/server/api/error"
	"github.com/Alia5/vkbd/keyboard"
	"github.com/Alia5/vkbd/layout"
)

// Resolve returns a handler that resolves one key slot under the given
// modifiers. Blank results are not errors.
func Resolve(reg *layout.Registry) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		if req.Payload == "" {
			return apierror.ErrBadRequest("missing payload")
		}
		var r apitypes.ResolveRequest
		if err := json.Unmarshal([]byte(req.Payload), &r); err != nil {
			return apierror.ErrBadRequest(fmt.Sprintf("invalid JSON payload: %v", err))
		}
		if r.Layout == "" {
			return apierror.ErrBadRequest("missing layout")
		}
		l, err := reg.Get(r.Layout)
		if err != nil {
			return err
		}
		slot, err := l.Slot(r.Row, r.Col)
		if err != nil {
			return err
		}

		key := keyboard.Resolve(slot, r.Shift, r.AltGr)
		out := apitypes.ResolveResponse{Blank: key.IsBlank()}
		if !key.IsBlank() {
			out.Key = key.String()
			out.Label = key.Label()
			out.Function = key.IsFunction()
		}
		b, err := json.Marshal(out)
		if err != nil {
			return apierror.ErrInternal(err.Error())
		}
		res.JSON = string(b)
		return nil
	}
}
