package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Alia5/vkbd/apitypes"
	"github.com/Alia5/vkbd/deadkey"
	"github.com/Alia5/vkbd/internal/server/api"
	apierror "github.com/Alia5/vkbd/internal/server/api/error"
	"github.com/Alia5/vkbd/keyboard"
	"github.com/Alia5/vkbd/layout"
)

// Plan returns a handler that computes the key strokes typing a text.
func Plan(reg *layout.Registry, table deadkey.Table) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		if req.Payload == "" {
			return apierror.ErrBadRequest("missing payload")
		}
		var r apitypes.PlanRequest
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
		t := table
		if r.NoDeadKeys {
			t = nil
		}
		plan, err := keyboard.Plan(l, r.Text, t)
		if err != nil {
			return err
		}
		b, err := json.Marshal(apitypes.PlanResponse{Layout: r.Layout, Strokes: strokes(plan)})
		if err != nil {
			return apierror.ErrInternal(err.Error())
		}
		res.JSON = string(b)
		return nil
	}
}
