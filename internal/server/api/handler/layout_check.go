package handler

import (
	"encoding/json"
	"log/slog"

	"github.com/Alia5/vkbd/apitypes"
	"github.com/Alia5/vkbd/internal/server/api"
	"github.com/Alia5/vkbd/layout"
)

// LayoutCheck returns a handler that lints the registry.
func LayoutCheck(reg *layout.Registry) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		issues := reg.Check()
		payload := apitypes.LayoutCheckResponse{Issues: make([]apitypes.LayoutIssue, 0, len(issues))}
		for _, i := range issues {
			payload.Issues = append(payload.Issues, apitypes.LayoutIssue{Layout: i.Layout, Detail: i.Detail})
		}
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		res.JSON = string(b)
		return nil
	}
}
