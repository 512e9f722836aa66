package handler

import (
	"encoding/json"
	"log/slog"

	"github.com/Alia5/vkbd/apitypes"
	"github.com/Alia5/vkbd/internal/server/api"
	"github.com/Alia5/vkbd/layout"
)

// LayoutList returns a handler that lists registered layouts sorted by name.
func LayoutList(reg *layout.Registry) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		all := reg.All()
		payload := apitypes.LayoutListResponse{Layouts: make([]apitypes.LayoutInfo, 0, len(all))}
		for _, name := range reg.Names() {
			l, ok := all[name]
			if !ok {
				continue
			}
			payload.Layouts = append(payload.Layouts, layoutInfo(name, l))
		}
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		res.JSON = string(b)
		return nil
	}
}
