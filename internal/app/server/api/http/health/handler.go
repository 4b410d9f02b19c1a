package health

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"wordsync/internal/utils/clock"
)

type Handler struct {
	log        *slog.Logger
	clock      clock.Clock
	middleware huma.Middlewares
}

func NewHandler(log *slog.Logger, clk clock.Clock, middleware huma.Middlewares) *Handler {
	if clk == nil {
		clk = clock.System{}
	}

	return &Handler{
		log:        log,
		clock:      clk,
		middleware: middleware,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.healthCheckOp(), h.healthCheck)
}

// healthCheck служит клиенту проверкой связи, поэтому не требует токена.
func (h *Handler) healthCheck(_ context.Context, _ *Input) (*Output, error) {
	h.log.Debug("health check request received")

	return &Output{
		Body: Response{
			Status: "OK",
			Time:   h.clock.NowMillis(),
		},
	}, nil
}
