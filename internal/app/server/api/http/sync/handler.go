package sync

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"wordsync/internal/domain/sync"
	"wordsync/internal/model"
)

type Handler struct {
	service    sync.Servicer
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service sync.Servicer, log *slog.Logger, middleware huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		log:        log,
		middleware: middleware,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.exchangeOp(), h.exchange)
}

func (h *Handler) exchange(ctx context.Context, input *exchangeInput) (*exchangeOutput, error) {
	response, err := h.service.Exchange(ctx, input.Body)
	if err != nil {
		msg := err.Error()
		switch {
		case errors.Is(err, sync.ErrNoUser):
			return nil, huma.Error401Unauthorized("Unauthorized")
		case errors.Is(err, sync.ErrInvalidCursor), errors.Is(err, sync.ErrTooManyChanges):
			h.log.Info("exchange refused", "error", err)
		default:
			h.log.Error("exchange failed", "error", err)
			msg = "internal error"
		}

		return &exchangeOutput{
			Body: model.ExchangeResponse{
				Status: model.StatusError,
				Error:  msg,
			},
		}, nil
	}

	return &exchangeOutput{
		Body: *response,
	}, nil
}
