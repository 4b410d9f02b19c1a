package user

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"wordsync/internal/domain/session"
	"wordsync/internal/domain/user"
	"wordsync/internal/model"
)

type Handler struct {
	service    user.Servicer
	session    session.Servicer
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service user.Servicer, session session.Servicer, log *slog.Logger, middleware huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		session:    session,
		log:        log,
		middleware: middleware,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.registerOp(), h.register)
	huma.Register(api, h.loginOp(), h.login)
}

func (h *Handler) register(ctx context.Context, input *registerInput) (*registerOutput, error) {
	userID, err := h.service.Register(ctx, input.Body.Login, input.Body.Password)
	if err != nil {
		msg := err.Error()
		if !errors.Is(err, user.ErrLoginTaken) && !errors.Is(err, user.ErrInvalidInput) {
			h.log.Error("register failed", "error", err)
			msg = "internal error"
		}
		return &registerOutput{
			Body: RegisterResponse{Status: model.StatusError, Error: msg},
		}, nil
	}

	return &registerOutput{
		Body: RegisterResponse{ID: userID, Status: model.StatusOk},
	}, nil
}

func (h *Handler) login(ctx context.Context, input *loginInput) (*loginOutput, error) {
	u, err := h.service.Authenticate(ctx, input.Body.Login, input.Body.Password)
	if err != nil {
		if !errors.Is(err, user.ErrInvalidAuth) {
			h.log.Error("authenticate failed", "error", err)
		}
		return &loginOutput{
			Body: LoginResponse{
				Status: model.StatusError,
				Error:  "Invalid credentials",
			},
		}, nil
	}

	token, err := h.session.Create(ctx, u.ID)
	if err != nil {
		h.log.Error("create session failed", "user_id", u.ID, "error", err)
		return &loginOutput{
			Body: LoginResponse{Status: model.StatusError, Error: "internal error"},
		}, nil
	}

	return &loginOutput{
		Body: LoginResponse{
			Token:  token,
			UserID: u.ID,
			Status: model.StatusOk,
		},
	}, nil
}
