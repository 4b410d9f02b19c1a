package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

type MockSession struct {
	mock.Mock
}

func (m *MockSession) Create(ctx context.Context, userID int) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *MockSession) Validate(ctx context.Context, token string) (int, error) {
	args := m.Called(ctx, token)
	return args.Int(0), args.Error(1)
}

type whoamiOutput struct {
	Body struct {
		UserID int `json:"user_id"`
	}
}

func setup(t *testing.T, sess *MockSession) humatest.TestAPI {
	_, api := humatest.New(t)
	mw := New(api, sess, slog.Default())

	huma.Register(api, huma.Operation{
		OperationID: "whoami",
		Method:      http.MethodGet,
		Path:        "/whoami",
		Middlewares: huma.Middlewares{mw.Middleware()},
	}, func(ctx context.Context, _ *struct{}) (*whoamiOutput, error) {
		out := &whoamiOutput{}
		out.Body.UserID, _ = GetUserID(ctx)
		return out, nil
	})

	return api
}

func TestAuth_Middleware(t *testing.T) {
	tests := []struct {
		name       string
		header     []any
		validate   bool
		validErr   error
		wantStatus int
	}{
		{name: "no header", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: []any{"Authorization: Basic abc"}, wantStatus: http.StatusUnauthorized},
		{name: "invalid token", header: []any{"Authorization: Bearer bad"}, validate: true, validErr: errors.New("expired"), wantStatus: http.StatusUnauthorized},
		{name: "valid token", header: []any{"Authorization: Bearer good"}, validate: true, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := new(MockSession)
			if tt.validate {
				token := "bad"
				if tt.validErr == nil {
					token = "good"
				}
				sess.On("Validate", mock.Anything, token).Return(42, tt.validErr)
			}
			api := setup(t, sess)

			resp := api.Get("/whoami", tt.header...)
			assert.Equal(t, tt.wantStatus, resp.Code)
			if tt.wantStatus == http.StatusOK {
				var body struct {
					UserID int `json:"user_id"`
				}
				require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
				assert.Equal(t, 42, body.UserID)
			}
			sess.AssertExpectations(t)
		})
	}
}

func TestGetUserID(t *testing.T) {
	_, ok := GetUserID(context.Background())
	assert.False(t, ok)

	id, ok := GetUserID(WithUserID(context.Background(), 9))
	assert.True(t, ok)
	assert.Equal(t, 9, id)
}
