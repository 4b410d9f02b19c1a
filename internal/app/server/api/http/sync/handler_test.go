package sync

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"wordsync/internal/app/server/api/http/middleware/auth"
	"wordsync/internal/domain/sync"
	"wordsync/internal/model"
	"wordsync/internal/utils/logger"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Exchange(ctx context.Context, req model.ExchangeRequest) (*model.ExchangeResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ExchangeResponse), args.Error(1)
}

func TestHandler_Exchange(t *testing.T) {
	ctx := auth.WithUserID(context.Background(), 1)
	req := model.ExchangeRequest{Cursor: "c1", Changes: []model.Change{}}

	t.Run("Success", func(t *testing.T) {
		svc := new(MockService)
		want := &model.ExchangeResponse{
			Status:    model.StatusOk,
			Accepted:  []model.Ack{{ID: "a", ServerModifiedAt: 10}},
			NewCursor: "c2",
		}
		svc.On("Exchange", mock.Anything, req).Return(want, nil)

		out, err := NewHandler(svc, logger.Discard(), nil).exchange(ctx, &exchangeInput{Body: req})

		require.NoError(t, err)
		assert.Equal(t, *want, out.Body)
		svc.AssertExpectations(t)
	})

	t.Run("BadCursor", func(t *testing.T) {
		svc := new(MockService)
		svc.On("Exchange", mock.Anything, req).Return(nil, fmt.Errorf("%w: garbage", sync.ErrInvalidCursor))

		out, err := NewHandler(svc, logger.Discard(), nil).exchange(ctx, &exchangeInput{Body: req})

		require.NoError(t, err)
		assert.Equal(t, model.StatusError, out.Body.Status)
		assert.Contains(t, out.Body.Error, "invalid cursor")
	})

	t.Run("InternalErrorHidden", func(t *testing.T) {
		svc := new(MockService)
		svc.On("Exchange", mock.Anything, req).Return(nil, errors.New("pq: deadlock detected"))

		out, err := NewHandler(svc, logger.Discard(), nil).exchange(ctx, &exchangeInput{Body: req})

		require.NoError(t, err)
		assert.Equal(t, model.StatusError, out.Body.Status)
		assert.Equal(t, "internal error", out.Body.Error)
	})

	t.Run("NoUser", func(t *testing.T) {
		svc := new(MockService)
		svc.On("Exchange", mock.Anything, req).Return(nil, sync.ErrNoUser)

		out, err := NewHandler(svc, logger.Discard(), nil).exchange(context.Background(), &exchangeInput{Body: req})

		assert.Nil(t, out)
		var se huma.StatusError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, 401, se.GetStatus())
	})
}
