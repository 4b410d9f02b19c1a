package sync_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"wordsync/internal/app/server/api/http/middleware/auth"
	domainsync "wordsync/internal/domain/sync"
	"wordsync/internal/domain/sync/synctest"
	"wordsync/internal/model"
	"wordsync/internal/utils/clock"
)

const (
	userID = 7
	idA1   = "0b7e1c34-7d0a-4bde-9c55-4b1f0e5c0a01"
	idB2   = "f3a2c9d8-1111-4c2e-8f00-0000000000b2"
	idC3   = "1d9a0c11-2222-4c2e-8f00-0000000000c3"
)

func userCtx() context.Context {
	return auth.WithUserID(context.Background(), userID)
}

func familiar(word string) json.RawMessage {
	return json.RawMessage(`{"dict":"cet4","word":"` + word + `","familiar":true}`)
}

func newService(repo domainsync.Repository, now int64) (*domainsync.Service, *clock.Manual) {
	clk := clock.NewManual(now)
	return domainsync.NewService(repo, slog.Default(), nil, clk), clk
}

func TestService_Exchange_NoUser(t *testing.T) {
	service, _ := newService(synctest.NewMemoryRepository(), 1000)

	_, err := service.Exchange(context.Background(), model.ExchangeRequest{})
	assert.ErrorIs(t, err, domainsync.ErrNoUser)
}

func TestService_Exchange_InvalidCursor(t *testing.T) {
	service, _ := newService(synctest.NewMemoryRepository(), 1000)

	_, err := service.Exchange(userCtx(), model.ExchangeRequest{Cursor: "%%%"})
	assert.ErrorIs(t, err, domainsync.ErrInvalidCursor)
}

func TestService_Exchange_AcceptsNewRecord(t *testing.T) {
	repo := synctest.NewMemoryRepository()
	service, _ := newService(repo, 1000)

	resp, err := service.Exchange(userCtx(), model.ExchangeRequest{
		Changes: []model.Change{{ID: idA1, Kind: model.KindFamiliarWord, Payload: familiar("apple"), ClientModifiedAt: 900}},
	})
	require.NoError(t, err)

	require.Len(t, resp.Accepted, 1)
	assert.Equal(t, idA1, resp.Accepted[0].ID)
	assert.Equal(t, int64(1000), resp.Accepted[0].ServerModifiedAt)

	require.Len(t, resp.ServerChanges, 1)
	assert.Equal(t, "cet4/apple", resp.ServerChanges[0].NaturalKey)
	assert.NotEmpty(t, resp.NewCursor)
	assert.False(t, resp.HasMore)
}

// Сквозной сценарий: локальная правка в 100 побеждает серверную версию в 50.
func TestService_Exchange_LocalNewerWins(t *testing.T) {
	repo := synctest.NewMemoryRepository()
	repo.Seed(domainsync.StoredRecord{
		ID: idA1, OwnerID: userID, Kind: model.KindFamiliarWord, NaturalKey: "cet4/y",
		Payload: familiar("y"), ClientModifiedAt: 40, ServerModifiedAt: 50,
	})
	service, _ := newService(repo, 60)

	resp, err := service.Exchange(userCtx(), model.ExchangeRequest{
		Changes: []model.Change{{
			ID: idA1, Kind: model.KindFamiliarWord, Payload: familiar("x"),
			ClientModifiedAt: 100, BaseServerModifiedAt: 30,
		}},
	})
	require.NoError(t, err)
	require.Len(t, resp.Accepted, 1)
	assert.GreaterOrEqual(t, resp.Accepted[0].ServerModifiedAt, int64(100))

	stored, ok := repo.Record(idA1)
	require.True(t, ok)
	assert.JSONEq(t, string(familiar("x")), string(stored.Payload))
	assert.Equal(t, "cet4/x", stored.NaturalKey)
}

func TestService_Exchange_RemoteNewerSupersedes(t *testing.T) {
	repo := synctest.NewMemoryRepository()
	repo.Seed(domainsync.StoredRecord{
		ID: idA1, OwnerID: userID, Kind: model.KindFamiliarWord, NaturalKey: "cet4/apple",
		Payload: familiar("apple"), ClientModifiedAt: 190, ServerModifiedAt: 200,
	})
	service, _ := newService(repo, 300)
	// Клиент видел курсор уже после этой записи.
	cursor := domainsync.EncodeCursor(1)

	resp, err := service.Exchange(userCtx(), model.ExchangeRequest{
		Cursor: cursor,
		Changes: []model.Change{{
			ID: idA1, Kind: model.KindFamiliarWord, Payload: familiar("apple"),
			ClientModifiedAt: 150, BaseServerModifiedAt: 120,
		}},
	})
	require.NoError(t, err)

	assert.Empty(t, resp.Accepted)
	require.Len(t, resp.Superseded, 1)
	assert.Equal(t, idA1, resp.Superseded[0].WinnerID)
	require.Len(t, resp.ServerChanges, 1, "winner is returned even behind the cursor")
	assert.Equal(t, int64(200), resp.ServerChanges[0].ServerModifiedAt)
	assert.Equal(t, cursor, resp.NewCursor)
}

func TestService_Exchange_UnchangedRemoteAcceptsEvenWithOlderClock(t *testing.T) {
	repo := synctest.NewMemoryRepository()
	repo.Seed(domainsync.StoredRecord{
		ID: idA1, OwnerID: userID, Kind: model.KindFamiliarWord, NaturalKey: "cet4/apple",
		Payload: familiar("apple"), ClientModifiedAt: 190, ServerModifiedAt: 200,
	})
	service, _ := newService(repo, 150)

	resp, err := service.Exchange(userCtx(), model.ExchangeRequest{
		Changes: []model.Change{{
			ID: idA1, Kind: model.KindFamiliarWord, Payload: familiar("apple"), Deleted: true,
			ClientModifiedAt: 180, BaseServerModifiedAt: 200,
		}},
	})
	require.NoError(t, err)
	require.Len(t, resp.Accepted, 1)
	assert.Equal(t, int64(201), resp.Accepted[0].ServerModifiedAt)

	stored, _ := repo.Record(idA1)
	assert.True(t, stored.Deleted)
}

func TestService_Exchange_DeleteLosesToNewerEdit(t *testing.T) {
	repo := synctest.NewMemoryRepository()
	repo.Seed(domainsync.StoredRecord{
		ID: idA1, OwnerID: userID, Kind: model.KindFamiliarWord, NaturalKey: "cet4/apple",
		Payload: familiar("apple"), ClientModifiedAt: 250, ServerModifiedAt: 260,
	})
	service, _ := newService(repo, 300)

	resp, err := service.Exchange(userCtx(), model.ExchangeRequest{
		Changes: []model.Change{{
			ID: idA1, Kind: model.KindFamiliarWord, Deleted: true,
			ClientModifiedAt: 200, BaseServerModifiedAt: 100,
		}},
	})
	require.NoError(t, err)
	require.Len(t, resp.Superseded, 1)

	stored, _ := repo.Record(idA1)
	assert.False(t, stored.Deleted)
}

func TestService_Exchange_NaturalKeyCollision(t *testing.T) {
	tests := []struct {
		name         string
		clientTime   int64
		wantWinner   string
		wantAccepted bool
	}{
		{name: "local newer replaces existing", clientTime: 500, wantWinner: idB2, wantAccepted: true},
		{name: "existing newer keeps its id", clientTime: 100, wantWinner: idA1},
		{name: "tie goes to larger id", clientTime: 300, wantWinner: idB2, wantAccepted: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := synctest.NewMemoryRepository()
			repo.Seed(domainsync.StoredRecord{
				ID: idA1, OwnerID: userID, Kind: model.KindFamiliarWord, NaturalKey: "cet4/apple",
				Payload: familiar("apple"), ClientModifiedAt: 290, ServerModifiedAt: 300,
			})
			service, _ := newService(repo, 400)

			resp, err := service.Exchange(userCtx(), model.ExchangeRequest{
				Changes: []model.Change{{ID: idB2, Kind: model.KindFamiliarWord, Payload: familiar("Apple"), ClientModifiedAt: tt.clientTime}},
			})
			require.NoError(t, err)

			live := repo.Live(userID, model.KindFamiliarWord, "cet4/apple")
			require.Len(t, live, 1)
			assert.Equal(t, tt.wantWinner, live[0].ID)

			if tt.wantAccepted {
				require.Len(t, resp.Accepted, 1)
				old, _ := repo.Record(idA1)
				assert.True(t, old.Deleted)
			} else {
				require.Len(t, resp.Superseded, 1)
				assert.Equal(t, idA1, resp.Superseded[0].WinnerID)
				_, stored := repo.Record(idB2)
				assert.False(t, stored)
			}
		})
	}
}

func TestService_Exchange_RejectsInvalidChangesIndividually(t *testing.T) {
	repo := synctest.NewMemoryRepository()
	repo.Seed(domainsync.StoredRecord{
		ID: idC3, OwnerID: userID + 1, Kind: model.KindFamiliarWord, NaturalKey: "cet4/pear",
		Payload: familiar("pear"), ClientModifiedAt: 10, ServerModifiedAt: 20,
	})
	service, _ := newService(repo, 1000)

	resp, err := service.Exchange(userCtx(), model.ExchangeRequest{
		Changes: []model.Change{
			{ID: "not-a-uuid", Kind: model.KindFamiliarWord, Payload: familiar("a"), ClientModifiedAt: 1},
			{ID: idA1, Kind: model.Kind("chapter"), Payload: familiar("a"), ClientModifiedAt: 1},
			{ID: idB2, Kind: model.KindFamiliarWord, Payload: json.RawMessage(`{"dict":"cet4"}`), ClientModifiedAt: 1},
			{ID: idC3, Kind: model.KindFamiliarWord, Payload: familiar("pear"), ClientModifiedAt: 30},
			{ID: "5a0c7a64-3333-4c2e-8f00-0000000000d4", Kind: model.KindFamiliarWord, Payload: familiar("kiwi"), ClientModifiedAt: 5},
		},
	})
	require.NoError(t, err)

	require.Len(t, resp.Rejected, 4)
	assert.Equal(t, model.RejectInvalid, resp.Rejected[0].Code)
	assert.Equal(t, model.RejectForbidden, resp.Rejected[3].Code)
	require.Len(t, resp.Accepted, 1)

	other, _ := repo.Record(idC3)
	assert.Equal(t, userID+1, other.OwnerID)
}

func TestService_Exchange_Pagination(t *testing.T) {
	repo := synctest.NewMemoryRepository()
	for i, id := range []string{idA1, idB2, idC3} {
		repo.Seed(domainsync.StoredRecord{
			ID: id, OwnerID: userID, Kind: model.KindFamiliarWord, NaturalKey: string(rune('a' + i)),
			Payload: familiar(string(rune('a' + i))), ClientModifiedAt: 10, ServerModifiedAt: 20,
		})
	}
	service, _ := newService(repo, 1000)

	first, err := service.Exchange(userCtx(), model.ExchangeRequest{Limit: 2, Changes: []model.Change{}})
	require.NoError(t, err)
	assert.True(t, first.HasMore)
	assert.Len(t, first.ServerChanges, 2)

	second, err := service.Exchange(userCtx(), model.ExchangeRequest{Cursor: first.NewCursor, Limit: 2, Changes: []model.Change{}})
	require.NoError(t, err)
	assert.False(t, second.HasMore)
	require.Len(t, second.ServerChanges, 1)
	assert.Equal(t, idC3, second.ServerChanges[0].ID)

	// Повтор с последним курсором ничего не меняет.
	third, err := service.Exchange(userCtx(), model.ExchangeRequest{Cursor: second.NewCursor, Changes: []model.Change{}})
	require.NoError(t, err)
	assert.Empty(t, third.ServerChanges)
	assert.Equal(t, second.NewCursor, third.NewCursor)
}

func TestService_Exchange_TooManyChanges(t *testing.T) {
	clk := clock.NewManual(1)
	service := domainsync.NewService(synctest.NewMemoryRepository(), slog.Default(), &domainsync.ServiceConfig{
		PageLimit: 10, MaxPageLimit: 10, MaxChanges: 1,
	}, clk)

	_, err := service.Exchange(userCtx(), model.ExchangeRequest{Changes: make([]model.Change, 2)})
	assert.ErrorIs(t, err, domainsync.ErrTooManyChanges)
}

// MockRepository нужен для путей с ошибками хранилища.
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) InTx(ctx context.Context, fn func(tx domainsync.Repository) error) error {
	return fn(m)
}

func (m *MockRepository) GetForUpdate(ctx context.Context, id string) (*domainsync.StoredRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domainsync.StoredRecord), args.Error(1)
}

func (m *MockRepository) FindLiveForUpdate(ctx context.Context, ownerID int, kind model.Kind, naturalKey string) (*domainsync.StoredRecord, error) {
	args := m.Called(ctx, ownerID, kind, naturalKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domainsync.StoredRecord), args.Error(1)
}

func (m *MockRepository) Save(ctx context.Context, rec *domainsync.StoredRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockRepository) ChangesSince(ctx context.Context, ownerID int, afterSeq int64, limit int) ([]domainsync.StoredRecord, error) {
	args := m.Called(ctx, ownerID, afterSeq, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domainsync.StoredRecord), args.Error(1)
}

func (m *MockRepository) GetMany(ctx context.Context, ownerID int, ids []string) ([]domainsync.StoredRecord, error) {
	args := m.Called(ctx, ownerID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domainsync.StoredRecord), args.Error(1)
}

func TestService_Exchange_StorageErrors(t *testing.T) {
	t.Run("lookup fails", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetForUpdate", mock.Anything, idA1).Return(nil, errors.New("connection reset"))
		service, _ := newService(repo, 1000)

		_, err := service.Exchange(userCtx(), model.ExchangeRequest{
			Changes: []model.Change{{ID: idA1, Kind: model.KindFamiliarWord, Payload: familiar("apple"), ClientModifiedAt: 5}},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection reset")
		repo.AssertNotCalled(t, "ChangesSince", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("pull fails", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("ChangesSince", mock.Anything, userID, int64(0), 201).Return(nil, errors.New("timeout"))
		service, _ := newService(repo, 1000)

		_, err := service.Exchange(userCtx(), model.ExchangeRequest{Changes: []model.Change{}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "timeout")
		repo.AssertExpectations(t)
	})
}

func TestCursor_RoundTrip(t *testing.T) {
	seq, err := domainsync.DecodeCursor(domainsync.EncodeCursor(42))
	require.NoError(t, err)
	assert.Equal(t, int64(42), seq)

	seq, err = domainsync.DecodeCursor("")
	require.NoError(t, err)
	assert.Zero(t, seq)

	_, err = domainsync.DecodeCursor("bm90LWEtY3Vyc29y")
	assert.ErrorIs(t, err, domainsync.ErrInvalidCursor)
}
