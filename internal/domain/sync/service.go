package sync

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"

	"wordsync/internal/app/server/api/http/middleware/auth"
	"wordsync/internal/domain/conflict"
	"wordsync/internal/model"
	"wordsync/internal/utils/clock"
)

// Servicer интерфейс сервиса синхронизации
type Servicer interface {
	// Exchange принимает локальные изменения клиента и отдает страницу
	// серверных изменений после курсора.
	Exchange(ctx context.Context, req model.ExchangeRequest) (*model.ExchangeResponse, error)
}

// Service реализация сервиса синхронизации
type Service struct {
	repo   Repository
	log    *slog.Logger
	config *ServiceConfig
	clock  clock.Clock
}

// NewService создает новый сервис синхронизации
func NewService(repo Repository, log *slog.Logger, config *ServiceConfig, clk clock.Clock) *Service {
	if config == nil {
		config = DefaultServiceConfig()
	}
	if clk == nil {
		clk = clock.System{}
	}

	return &Service{
		repo:   repo,
		log:    log.With(slog.String("component", "sync_service")),
		config: config,
		clock:  clk,
	}
}

// outcome - решение по одному изменению.
type outcome struct {
	ack        *model.Ack
	superseded *model.Supersession
}

func (s *Service) Exchange(ctx context.Context, req model.ExchangeRequest) (*model.ExchangeResponse, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, ErrNoUser
	}

	afterSeq, err := DecodeCursor(req.Cursor)
	if err != nil {
		return nil, err
	}

	if len(req.Changes) > s.config.MaxChanges {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyChanges, len(req.Changes), s.config.MaxChanges)
	}

	resp := &model.ExchangeResponse{Status: model.StatusOk}
	winners := make([]string, 0)

	for _, ch := range req.Changes {
		res, err := s.applyChange(ctx, userID, ch)
		if err != nil {
			var rej *RejectError
			if errors.As(err, &rej) {
				s.log.Info("change rejected", "user_id", userID, "record_id", rej.ID, "code", rej.Code, "reason", rej.Message)
				resp.Rejected = append(resp.Rejected, model.Rejection{ID: rej.ID, Code: rej.Code, Message: rej.Message})
				continue
			}
			return nil, fmt.Errorf("apply change %s: %w", ch.ID, err)
		}

		switch {
		case res.ack != nil:
			resp.Accepted = append(resp.Accepted, *res.ack)
		case res.superseded != nil:
			resp.Superseded = append(resp.Superseded, *res.superseded)
			// При коллизии ключа клиенту нужна и серверная копия проигравшей записи.
			winners = append(winners, res.superseded.WinnerID, res.superseded.ID)
		}
	}

	limit := s.pageLimit(req.Limit)
	page, err := s.repo.ChangesSince(ctx, userID, afterSeq, limit+1)
	if err != nil {
		return nil, fmt.Errorf("changes since %d: %w", afterSeq, err)
	}

	if len(page) > limit {
		page = page[:limit]
		resp.HasMore = true
	}

	resp.NewCursor = EncodeCursor(afterSeq)
	if len(page) > 0 {
		resp.NewCursor = EncodeCursor(page[len(page)-1].Seq)
	}

	included := make(map[string]struct{}, len(page))
	resp.ServerChanges = make([]model.ServerRecord, 0, len(page)+len(winners))
	for _, rec := range page {
		included[rec.ID] = struct{}{}
		resp.ServerChanges = append(resp.ServerChanges, rec.ToServerRecord())
	}

	// Победители конфликтов отдаются всегда, даже если они старше курсора.
	missing := make([]string, 0, len(winners))
	for _, id := range winners {
		if _, ok := included[id]; !ok {
			included[id] = struct{}{}
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		extra, err := s.repo.GetMany(ctx, userID, missing)
		if err != nil {
			return nil, fmt.Errorf("load conflict winners: %w", err)
		}
		for _, rec := range extra {
			resp.ServerChanges = append(resp.ServerChanges, rec.ToServerRecord())
		}
	}

	s.log.Debug("exchange done",
		"user_id", userID,
		"changes", len(req.Changes),
		"accepted", len(resp.Accepted),
		"superseded", len(resp.Superseded),
		"rejected", len(resp.Rejected),
		"server_changes", len(resp.ServerChanges),
		"has_more", resp.HasMore,
	)

	return resp, nil
}

func (s *Service) pageLimit(requested int) int {
	switch {
	case requested <= 0:
		return s.config.PageLimit
	case requested > s.config.MaxPageLimit:
		return s.config.MaxPageLimit
	default:
		return requested
	}
}

// applyChange обрабатывает одно изменение в собственной транзакции.
func (s *Service) applyChange(ctx context.Context, userID int, ch model.Change) (outcome, error) {
	naturalKey, err := s.validateChange(ch)
	if err != nil {
		return outcome{}, err
	}

	var res outcome
	err = s.repo.InTx(ctx, func(tx Repository) error {
		existing, err := tx.GetForUpdate(ctx, ch.ID)
		if err != nil && !errors.Is(err, ErrRecordNotFound) {
			return err
		}
		if errors.Is(err, ErrRecordNotFound) {
			existing = nil
		}

		if existing != nil {
			if existing.OwnerID != userID {
				return reject(ch.ID, model.RejectForbidden, "record belongs to another account")
			}
			if ch.Deleted && naturalKey == "" {
				naturalKey = existing.NaturalKey
			}

			// Сервер менялся с тех пор, как клиент видел запись.
			if existing.ServerModifiedAt != ch.BaseServerModifiedAt {
				side := conflict.Resolve(
					conflict.Version{ID: ch.ID, ModifiedAt: ch.ClientModifiedAt, Deleted: ch.Deleted},
					conflict.Version{ID: existing.ID, ModifiedAt: existing.ServerModifiedAt, Deleted: existing.Deleted},
				)
				if side == conflict.Remote {
					res.superseded = &model.Supersession{ID: ch.ID, WinnerID: existing.ID}
					return nil
				}
			}
		}

		if !ch.Deleted {
			collision, err := tx.FindLiveForUpdate(ctx, userID, ch.Kind, naturalKey)
			if err != nil && !errors.Is(err, ErrRecordNotFound) {
				return err
			}
			if err == nil && collision.ID != ch.ID {
				side := conflict.Resolve(
					conflict.Version{ID: ch.ID, ModifiedAt: ch.ClientModifiedAt},
					conflict.Version{ID: collision.ID, ModifiedAt: collision.ServerModifiedAt},
				)
				if side == conflict.Remote {
					res.superseded = &model.Supersession{ID: ch.ID, WinnerID: collision.ID}
					return nil
				}

				collision.Deleted = true
				collision.ServerModifiedAt = s.stamp(collision.ClientModifiedAt, collision.ServerModifiedAt)
				if err := tx.Save(ctx, collision); err != nil {
					return fmt.Errorf("tombstone %s: %w", collision.ID, err)
				}
			}
		}

		rec := &StoredRecord{
			ID:               ch.ID,
			OwnerID:          userID,
			Kind:             ch.Kind,
			NaturalKey:       naturalKey,
			Payload:          ch.Payload,
			Deleted:          ch.Deleted,
			ClientModifiedAt: ch.ClientModifiedAt,
		}
		var prev int64
		if existing != nil {
			prev = existing.ServerModifiedAt
			if len(rec.Payload) == 0 {
				rec.Payload = existing.Payload
			}
		}
		rec.ServerModifiedAt = s.stamp(ch.ClientModifiedAt, prev)

		if err := tx.Save(ctx, rec); err != nil {
			return fmt.Errorf("save %s: %w", rec.ID, err)
		}

		res.ack = &model.Ack{ID: rec.ID, ServerModifiedAt: rec.ServerModifiedAt}
		return nil
	})

	return res, err
}

// stamp выдает serverModifiedAt: не раньше текущего времени, не раньше
// отметки клиента и строго позже предыдущей серверной версии.
func (s *Service) stamp(clientModifiedAt, previous int64) int64 {
	ts := s.clock.NowMillis()
	if clientModifiedAt > ts {
		ts = clientModifiedAt
	}
	if previous >= ts {
		ts = previous + 1
	}
	return ts
}

// validateChange проверяет изменение и возвращает естественный ключ,
// вычисленный сервером.
func (s *Service) validateChange(ch model.Change) (string, error) {
	if _, err := uuid.Parse(ch.ID); err != nil {
		return "", reject(ch.ID, model.RejectInvalid, "id must be a UUID")
	}
	if err := ch.Kind.Validate(); err != nil {
		return "", reject(ch.ID, model.RejectInvalid, "%v", err)
	}
	if ch.ClientModifiedAt <= 0 {
		return "", reject(ch.ID, model.RejectInvalid, "client_modified_at must be positive")
	}

	if ch.Deleted {
		return ch.NaturalKey, nil
	}

	key, err := model.NaturalKey(ch.Kind, ch.Payload)
	if err != nil {
		return "", reject(ch.ID, model.RejectInvalid, "%v", err)
	}

	return key, nil
}
