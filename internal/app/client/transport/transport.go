package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/exp/slog"

	"wordsync/internal/model"
)

var (
	ErrUnauthorized      = errors.New("unauthorized")
	ErrUnavailable       = errors.New("server unavailable")
	ErrServer            = errors.New("server error")
	ErrMalformedResponse = errors.New("malformed server response")
)

const (
	DefaultBatchSize = 200
	DefaultPageLimit = 200
	DefaultTimeout   = 15 * time.Second

	maxBatchSize = 500
	// maxRoundTrips ограничивает число страниц за один обмен.
	maxRoundTrips = 1000

	syncPath     = "/api/v1/sync"
	registerPath = "/api/v1/user/register"
	loginPath    = "/api/v1/user/login"
	healthPath   = "/api/v1/health"
)

// Credentials отдает токен для заголовка Authorization.
type Credentials interface {
	Token() (string, bool)
}

type Config struct {
	BaseURL   string
	Timeout   time.Duration
	BatchSize int
	PageLimit int
}

// Client - HTTP-клиент сервера синхронизации.
type Client struct {
	baseURL   string
	http      *http.Client
	creds     Credentials
	batchSize int
	pageLimit int
	log       *slog.Logger
}

func New(cfg Config, creds Credentials, log *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.BatchSize > maxBatchSize {
		cfg.BatchSize = maxBatchSize
	}
	if cfg.PageLimit <= 0 {
		cfg.PageLimit = DefaultPageLimit
	}

	return &Client{
		baseURL:   cfg.BaseURL,
		http:      &http.Client{Timeout: cfg.Timeout},
		creds:     creds,
		batchSize: cfg.BatchSize,
		pageLimit: cfg.PageLimit,
		log:       log.With(slog.String("component", "transport")),
	}
}

// Exchange отправляет изменения пачками и забирает все страницы серверных
// изменений, начиная с cursor. Результат возвращается только целиком и
// после проверки; промежуточный курсор живет лишь в памяти.
func (c *Client) Exchange(ctx context.Context, cursor string, changes []model.Change) (*model.ExchangeResult, error) {
	if c.creds == nil {
		return nil, ErrUnauthorized
	}
	token, ok := c.creds.Token()
	if !ok {
		return nil, ErrUnauthorized
	}

	batches := split(changes, c.batchSize)
	result := &model.ExchangeResult{NewCursor: cursor}
	current := cursor
	next := 0

	for {
		batch := []model.Change{}
		if next < len(batches) {
			batch = batches[next]
			next++
		}

		var resp model.ExchangeResponse
		req := model.ExchangeRequest{Cursor: current, Limit: c.pageLimit, Changes: batch}
		if err := c.post(ctx, syncPath, token, req, &resp); err != nil {
			return nil, err
		}
		if resp.Status != model.StatusOk {
			return nil, fmt.Errorf("%w: %s", ErrServer, resp.Error)
		}

		result.RoundTrips++
		result.Acks = append(result.Acks, resp.Accepted...)
		result.Superseded = append(result.Superseded, resp.Superseded...)
		result.Rejected = append(result.Rejected, resp.Rejected...)
		result.ServerChanges = append(result.ServerChanges, resp.ServerChanges...)
		current = resp.NewCursor

		if current == "" {
			return nil, fmt.Errorf("%w: empty cursor", ErrMalformedResponse)
		}
		if next >= len(batches) && !resp.HasMore {
			break
		}
		if result.RoundTrips >= maxRoundTrips {
			return nil, fmt.Errorf("%w: more than %d pages", ErrMalformedResponse, maxRoundTrips)
		}
	}

	result.NewCursor = current
	if err := Validate(result, changes); err != nil {
		return nil, err
	}

	c.log.Debug("exchange complete",
		"sent", len(changes),
		"round_trips", result.RoundTrips,
		"accepted", len(result.Acks),
		"server_changes", len(result.ServerChanges),
	)
	return result, nil
}

// Validate проверяет собранный результат обмена на внутреннюю согласованность.
func Validate(result *model.ExchangeResult, sent []model.Change) error {
	if result.NewCursor == "" {
		return fmt.Errorf("%w: missing cursor", ErrMalformedResponse)
	}

	sentAt := make(map[string]int64, len(sent))
	for _, ch := range sent {
		sentAt[ch.ID] = ch.ClientModifiedAt
	}

	answered := make(map[string]struct{}, len(sent))
	answer := func(id, what string) error {
		if _, ok := sentAt[id]; !ok {
			return fmt.Errorf("%w: %s for unsent record %q", ErrMalformedResponse, what, id)
		}
		if _, dup := answered[id]; dup {
			return fmt.Errorf("%w: record %q answered twice", ErrMalformedResponse, id)
		}
		answered[id] = struct{}{}
		return nil
	}

	for _, a := range result.Acks {
		if err := answer(a.ID, "ack"); err != nil {
			return err
		}
		if a.ServerModifiedAt <= 0 {
			return fmt.Errorf("%w: ack %q without server timestamp", ErrMalformedResponse, a.ID)
		}
		if a.ServerModifiedAt < sentAt[a.ID] {
			return fmt.Errorf("%w: ack %q at %d is older than the change (%d)",
				ErrMalformedResponse, a.ID, a.ServerModifiedAt, sentAt[a.ID])
		}
	}
	for _, s := range result.Superseded {
		if err := answer(s.ID, "supersession"); err != nil {
			return err
		}
	}
	for _, r := range result.Rejected {
		if err := answer(r.ID, "rejection"); err != nil {
			return err
		}
	}

	pulled := make(map[string]struct{}, len(result.ServerChanges))
	for _, rec := range result.ServerChanges {
		if err := rec.Check(); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		pulled[rec.ID] = struct{}{}
	}

	for _, s := range result.Superseded {
		if _, ok := pulled[s.WinnerID]; !ok {
			return fmt.Errorf("%w: winner %q of %q not delivered", ErrMalformedResponse, s.WinnerID, s.ID)
		}
	}

	return nil
}

func split(changes []model.Change, size int) [][]model.Change {
	var out [][]model.Change
	for start := 0; start < len(changes); start += size {
		end := start + size
		if end > len(changes) {
			end = len(changes)
		}
		out = append(out, changes[start:end])
	}
	return out
}

func (c *Client) post(ctx context.Context, path, token string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s: %s", ErrServer, resp.Status, bytes.TrimSpace(msg))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}
