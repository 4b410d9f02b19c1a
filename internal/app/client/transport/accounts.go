package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"wordsync/internal/model"
)

// ErrRejected - сервер ответил Status: Error на запрос учетной записи.
var ErrRejected = errors.New("request rejected")

type credentials struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type accountResponse struct {
	Token  string `json:"token,omitempty"`
	UserID int    `json:"user_id,omitempty"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Session - результат успешного входа.
type Session struct {
	Token  string
	UserID int
}

// Register создает учетную запись и возвращает ее идентификатор.
func (c *Client) Register(ctx context.Context, login, password string) (int, error) {
	var resp accountResponse
	if err := c.post(ctx, registerPath, "", credentials{Login: login, Password: password}, &resp); err != nil {
		return 0, err
	}
	if resp.Status != model.StatusOk {
		return 0, fmt.Errorf("%w: %s", ErrRejected, resp.Error)
	}
	return resp.UserID, nil
}

// Login обменивает логин и пароль на токен сессии.
func (c *Client) Login(ctx context.Context, login, password string) (Session, error) {
	var resp accountResponse
	if err := c.post(ctx, loginPath, "", credentials{Login: login, Password: password}, &resp); err != nil {
		return Session{}, err
	}
	if resp.Status != model.StatusOk {
		return Session{}, fmt.Errorf("%w: %s", ErrRejected, resp.Error)
	}
	if resp.Token == "" {
		return Session{}, fmt.Errorf("%w: empty token", ErrMalformedResponse)
	}
	return Session{Token: resp.Token, UserID: resp.UserID}, nil
}

// Ping проверяет доступность сервера.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+healthPath, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s", ErrUnavailable, resp.Status)
	}
	return nil
}
