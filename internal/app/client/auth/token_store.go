// Package auth хранит токен сессии клиента.
package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"wordsync/internal/utils/notify"
)

var ErrBadToken = errors.New("malformed session token")

// TokenStore - токен в файле каталога конфигурации. Подпись клиент не
// проверяет: срок действия и владельца он читает из claims, остальное решает
// сервер.
type TokenStore struct {
	path string
	now  func() time.Time

	mu     sync.RWMutex
	token  string
	claims jwt.RegisteredClaims

	listeners notify.Listeners[bool]
}

// NewTokenStore поднимает сохраненный токен, если он есть.
func NewTokenStore(path string) (*TokenStore, error) {
	s := &TokenStore{path: path, now: time.Now}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read token: %w", err)
	}

	token := strings.TrimSpace(string(raw))
	if token == "" {
		return s, nil
	}
	claims, err := parse(token)
	if err != nil {
		// испорченный файл равен отсутствию входа
		return s, nil
	}

	s.token = token
	s.claims = claims
	return s, nil
}

// Save сохраняет новый токен и оповещает подписчиков.
func (s *TokenStore) Save(token string) error {
	claims, err := parse(token)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(token), 0o600); err != nil {
		return fmt.Errorf("write token: %w", err)
	}

	s.mu.Lock()
	s.token = token
	s.claims = claims
	s.mu.Unlock()

	s.listeners.Notify(s.IsAuthenticated())
	return nil
}

// Clear забывает токен.
func (s *TokenStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove token: %w", err)
	}

	s.mu.Lock()
	s.token = ""
	s.claims = jwt.RegisteredClaims{}
	s.mu.Unlock()

	s.listeners.Notify(false)
	return nil
}

// Token возвращает токен, если он есть и не истек.
func (s *TokenStore) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.validLocked() {
		return "", false
	}
	return s.token, true
}

func (s *TokenStore) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.validLocked()
}

// Owner - владелец локальных данных. Истекший токен владельца не меняет.
func (s *TokenStore) Owner() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.claims.Subject
}

// Subscribe оповещает о входе и выходе.
func (s *TokenStore) Subscribe(fn func(authenticated bool)) func() {
	return s.listeners.Add(fn)
}

func (s *TokenStore) validLocked() bool {
	if s.token == "" {
		return false
	}
	if exp := s.claims.ExpiresAt; exp != nil && !s.now().Before(exp.Time) {
		return false
	}
	return true
}

func parse(token string) (jwt.RegisteredClaims, error) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return claims, fmt.Errorf("%w: %v", ErrBadToken, err)
	}
	if claims.Subject == "" {
		return claims, fmt.Errorf("%w: no subject", ErrBadToken)
	}
	return claims, nil
}
