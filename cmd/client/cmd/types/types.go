package types

import (
	"errors"

	"github.com/spf13/cobra"

	"wordsync/internal/app/client"
)

type contextKey string

// ClientAppKey - ключ, под которым root кладет *client.App в контекст команды.
const ClientAppKey contextKey = "app"

var ErrNoApp = errors.New("приложение не инициализировано")

// App достает клиент из контекста команды.
func App(cmd *cobra.Command) (*client.App, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, ErrNoApp
	}
	app, ok := ctx.Value(ClientAppKey).(*client.App)
	if !ok || app == nil {
		return nil, ErrNoApp
	}
	return app, nil
}
