package watch

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"wordsync/cmd/client/cmd/output"
	"wordsync/cmd/client/cmd/types"
	"wordsync/internal/app/client/engine"
)

var syncNow bool

var WatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Синхронизировать в фоне",
	Long: `Держит клиент запущенным: синхронизирует при старте, по таймеру и при
восстановлении связи с сервером. Завершается по Ctrl+C.

С --now первый цикл запускается сразу, даже если локальных изменений нет.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		format := output.FromCmd(cmd)
		unsubscribe := app.Subscribe(func(e engine.Event) {
			if format == output.Text {
				_ = output.Event(os.Stdout, e)
				return
			}
			if e.Result != nil {
				_ = output.Write(os.Stdout, format, e.Result, nil)
			}
		})
		defer unsubscribe()

		fmt.Println("Фоновая синхронизация запущена, Ctrl+C для выхода")
		if syncNow {
			// итог печатает подписчик
			_ = app.TriggerSync(cmd.Context())
		}
		if err := app.Run(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	WatchCmd.Flags().BoolVar(&syncNow, "now", false, "сразу запустить цикл синхронизации")
}
