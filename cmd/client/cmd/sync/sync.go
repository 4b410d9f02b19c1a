package sync

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"wordsync/cmd/client/cmd/output"
	"wordsync/cmd/client/cmd/types"
)

var syncStatus bool

var SyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Синхронизировать с сервером",
	Long: `Один цикл синхронизации: отправка локальных изменений и получение
изменений с других устройств.

С флагом --status показывает состояние без обмена с сервером: вход,
доступность сервера, число неотправленных изменений и итог последнего цикла.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}
		format := output.FromCmd(cmd)

		if syncStatus {
			st, err := app.Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("ошибка получения статуса: %w", err)
			}
			return output.Write(os.Stdout, format, st, func(w io.Writer) error {
				return output.Status(w, st)
			})
		}

		res := app.Sync(cmd.Context())
		if err := output.Write(os.Stdout, format, res, func(w io.Writer) error {
			return output.Result(w, res)
		}); err != nil {
			return err
		}
		if !res.Success && res.Error != nil {
			return res.Error
		}
		return nil
	},
}

func init() {
	SyncCmd.Flags().BoolVarP(&syncStatus, "status", "s", false, "показать статус синхронизации")
}
