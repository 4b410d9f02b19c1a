package word

import (
	"fmt"

	"github.com/spf13/cobra"

	"wordsync/cmd/client/cmd/types"
)

var PurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Очистить удаленные записи",
	Long: `Физически удаляет из локальной базы записи, удаление которых уже
подтверждено сервером. Неотправленные удаления не трогаются.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}
		n, err := app.Purge(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Удалено записей: %d\n", n)
		return nil
	},
}
