package auth

import (
	"fmt"

	"github.com/spf13/cobra"

	"wordsync/cmd/client/cmd/types"
)

var LogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Выйти из системы",
	Long: `Удаляет сохраненный токен. Локальные данные и неотправленные изменения
остаются и будут синхронизированы после следующего входа.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}
		if err := app.Logout(); err != nil {
			return fmt.Errorf("ошибка выхода: %w", err)
		}
		fmt.Println("Вы вышли из системы")
		return nil
	},
}
