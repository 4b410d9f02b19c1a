package auth

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"wordsync/cmd/client/cmd/output"
	"wordsync/cmd/client/cmd/types"
)

var (
	loginName string
	noSync    bool
)

var LoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Войти в систему",
	Long: `Аутентификация на сервере синхронизации.

Токен сохраняется локально, после входа сразу выполняется синхронизация.
Изменения, сделанные до входа под этим же пользователем, будут отправлены.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		login, err := askLogin(loginName)
		if err != nil {
			return err
		}
		password, err := askPassword("Пароль: ")
		if err != nil {
			return err
		}

		if err := app.Login(cmd.Context(), login, password); err != nil {
			return fmt.Errorf("ошибка аутентификации: %w", err)
		}
		fmt.Println("✅ Вход выполнен успешно!")

		if noSync {
			return nil
		}
		return output.Result(os.Stdout, app.Sync(cmd.Context()))
	},
}

func init() {
	LoginCmd.Flags().StringVarP(&loginName, "login", "l", "", "логин")
	LoginCmd.Flags().BoolVar(&noSync, "no-sync", false, "не синхронизировать после входа")
}
