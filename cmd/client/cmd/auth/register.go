package auth

import (
	"fmt"

	"github.com/spf13/cobra"

	"wordsync/cmd/client/cmd/types"
)

var registerLogin string

var RegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Зарегистрировать пользователя",
	Long: `Создание учетной записи на сервере синхронизации.

Логин: от 3 до 32 символов. Пароль: не короче 8 символов, хотя бы одна
буква и одна цифра. После регистрации выполните wordsync auth login.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		login, err := askLogin(registerLogin)
		if err != nil {
			return err
		}
		password, err := askPassword("Пароль: ")
		if err != nil {
			return err
		}
		confirm, err := askPassword("Повторите пароль: ")
		if err != nil {
			return err
		}
		if password != confirm {
			return fmt.Errorf("пароли не совпадают")
		}

		id, err := app.Register(cmd.Context(), login, password)
		if err != nil {
			return fmt.Errorf("ошибка регистрации: %w", err)
		}

		fmt.Printf("✅ Пользователь %s зарегистрирован (id %d)\n", login, id)
		return nil
	},
}

func init() {
	RegisterCmd.Flags().StringVarP(&registerLogin, "login", "l", "", "логин")
}
