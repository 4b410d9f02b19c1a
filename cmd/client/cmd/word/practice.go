package word

import (
	"github.com/spf13/cobra"

	"wordsync/cmd/client/cmd/types"
)

var (
	wrongCount int
	mistakes   []string
)

var PracticeCmd = &cobra.Command{
	Use:   "practice <словарь> <слово>",
	Short: "Записать попытку набора слова",
	Long: `Добавляет попытку в историю практики слова.

Пример:
  wordsync word practice cet4 necessary --wrong 2 --mistake neccessary --mistake necesary`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}
		rec, err := app.Practice(cmd.Context(), args[0], args[1], wrongCount, mistakes)
		if err != nil {
			return err
		}
		return printRecord(cmd, "Попытка записана", rec)
	},
}

func init() {
	PracticeCmd.Flags().IntVar(&wrongCount, "wrong", 0, "число ошибок в попытке")
	PracticeCmd.Flags().StringArrayVar(&mistakes, "mistake", nil, "ошибочный вариант написания (можно несколько)")
}
