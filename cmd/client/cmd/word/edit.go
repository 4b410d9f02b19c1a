package word

import (
	"github.com/spf13/cobra"

	"wordsync/cmd/client/cmd/types"
)

var familiar bool

var EditCmd = &cobra.Command{
	Use:   "edit <словарь> <слово>",
	Short: "Изменить отметку слова",
	Long: `Меняет признак "знакомо" у слова. Если отметки еще нет, она создается.

Пример:
  wordsync word edit cet4 apple --familiar=false`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}
		rec, err := app.MarkFamiliar(cmd.Context(), args[0], args[1], familiar)
		if err != nil {
			return err
		}
		return printRecord(cmd, "Обновлено", rec)
	},
}

func init() {
	EditCmd.Flags().BoolVar(&familiar, "familiar", true, "слово знакомо")
}
