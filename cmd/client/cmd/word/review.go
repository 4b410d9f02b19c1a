package word

import (
	"github.com/spf13/cobra"

	"wordsync/cmd/client/cmd/types"
)

var finishReview bool

var ReviewCmd = &cobra.Command{
	Use:   "review <словарь>",
	Short: "Начать или завершить повторение словаря",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}
		rec, err := app.Review(cmd.Context(), args[0], finishReview)
		if err != nil {
			return err
		}
		verb := "Повторение начато"
		if finishReview {
			verb = "Повторение завершено"
		}
		return printRecord(cmd, verb, rec)
	},
}

func init() {
	ReviewCmd.Flags().BoolVar(&finishReview, "finish", false, "завершить последнюю открытую сессию")
}
