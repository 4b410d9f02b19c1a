package word

import (
	"github.com/spf13/cobra"

	"wordsync/cmd/client/cmd/types"
)

var AddCmd = &cobra.Command{
	Use:   "add <словарь> <слово>",
	Short: "Отметить слово как знакомое",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}
		rec, err := app.MarkFamiliar(cmd.Context(), args[0], args[1], true)
		if err != nil {
			return err
		}
		return printRecord(cmd, "Сохранено", rec)
	},
}
