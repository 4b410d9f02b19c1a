package word

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"wordsync/cmd/client/cmd/output"
	"wordsync/cmd/client/cmd/types"
	"wordsync/internal/model"
)

var listKind string

var ListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "Список записей",
	Long: `Живые записи текущего пользователя, включая еще не отправленные.

Фильтр по типу: --kind familiar_word | word_record | review_record |
chapter_record | review_config | word_review_record | review_history.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		recs, err := app.List(cmd.Context(), model.Kind(listKind))
		if err != nil {
			return fmt.Errorf("ошибка получения списка записей: %w", err)
		}

		return output.Write(os.Stdout, output.FromCmd(cmd), recs, func(w io.Writer) error {
			return output.Records(w, recs)
		})
	},
}

func init() {
	ListCmd.Flags().StringVarP(&listKind, "kind", "k", "", "фильтр по типу записи")
}
