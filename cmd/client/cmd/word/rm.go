package word

import (
	"fmt"

	"github.com/spf13/cobra"

	"wordsync/cmd/client/cmd/types"
	"wordsync/internal/model"
)

var (
	removeID   string
	removeKind string
)

var RemoveCmd = &cobra.Command{
	Use:   "rm [<словарь> <слово>]",
	Short: "Удалить запись",
	Long: `Удаляет запись по id или по словарю и слову.

Удаление тоже синхронизируется: на других устройствах запись исчезнет
после их следующей синхронизации.

Примеры:
  wordsync word rm --id 6f1c...
  wordsync word rm cet4 apple --kind word_record`,
	Args: cobra.RangeArgs(0, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		switch {
		case removeID != "":
			err = app.Remove(cmd.Context(), removeID)
		case len(args) == 2:
			err = app.RemoveWord(cmd.Context(), model.Kind(removeKind), args[0], args[1])
		default:
			return fmt.Errorf("укажите --id или словарь и слово")
		}
		if err != nil {
			return fmt.Errorf("ошибка удаления: %w", err)
		}

		fmt.Println("✓ Запись удалена")
		return nil
	},
}

func init() {
	RemoveCmd.Flags().StringVar(&removeID, "id", "", "id записи")
	RemoveCmd.Flags().StringVarP(&removeKind, "kind", "k", string(model.KindFamiliarWord), "тип записи (familiar_word, word_record, word_review_record)")
}
