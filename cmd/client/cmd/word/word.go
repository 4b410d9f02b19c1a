package word

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"wordsync/cmd/client/cmd/output"
	"wordsync/internal/model"
)

// WordCmd - родительская команда для работы со словарем
var WordCmd = &cobra.Command{
	Use:     "word",
	Aliases: []string{"w"},
	Short:   "Работа со словарем",
	Long: `Отметки знакомых слов, практика набора, главы и интервальное повторение.

Все изменения сохраняются локально и отправляются на сервер при
следующей синхронизации.`,
}

// printRecord печатает одну измененную запись в выбранном формате.
func printRecord(cmd *cobra.Command, verb string, rec model.Record) error {
	return output.Write(os.Stdout, output.FromCmd(cmd), rec, func(w io.Writer) error {
		fmt.Fprintf(w, "✓ %s: %s %s (id %s)\n", verb, rec.Kind, rec.NaturalKey, rec.ID)
		return nil
	})
}
