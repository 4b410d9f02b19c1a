package word

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"wordsync/cmd/client/cmd/output"
	"wordsync/cmd/client/cmd/types"
)

var (
	recallWrong bool
	recallTime  time.Duration
)

var RecallCmd = &cobra.Command{
	Use:   "recall <словарь> <слово>",
	Short: "Отметить ответ при интервальном повторении",
	Long: `Сдвигает расписание повторения слова. Верный ответ переносит слово на
следующий интервал, ошибка возвращает его к первому.

Пример:
  wordsync word recall cet4 necessary --wrong --took 4s`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}
		rec, err := app.ReviewWord(cmd.Context(), args[0], args[1], !recallWrong, recallTime)
		if err != nil {
			return err
		}
		return printRecord(cmd, "Повторение учтено", rec)
	},
}

var DueCmd = &cobra.Command{
	Use:   "due",
	Short: "Слова, которые пора повторить",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}
		recs, err := app.Due(cmd.Context())
		if err != nil {
			return fmt.Errorf("ошибка получения расписания: %w", err)
		}
		return output.Write(os.Stdout, output.FromCmd(cmd), recs, func(w io.Writer) error {
			return output.Records(w, recs)
		})
	},
}

func init() {
	RecallCmd.Flags().BoolVar(&recallWrong, "wrong", false, "ответ был неверным")
	RecallCmd.Flags().DurationVar(&recallTime, "took", 0, "время ответа")
}
