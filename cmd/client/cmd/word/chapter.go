package word

import (
	"github.com/spf13/cobra"

	"wordsync/cmd/client/cmd/types"
	"wordsync/internal/model"
)

var (
	chapterNumber int
	chapterStats  model.ChapterRecord
)

var ChapterCmd = &cobra.Command{
	Use:   "chapter <словарь>",
	Short: "Записать результат прохождения главы",
	Long: `Сохраняет попытку прохождения главы словаря. Без --chapter попытка
считается свободной практикой вне глав.

Пример:
  wordsync word chapter cet4 --chapter 3 --correct 18 --wrong 2 --words 20 --time 340`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		ch := chapterStats
		ch.Dict = args[0]
		if cmd.Flags().Changed("chapter") {
			n := chapterNumber
			ch.Chapter = &n
		}
		ch.WordNumber = ch.WordCount

		rec, err := app.SaveChapter(cmd.Context(), ch)
		if err != nil {
			return err
		}
		return printRecord(cmd, "Глава записана", rec)
	},
}

func init() {
	ChapterCmd.Flags().IntVar(&chapterNumber, "chapter", 0, "номер главы")
	ChapterCmd.Flags().IntVar(&chapterStats.CorrectCount, "correct", 0, "верных ответов")
	ChapterCmd.Flags().IntVar(&chapterStats.WrongCount, "wrong", 0, "ошибок")
	ChapterCmd.Flags().IntVar(&chapterStats.WordCount, "words", 0, "слов в главе")
	ChapterCmd.Flags().IntVar(&chapterStats.Time, "time", 0, "время прохождения, секунды")
}
