package word

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"wordsync/cmd/client/cmd/output"
	"wordsync/cmd/client/cmd/types"
)

var (
	intervalDays  []int
	notifyAt      string
	notifyEnabled bool
)

var IntervalsCmd = &cobra.Command{
	Use:   "intervals",
	Short: "Показать или изменить настройки повторения",
	Long: `Без флагов печатает текущие настройки интервального повторения.

Пример:
  wordsync word intervals --days 1,3,7,15 --notify-at 21:00`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		cfg, err := app.ReviewConfig(ctx)
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		if !flags.Changed("days") && !flags.Changed("notify-at") && !flags.Changed("notify") {
			return output.Write(os.Stdout, output.FromCmd(cmd), cfg, func(w io.Writer) error {
				fmt.Fprintf(w, "Интервалы, дни: %v\n", cfg.BaseIntervals)
				fmt.Fprintf(w, "Напоминания: %t в %s\n", cfg.EnableNotifications, cfg.NotificationTime)
				return nil
			})
		}

		if flags.Changed("days") {
			cfg.BaseIntervals = intervalDays
		}
		if flags.Changed("notify-at") {
			cfg.NotificationTime = notifyAt
		}
		if flags.Changed("notify") {
			cfg.EnableNotifications = notifyEnabled
		}

		rec, err := app.SetReviewConfig(ctx, cfg)
		if err != nil {
			return fmt.Errorf("ошибка сохранения настроек: %w", err)
		}
		return printRecord(cmd, "Настройки сохранены", rec)
	},
}

func init() {
	IntervalsCmd.Flags().IntSliceVar(&intervalDays, "days", nil, "интервалы повторения в днях")
	IntervalsCmd.Flags().StringVar(&notifyAt, "notify-at", "", "время напоминания, HH:MM")
	IntervalsCmd.Flags().BoolVar(&notifyEnabled, "notify", true, "включить напоминания")
}
