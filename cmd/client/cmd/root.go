package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"wordsync/cmd/client/cmd/auth"
	"wordsync/cmd/client/cmd/output"
	"wordsync/cmd/client/cmd/sync"
	"wordsync/cmd/client/cmd/types"
	"wordsync/cmd/client/cmd/watch"
	"wordsync/cmd/client/cmd/word"
	"wordsync/internal/app/client"
	"wordsync/internal/app/client/config"
	"wordsync/internal/utils/logger"
)

var (
	cfgFile      string
	serverAddr   string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "wordsync",
	Short: "wordsync - словарь с офлайн-синхронизацией",
	Long: `wordsync хранит отметки знакомых слов, историю практики и сессии
повторения локально и синхронизирует их с сервером, когда он доступен.

Все изменения сначала пишутся в локальную базу, поэтому команды работают
и без сети. Конфликты между устройствами разрешаются по времени изменения.`,
	PersistentPreRunE:  setupApp,
	PersistentPostRunE: closeApp,
	SilenceUsage:       true,
	SilenceErrors:      true,
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func setupApp(cmd *cobra.Command, _ []string) error {
	if _, err := output.Parse(outputFormat); err != nil {
		return err
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}
	if serverAddr != "" {
		cfg.ServerAddress = serverAddr
	}

	// stdout занят выводом команд
	log := logger.NewWithOptions(cfg.Env, cfg.LogLevel, os.Stderr)

	app, err := client.New(cmd.Context(), cfg, log)
	if err != nil {
		return fmt.Errorf("ошибка инициализации приложения: %w", err)
	}

	cmd.SetContext(context.WithValue(cmd.Context(), types.ClientAppKey, app))
	return nil
}

func closeApp(cmd *cobra.Command, _ []string) error {
	app, err := types.App(cmd)
	if err != nil {
		return nil
	}
	return app.Close()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "конфигурационный файл (yaml)")
	rootCmd.PersistentFlags().StringVar(&serverAddr, "server", "", "адрес сервера синхронизации (host:port)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, output.FlagName, "o", string(output.Text), "формат вывода (text, json, yaml)")

	auth.AuthCmd.AddCommand(auth.RegisterCmd, auth.LoginCmd, auth.LogoutCmd)
	word.WordCmd.AddCommand(
		word.AddCmd,
		word.EditCmd,
		word.RemoveCmd,
		word.ListCmd,
		word.PracticeCmd,
		word.ReviewCmd,
		word.ChapterCmd,
		word.RecallCmd,
		word.DueCmd,
		word.IntervalsCmd,
		word.PurgeCmd,
	)

	rootCmd.AddCommand(auth.AuthCmd, word.WordCmd, sync.SyncCmd, watch.WatchCmd)
}
