package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"wordsync/internal/app/client"
	"wordsync/internal/app/client/engine"
	"wordsync/internal/model"
)

// Format - формат вывода команд.
type Format string

const (
	Text Format = "text"
	JSON Format = "json"
	YAML Format = "yaml"

	FlagName = "output"
)

var (
	ok   = color.New(color.FgGreen, color.Bold)
	warn = color.New(color.FgYellow)
	fail = color.New(color.FgRed, color.Bold)
	dim  = color.New(color.Faint)
)

func Parse(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", Text:
		return Text, nil
	case JSON, YAML:
		return f, nil
	}
	return "", fmt.Errorf("неизвестный формат вывода %q (text, json, yaml)", s)
}

// FromCmd читает глобальный флаг --output.
func FromCmd(cmd *cobra.Command) Format {
	s, err := cmd.Flags().GetString(FlagName)
	if err != nil {
		return Text
	}
	f, err := Parse(s)
	if err != nil {
		return Text
	}
	return f
}

// Write печатает v в машинном формате либо вызывает text для text.
func Write(w io.Writer, f Format, v any, text func(io.Writer) error) error {
	switch f {
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return text(w)
	}
}

// Result - итог одного цикла синхронизации.
func Result(w io.Writer, res engine.Result) error {
	if !res.Success {
		msg := "нет данных"
		if res.Error != nil {
			msg = fmt.Sprintf("[%s] %s", res.Error.Code, res.Error.Message)
		}
		fail.Fprint(w, "✗ Синхронизация не выполнена: ")
		fmt.Fprintln(w, msg)
		if res.Error != nil && res.Error.Code == engine.CodeNotAuthenticated {
			fmt.Fprintln(w, "  Выполните: wordsync auth login")
		}
		return nil
	}

	ok.Fprint(w, "✓ Синхронизация завершена")
	fmt.Fprintf(w, " (%s, %s)\n", res.Trigger, res.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "  Принято сервером:   %d\n", res.Summary.Accepted)
	fmt.Fprintf(w, "  Получено с сервера: %d\n", res.Summary.Applied)

	if n := len(res.Summary.Conflicts); n > 0 {
		warn.Fprintf(w, "  Конфликтов: %d\n", n)
		for _, c := range res.Summary.Conflicts {
			fmt.Fprintf(w, "    • %s %s: %s, победила %s\n", c.Kind, conflictIDs(c), c.Type, c.Winner)
		}
	}
	if n := len(res.Summary.Rejected); n > 0 {
		warn.Fprintf(w, "  Отклонено сервером: %d\n", n)
		for _, r := range res.Summary.Rejected {
			fmt.Fprintf(w, "    • %s: %s\n", r.ID, r.Message)
		}
	}
	return nil
}

func conflictIDs(c engine.Conflict) string {
	if c.OtherID == "" {
		return c.ID
	}
	return c.ID + " ↔ " + c.OtherID
}

// Status - сводка для sync --status.
func Status(w io.Writer, st *client.Status) error {
	if st.Authenticated {
		fmt.Fprintf(w, "Пользователь: %s\n", st.Owner)
	} else if st.Owner != "" {
		warn.Fprintf(w, "Сессия %s истекла, выполните вход\n", st.Owner)
	} else {
		warn.Fprintln(w, "Вход не выполнен")
	}

	fmt.Fprintf(w, "Сервер: %s ", st.Server)
	if st.Online {
		ok.Fprintln(w, "доступен")
	} else {
		fail.Fprintln(w, "недоступен")
	}

	fmt.Fprintf(w, "Ожидают отправки: %d\n", st.Pending)
	statuses := make([]string, 0, len(st.Counts))
	for s := range st.Counts {
		statuses = append(statuses, string(s))
	}
	sort.Strings(statuses)
	for _, s := range statuses {
		dim.Fprintf(w, "  %-15s %d\n", s, st.Counts[model.SyncStatus(s)])
	}

	if st.LastResult == nil {
		fmt.Fprintln(w, "Синхронизаций еще не было")
		return nil
	}
	fmt.Fprintf(w, "Последняя синхронизация: %s\n", st.LastResult.StartedAt.Local().Format("2006-01-02 15:04:05"))
	return Result(w, *st.LastResult)
}

// Records печатает записи таблицей.
func Records(w io.Writer, recs []model.Record) error {
	if len(recs) == 0 {
		fmt.Fprintln(w, "Записи не найдены")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\tТип\tКлюч\tСтатус\tИзменено\t\n")
	for _, rec := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n",
			rec.ID,
			rec.Kind,
			rec.NaturalKey,
			rec.SyncStatus,
			time.UnixMilli(rec.ClientModifiedAt).Local().Format("2006-01-02 15:04"),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\nВсего записей: %d\n", len(recs))
	return nil
}

// Event - одна строка журнала для watch.
func Event(w io.Writer, e engine.Event) error {
	ts := dim.Sprint(time.Now().Format("15:04:05"))
	switch e.State {
	case engine.StateSyncing:
		fmt.Fprintf(w, "%s синхронизация (%s)...\n", ts, e.Trigger)
	case engine.StateSuccess, engine.StateError:
		fmt.Fprintf(w, "%s ", ts)
		if e.Result != nil {
			return Result(w, *e.Result)
		}
	}
	return nil
}
