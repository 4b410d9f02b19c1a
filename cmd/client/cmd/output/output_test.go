package output

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wordsync/internal/app/client"
	"wordsync/internal/app/client/engine"
	"wordsync/internal/domain/conflict"
	"wordsync/internal/model"
)

func init() {
	color.NoColor = true
}

var sample = engine.Result{
	Success: true,
	Summary: engine.Summary{
		Applied:  1,
		Accepted: 2,
		Conflicts: []engine.Conflict{
			{ID: "a", OtherID: "b", Kind: model.KindFamiliarWord, Type: conflict.EditEdit, Winner: "remote"},
		},
	},
	Trigger:   engine.TriggerManual,
	StartedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	Duration:  1500 * time.Millisecond,
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "", want: Text},
		{in: "text", want: Text},
		{in: " JSON ", want: JSON},
		{in: "yaml", want: YAML},
		{in: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWrite_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, JSON, sample, nil))

	g := goldie.New(t)
	g.Assert(t, "result", buf.Bytes())
}

func TestWrite_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, YAML, sample, nil))

	assert.Contains(t, buf.String(), "success: true")
	assert.Contains(t, buf.String(), "trigger: manual")
	assert.Contains(t, buf.String(), "winner: remote")
}

func TestResult_Text(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, Text, sample, func(w io.Writer) error {
			return Result(w, sample)
		}))

		assert.Equal(t, "✓ Синхронизация завершена (manual, 1.5s)\n"+
			"  Принято сервером:   2\n"+
			"  Получено с сервера: 1\n"+
			"  Конфликтов: 1\n"+
			"    • familiar_word a ↔ b: edit-edit, победила remote\n", buf.String())
	})

	t.Run("not authenticated", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Result(&buf, engine.Result{
			Error: &engine.Error{Code: engine.CodeNotAuthenticated, Message: "not logged in"},
		}))

		assert.Contains(t, buf.String(), "[NotAuthenticated] not logged in")
		assert.Contains(t, buf.String(), "wordsync auth login")
	})
}

func TestStatus_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Status(&buf, &client.Status{
		Owner:         "7",
		Authenticated: true,
		Server:        "http://localhost:8080",
		Pending:       2,
		Counts: map[model.SyncStatus]int{
			model.StatusSynced:   3,
			model.StatusLocalNew: 2,
		},
	}))

	out := buf.String()
	assert.Contains(t, out, "Пользователь: 7")
	assert.Contains(t, out, "http://localhost:8080 недоступен")
	assert.Contains(t, out, "Ожидают отправки: 2")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("local_new")), bytes.Index(buf.Bytes(), []byte("synced")))
	assert.Contains(t, out, "Синхронизаций еще не было")
}

func TestRecords_Text(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Records(&buf, nil))
		assert.Equal(t, "Записи не найдены\n", buf.String())
	})

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Records(&buf, []model.Record{{
			ID:               "rec-1",
			Kind:             model.KindWordRecord,
			NaturalKey:       "cet4/apple",
			SyncStatus:       model.StatusLocalModified,
			ClientModifiedAt: 1_000,
		}}))

		assert.Contains(t, buf.String(), "rec-1")
		assert.Contains(t, buf.String(), "cet4/apple")
		assert.Contains(t, buf.String(), "local_modified")
		assert.Contains(t, buf.String(), "Всего записей: 1")
	})
}
