package client

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wordsync/internal/app/client/config"
	"wordsync/internal/app/client/engine"
	"wordsync/internal/app/client/storage"
	"wordsync/internal/app/server/api"
	serverconfig "wordsync/internal/app/server/config"
	"wordsync/internal/domain/session"
	"wordsync/internal/domain/sync/synctest"
	"wordsync/internal/domain/user/usertest"
	"wordsync/internal/model"
	"wordsync/internal/utils/clock"
	"wordsync/internal/utils/logger"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	log := logger.Discard()
	srv := httptest.NewServer(api.NewWithDeps(api.Deps{
		Users:    usertest.NewMemoryRepository(),
		Records:  synctest.NewMemoryRepository(),
		Sessions: session.NewService("client-secret", time.Hour, log),
		Clock:    clock.NewManual(1_000),
	}, &serverconfig.Config{}, log))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(srv *httptest.Server, dir string) *config.Config {
	return &config.Config{
		Env:                 config.EnvLocal,
		ServerAddress:       strings.TrimPrefix(srv.URL, "http://"),
		ConfigDir:           dir,
		DBPath:              filepath.Join(dir, "words.db"),
		TokenPath:           filepath.Join(dir, "token"),
		SyncInterval:        time.Minute,
		OfflineInterval:     time.Minute,
		OnlineCheckInterval: time.Second,
		RequestTimeout:      5 * time.Second,
		BatchSize:           100,
	}
}

func newApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	app, err := New(context.Background(), cfg, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func TestApp_RequiresLogin(t *testing.T) {
	srv := newServer(t)
	app := newApp(t, testConfig(srv, t.TempDir()))
	ctx := context.Background()

	_, err := app.MarkFamiliar(ctx, "cet4", "apple", true)
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	res := app.Sync(ctx)
	require.NotNil(t, res.Error)
	assert.Equal(t, engine.CodeNotAuthenticated, res.Error.Code)
}

func TestApp_WordsAndSync(t *testing.T) {
	srv := newServer(t)
	dir := t.TempDir()
	cfg := testConfig(srv, dir)
	app := newApp(t, cfg)
	ctx := context.Background()

	_, err := app.Register(ctx, "alice", "password123")
	require.NoError(t, err)
	require.NoError(t, app.Login(ctx, "alice", "password123"))

	apple, err := app.MarkFamiliar(ctx, "cet4", "apple", true)
	require.NoError(t, err)

	again, err := app.MarkFamiliar(ctx, "cet4", "Apple", false)
	require.NoError(t, err)
	assert.Equal(t, apple.ID, again.ID)

	_, err = app.Practice(ctx, "cet4", "apple", 2, []string{"appel"})
	require.NoError(t, err)
	practiced, err := app.Practice(ctx, "cet4", "apple", 1, nil)
	require.NoError(t, err)

	var wr model.WordRecord
	require.NoError(t, json.Unmarshal(practiced.Payload, &wr))
	assert.Equal(t, 3, wr.WrongCount)
	assert.Len(t, wr.History, 2)

	_, err = app.Review(ctx, "cet4", false)
	require.NoError(t, err)
	finished, err := app.Review(ctx, "cet4", true)
	require.NoError(t, err)
	assert.Contains(t, string(finished.Payload), `"isFinished":true`)

	_, err = app.Review(ctx, "cet4", true)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	list, err := app.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, list, 3)

	st, err := app.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, st.Pending)
	assert.True(t, st.Online)

	res := <-app.TriggerSync(ctx)
	require.True(t, res.Success, "%v", res.Error)
	assert.Equal(t, 3, res.Summary.Accepted)
	assert.Equal(t, engine.TriggerManual, res.Trigger)

	require.NoError(t, app.RemoveWord(ctx, model.KindFamiliarWord, "cet4", "apple"))
	require.True(t, app.Sync(ctx).Success)

	purged, err := app.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	t.Run("status survives restart", func(t *testing.T) {
		require.NoError(t, app.Close())
		reopened := newApp(t, cfg)

		st, err := reopened.Status(ctx)
		require.NoError(t, err)
		assert.True(t, st.Authenticated)
		assert.Zero(t, st.Pending)
		require.NotNil(t, st.LastResult)
		assert.True(t, st.LastResult.Success)
		assert.Equal(t, engine.TriggerManual, st.LastResult.Trigger)

		require.NoError(t, reopened.Logout())
		_, err = reopened.List(ctx, "")
		assert.ErrorIs(t, err, ErrNotLoggedIn)
	})
}

func TestApp_ReviewSchedule(t *testing.T) {
	srv := newServer(t)
	app := newApp(t, testConfig(srv, t.TempDir()))
	ctx := context.Background()

	_, err := app.Register(ctx, "bob", "password123")
	require.NoError(t, err)
	require.NoError(t, app.Login(ctx, "bob", "password123"))

	cfg, err := app.ReviewConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultReviewConfig(), cfg)

	_, err = app.SetReviewConfig(ctx, model.ReviewConfig{BaseIntervals: []int{2, 5}, NotificationTime: "7:30"})
	require.NoError(t, err)
	_, err = app.SetReviewConfig(ctx, model.ReviewConfig{BaseIntervals: []int{0}, NotificationTime: "07:30"})
	assert.ErrorIs(t, err, model.ErrInvalidPayload)

	cfg, err = app.ReviewConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 5}, cfg.BaseIntervals)

	chapter := 3
	ch, err := app.SaveChapter(ctx, model.ChapterRecord{Dict: "cet4", Chapter: &chapter, CorrectCount: 18, WordCount: 20})
	require.NoError(t, err)
	assert.Contains(t, ch.NaturalKey, "cet4/3/")

	first, err := app.ReviewWord(ctx, "cet4", "Apple", true, 1500*time.Millisecond)
	require.NoError(t, err)
	second, err := app.ReviewWord(ctx, "cet6", "apple", false, time.Second)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var wr model.WordReviewRecord
	require.NoError(t, json.Unmarshal(second.Payload, &wr))
	assert.Equal(t, []int{2, 5}, wr.IntervalSequence)
	assert.Equal(t, 2, wr.TotalReviews)
	assert.Zero(t, wr.CurrentIntervalIndex)
	assert.Equal(t, []string{"cet4", "cet6"}, wr.SourceDicts)

	history, err := app.List(ctx, model.KindReviewHistory)
	require.NoError(t, err)
	require.Len(t, history, 2)
	for _, h := range history {
		assert.Contains(t, h.NaturalKey, "apple/")
	}

	due, err := app.Due(ctx)
	require.NoError(t, err)
	assert.Empty(t, due, "next review is two days ahead")

	res := app.Sync(ctx)
	require.True(t, res.Success, "%v", res.Error)
	assert.Equal(t, 5, res.Summary.Accepted)

	require.NoError(t, app.RemoveWord(ctx, model.KindWordReviewRecord, "", "APPLE"))
	schedules, err := app.List(ctx, model.KindWordReviewRecord)
	require.NoError(t, err)
	assert.Empty(t, schedules)
}
