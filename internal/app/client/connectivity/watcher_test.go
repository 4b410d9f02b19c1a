package connectivity

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"wordsync/internal/utils/logger"
)

type MockPinger struct {
	mock.Mock
}

func (m *MockPinger) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func TestWatcher_Transitions(t *testing.T) {
	pinger := new(MockPinger)
	pinger.On("Ping", mock.Anything).Return(nil).Once()
	pinger.On("Ping", mock.Anything).Return(errors.New("down")).Twice()
	pinger.On("Ping", mock.Anything).Return(nil).Once()

	w := NewWatcher(pinger, time.Second, logger.Discard())

	var events []bool
	w.Subscribe(func(online bool) { events = append(events, online) })

	ctx := context.Background()
	assert.True(t, w.Check(ctx))
	assert.False(t, w.Check(ctx))
	assert.False(t, w.Check(ctx))
	assert.True(t, w.Check(ctx))
	assert.True(t, w.Online())

	assert.Equal(t, []bool{false, true}, events)
	pinger.AssertExpectations(t)
}

func TestWatcher_FirstCheckIsNotATransition(t *testing.T) {
	pinger := new(MockPinger)
	pinger.On("Ping", mock.Anything).Return(errors.New("down"))

	w := NewWatcher(pinger, time.Second, logger.Discard())
	var calls atomic.Int32
	w.Subscribe(func(bool) { calls.Add(1) })

	assert.False(t, w.Check(context.Background()))
	assert.Zero(t, calls.Load())
}

func TestWatcher_Run(t *testing.T) {
	pinger := new(MockPinger)
	pinger.On("Ping", mock.Anything).Return(nil)

	w := NewWatcher(pinger, 10*time.Millisecond, logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, w.Online, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}
