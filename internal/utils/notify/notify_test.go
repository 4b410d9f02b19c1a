package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListeners(t *testing.T) {
	var l Listeners[int]
	var got []string

	unsubA := l.Add(func(v int) { got = append(got, "a") })
	l.Add(func(v int) { got = append(got, "b") })
	assert.Equal(t, 2, l.Len())

	l.Notify(1)
	assert.Equal(t, []string{"a", "b"}, got)

	unsubA()
	unsubA()
	got = nil
	l.Notify(2)
	assert.Equal(t, []string{"b"}, got)
	assert.Equal(t, 1, l.Len())
}

func TestListeners_UnsubscribeInsideCallback(t *testing.T) {
	var l Listeners[string]
	calls := 0

	var unsub func()
	unsub = l.Add(func(string) {
		calls++
		unsub()
	})

	l.Notify("x")
	l.Notify("y")
	assert.Equal(t, 1, calls)
}
