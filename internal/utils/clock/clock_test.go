package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSystem_NowMillis(t *testing.T) {
	before := time.Now().UnixMilli()
	got := System{}.NowMillis()
	after := time.Now().UnixMilli()

	assert.GreaterOrEqual(t, got, before)
	assert.LessOrEqual(t, got, after)
}

func TestManual(t *testing.T) {
	c := NewManual(100)
	assert.Equal(t, int64(100), c.NowMillis())

	assert.Equal(t, int64(150), c.Advance(50))
	assert.Equal(t, int64(150), c.NowMillis())

	c.Set(10)
	assert.Equal(t, int64(10), c.NowMillis())
}
