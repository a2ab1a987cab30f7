package infocache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPutAndGet(t *testing.T) {
	c := New(2)
	c.Put("a.txt", "body-a")

	body, ok := c.Get("a.txt")
	assert.True(t, ok)
	assert.Equal(t, "body-a", body)

	_, ok = c.Get("missing.txt")
	assert.False(t, ok)
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	c := New(2)
	c.Put("a.txt", "a")
	c.Put("b.txt", "b")
	c.Put("c.txt", "c") // evicts a.txt, the least recently touched

	_, ok := c.Get("a.txt")
	assert.False(t, ok)

	_, ok = c.Get("b.txt")
	assert.True(t, ok)
	_, ok = c.Get("c.txt")
	assert.True(t, ok)
}

func TestGetRefreshesRecency(t *testing.T) {
	c := New(2)
	c.Put("a.txt", "a")
	c.Put("b.txt", "b")
	c.Get("a.txt") // touch a.txt so b.txt becomes the LRU entry
	c.Put("c.txt", "c")

	_, ok := c.Get("b.txt")
	assert.False(t, ok, "b.txt should have been evicted")
	_, ok = c.Get("a.txt")
	assert.True(t, ok)
}

func TestInvalidate(t *testing.T) {
	c := New(2)
	c.Put("a.txt", "a")
	c.Invalidate("a.txt")

	_, ok := c.Get("a.txt")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}
