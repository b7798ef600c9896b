package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNow(t *testing.T) {
	t.Parallel()

	c := New()
	before := time.Now().UTC().Add(-time.Second)
	got := c.Now()
	after := time.Now().UTC().Add(time.Second)

	require.True(t, got.After(before))
	require.True(t, got.Before(after))
	require.Equal(t, time.UTC, got.Location())
}
