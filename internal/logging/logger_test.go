package logging

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	dev, err := New(true)
	require.NoError(t, err)
	require.NotNil(t, dev)

	prod, err := New(false)
	require.NoError(t, err)
	require.NotNil(t, prod)
}

func TestInitLoggerReplacesGlobal(t *testing.T) {
	InitLogger(false)
	require.NotNil(t, L)
	L.Info("logger initialized")
}
