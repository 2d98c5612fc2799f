//go:build debug
// +build debug

package debug

import (
	"bytes"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestLogKeepsGlobalLogger(t *testing.T) {
	var buf bytes.Buffer
	logger.Logger.Out = &buf
	Log("contended %d", 1)

	require.Contains(t, buf.String(), "contended 1")
	require.Contains(t, buf.String(), "pkg=spinguard")
	require.NotContains(t, buf.String(), "[DEBUG]")
	require.Equal(t, log.InfoLevel, log.GetLevel())
}
