package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerJSONFields(t *testing.T) {
	log := NewLogger("debug", "json")
	var buf bytes.Buffer
	log.Out = &buf

	log.WithField("http.req.path", "/api/cart").Debug("handled")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "handled", entry["message"])
	assert.Equal(t, "debug", entry["severity"])
	assert.Contains(t, entry, "timestamp")
	assert.Equal(t, "/api/cart", entry["http.req.path"])
}

func TestNewLoggerBadLevel(t *testing.T) {
	log := NewLogger("chatty", "text")
	assert.Equal(t, logrus.InfoLevel, log.Level)
	assert.IsType(t, &logrus.TextFormatter{}, log.Formatter)
}

func TestInitTracingDisabled(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), "storefront", "")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
