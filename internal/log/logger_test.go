// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package log

import (
	"bytes"
	"encoding/json"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelOf(t *testing.T) {
	t.Setenv("PLAYBACKD_LOG_LEVEL", "warn")
	assert.Equal(t, zerolog.DebugLevel, levelOf("debug"))
	assert.Equal(t, zerolog.WarnLevel, levelOf(""))
	assert.Equal(t, zerolog.WarnLevel, levelOf("loud"))

	t.Setenv("PLAYBACKD_LOG_LEVEL", "")
	assert.Equal(t, zerolog.InfoLevel, levelOf(""))
}

func TestReconfigure_AttachesIdentity(t *testing.T) {
	t.Cleanup(func() { Reconfigure(Config{Output: io.Discard}) })

	var buf bytes.Buffer
	Reconfigure(Config{Level: "debug", Output: &buf, Service: "playbackd", Version: "v1.2.3"})
	l := WithComponent("api")
	l.Debug().Str(FieldEvent, "test.event").Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "playbackd", entry["service"])
	assert.Equal(t, "v1.2.3", entry["version"])
	assert.Equal(t, "api", entry[FieldComponent])
	assert.Equal(t, "test.event", entry[FieldEvent])
	assert.Equal(t, "hello", entry["message"])
}

func TestConfigure_FirstCallWins(t *testing.T) {
	t.Cleanup(func() { Reconfigure(Config{Output: io.Discard}) })

	var first, second bytes.Buffer
	Reconfigure(Config{Output: &first})
	Configure(Config{Output: &second})
	l := WithComponent("x")
	l.Info().Msg("once")

	assert.NotZero(t, first.Len())
	assert.Zero(t, second.Len())
}
