// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestContextIDs(t *testing.T) {
	tests := []struct {
		name string
		set  func(context.Context, string) context.Context
		get  func(context.Context) string
	}{
		{name: "request", set: ContextWithRequestID, get: RequestIDFromContext},
		{name: "player", set: ContextWithPlayerID, get: PlayerIDFromContext},
		{name: "session", set: ContextWithSessionID, get: SessionIDFromContext},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			//nolint:staticcheck // nil context is part of the contract
			ctx := tt.set(nil, "id-1")
			if got := tt.get(ctx); got != "id-1" {
				t.Errorf("got %q, want %q", got, "id-1")
			}
			if got := tt.get(context.Background()); got != "" {
				t.Errorf("empty context returned %q", got)
			}
		})
	}
}

func TestWithContextAddsFields(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	ctx := ContextWithPlayerID(context.Background(), "living-room")
	ctx = ContextWithSessionID(ctx, "sess-9")
	logger := WithContext(ctx, base)
	logger.Info().Msg("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid json log line: %v", err)
	}
	if entry[FieldPlayerID] != "living-room" {
		t.Errorf("player_id = %v", entry[FieldPlayerID])
	}
	if entry[FieldSessionID] != "sess-9" {
		t.Errorf("session_id = %v", entry[FieldSessionID])
	}
	if _, ok := entry[FieldRequestID]; ok {
		t.Errorf("request_id must be absent when not set")
	}
}

func TestWithContextNoFieldsReturnsLogger(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)
	logger := WithContext(context.Background(), base)
	logger.Info().Msg("x")
	if bytes.Contains(buf.Bytes(), []byte(FieldPlayerID)) {
		t.Error("unexpected player_id in output")
	}
}

func TestReconfigureWritesComponent(t *testing.T) {
	var buf bytes.Buffer
	Reconfigure(Config{Level: "debug", Output: &buf, Service: "test", Version: "v0"})
	t.Cleanup(func() { Reconfigure(Config{}) })

	l := WithComponent("chunkread")
	l.Debug().Msg("chunk read")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid json log line: %v", err)
	}
	if entry[FieldComponent] != "chunkread" {
		t.Errorf("component = %v", entry[FieldComponent])
	}
	if entry["service"] != "test" || entry["version"] != "v0" {
		t.Errorf("service/version not attached: %v", entry)
	}
}
