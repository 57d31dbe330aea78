// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigInitValidateDump(t *testing.T) {
	path := filepath.Join(t.TempDir(), "playbackd.yaml")
	var out, errOut bytes.Buffer

	require.Equal(t, 0, configCLI([]string{"init", path}, &out, &errOut), errOut.String())
	assert.Contains(t, out.String(), "wrote")

	errOut.Reset()
	assert.Equal(t, 1, configCLI([]string{"init", path}, &out, &errOut))
	assert.Contains(t, errOut.String(), "--force")
	assert.Equal(t, 0, configCLI([]string{"init", "--force", path}, &out, &errOut))

	out.Reset()
	require.Equal(t, 0, configCLI([]string{"validate", path}, &out, &errOut))
	assert.Contains(t, out.String(), "is valid")

	out.Reset()
	t.Setenv("PLAYBACKD_REDIS_PASSWORD", "hunter2")
	require.Equal(t, 0, configCLI([]string{"dump", path}, &out, &errOut))
	assert.Contains(t, out.String(), "chunkSize: 10485760")
	assert.Contains(t, out.String(), "redisPassword:")
	assert.NotContains(t, out.String(), "hunter2")
}

func TestConfigCLI_Usage(t *testing.T) {
	var out, errOut bytes.Buffer
	assert.Equal(t, 2, configCLI([]string{"bogus"}, &out, &errOut))
	assert.Equal(t, 2, configCLI([]string{"init"}, &out, &errOut))
	assert.Equal(t, 0, configCLI(nil, &out, &errOut))
}
