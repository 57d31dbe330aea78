// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package classify

import (
	"testing"

	"github.com/ManuGH/playbackd/internal/domain/playback/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func local(t *testing.T, path string) model.PlaybackSource {
	t.Helper()
	src, err := model.NewLocalSource(path, 0, false)
	require.NoError(t, err)
	return src
}

func TestClassify_Contract(t *testing.T) {
	c := New("http://127.0.0.1:8089/blobs/")

	cases := []struct {
		name     string
		src      func(t *testing.T) model.PlaybackSource
		category Category
		reason   Reason
	}{
		{"remote url", func(t *testing.T) model.PlaybackSource {
			src, err := model.NewRemoteSource("https://cdn.example.com/a.mkv", 0)
			require.NoError(t, err)
			return src
		}, DirectPlay, ReasonRemoteReference},
		{"generated handle", func(t *testing.T) model.PlaybackSource {
			src, err := model.NewRemoteSource("http://127.0.0.1:8089/blobs/abc", 0)
			require.NoError(t, err)
			return src
		}, DirectPlay, ReasonGeneratedHandle},
		{"mp4", func(t *testing.T) model.PlaybackSource { return local(t, "/m/movie.mp4") }, Unknown, ReasonUnprovenMaybeOK},
		{"webm", func(t *testing.T) model.PlaybackSource { return local(t, "/m/clip.webm") }, Unknown, ReasonUnprovenMaybeOK},
		{"no extension", func(t *testing.T) model.PlaybackSource { return local(t, "/m/README") }, Unknown, ReasonUnprovenMaybeOK},
		{"mkv", func(t *testing.T) model.PlaybackSource { return local(t, "/m/show.mkv") }, NeedsTranscode, ReasonDeniedContainer},
		{"upper case avi", func(t *testing.T) model.PlaybackSource { return local(t, "/m/OLD.AVI") }, NeedsTranscode, ReasonDeniedContainer},
		{"m2ts", func(t *testing.T) model.PlaybackSource { return local(t, "/m/disc.m2ts") }, NeedsTranscode, ReasonDeniedContainer},
		{"zero source", func(t *testing.T) model.PlaybackSource { return model.PlaybackSource{} }, Unknown, ReasonInvalidReference},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := c.Classify(tc.src(t))
			assert.Equal(t, tc.category, out.Category)
			assert.Equal(t, tc.reason, out.Reason)
		})
	}
}

func TestClassify_DeterministicPerExtension(t *testing.T) {
	c := New()
	exts := []string{"mp4", "m4v", "webm", "mkv", "avi", "wmv", "flv", "mov", "ts", "m2ts", "mts", "vob", "divx", "xvid", "rm", "rmvb", "ogv", "3gp", ""}
	for _, ext := range exts {
		path := "/media/file"
		if ext != "" {
			path += "." + ext
		}
		src := local(t, path)
		first := c.Classify(src)
		for i := 0; i < 50; i++ {
			require.Equal(t, first, c.Classify(src), "extension %q", ext)
		}
	}
}

func TestMimeTypeFor(t *testing.T) {
	assert.Equal(t, "video/mp4", MimeTypeFor("mp4"))
	assert.Equal(t, "video/mp4", MimeTypeFor(".M4V"))
	assert.Equal(t, "video/webm", MimeTypeFor("webm"))
	assert.Equal(t, "video/mp4", MimeTypeFor("ogv"))
	assert.Equal(t, "video/mp4", MimeTypeFor(""))
}

func TestIsDenied(t *testing.T) {
	for _, ext := range []string{"mkv", ".avi", "WMV", "flv", "mov", "ts", "m2ts", "mts", "vob", "divx", "xvid", "rm", "rmvb"} {
		assert.True(t, IsDenied(ext), ext)
	}
	for _, ext := range []string{"mp4", "m4v", "webm", ""} {
		assert.False(t, IsDenied(ext), ext)
	}
}
