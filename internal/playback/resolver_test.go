// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package playback

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ManuGH/playbackd/internal/chunkread"
	"github.com/ManuGH/playbackd/internal/domain/playback/model"
)

const mib = 1 << 20

func TestResolver_LocalMP4LoadsInChunks(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	h := newHarness(t, 10*mib)
	defer h.shutdown(t)

	h.files.sizes["/media/movie.mp4"] = 50 * mib
	snap := h.open(t, localSource(t, "/media/movie.mp4"))
	assert.Contains(t, []model.Phase{model.PhaseLoading, model.PhaseReady}, snap.Phase)

	snap = h.waitPhase(t, model.PhaseReady, model.PhaseFailed)
	require.Equal(t, model.PhaseReady, snap.Phase)
	require.NotNil(t, snap.Stream)
	assert.Equal(t, model.HandleBlob, snap.Stream.Kind)
	assert.Equal(t, "video/mp4", snap.Stream.MimeType)
	assert.True(t, strings.HasPrefix(snap.Stream.URL, h.blobs.URLPrefix()))
	assert.Equal(t, int64(50*mib), snap.BytesLoaded)
	assert.Equal(t, int64(50*mib), snap.BytesTotal)
	assert.Equal(t, model.IndicatorPlaying, snap.Indicator)

	if diff := cmp.Diff(chunkread.Plan(50*mib, 10*mib), h.files.readsOf("/media/movie.mp4")); diff != "" {
		t.Fatalf("reads mismatch (-want +got):\n%s", diff)
	}
	assert.Zero(t, h.transcoder.startCount())
	assert.Equal(t, 1, h.blobs.Len())

	h.resolver.Close(context.Background())
	assert.Equal(t, 0, h.blobs.Len(), "buffer released on close")
	assert.Equal(t, []bool{false}, h.sink.endedEvents())
}

func TestResolver_DeniedContainerGoesStraightToTranscode(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	h := newHarness(t, 10*mib)
	defer h.shutdown(t)

	snap := h.open(t, localSource(t, "/media/show.mkv"))
	assert.Contains(t, []model.Phase{model.PhaseTranscodeStarting, model.PhaseTranscodeReady}, snap.Phase)
	assert.True(t, snap.TranscodeAttempted)

	snap = h.waitPhase(t, model.PhaseTranscodeReady, model.PhaseFailed)
	require.Equal(t, model.PhaseTranscodeReady, snap.Phase)
	assert.Equal(t, "http://transcoder/streams/42/index.m3u8", snap.Stream.URL)
	assert.Equal(t, model.HandleTranscode, snap.Stream.Kind)
	assert.Empty(t, h.files.readsOf("/media/show.mkv"), "no chunked load for denied containers")

	h.resolver.Close(context.Background())
	assert.Equal(t, []string{"42"}, h.transcoder.stopped())
	assert.Equal(t, model.PhaseIdle, h.resolver.Snapshot().Phase)
}

func TestResolver_DecodeErrorFallsBackToTranscode(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	h := newHarness(t, mib)
	defer h.shutdown(t)

	h.files.sizes["/media/weird.mp4"] = 3 * mib
	h.open(t, localSource(t, "/media/weird.mp4"))
	h.waitPhase(t, model.PhaseReady)
	require.Equal(t, 1, h.blobs.Len())

	// Viewer got 42 seconds in before the codec failed.
	h.resolver.ReportProgress(context.Background(), 42, 600)

	snap := h.resolver.ReportPlayerError(context.Background(), MediaErrSrcNotSupported, "MEDIA_ERR_SRC_NOT_SUPPORTED")
	assert.Contains(t, []model.Phase{model.PhaseTranscodeStarting, model.PhaseTranscodeReady}, snap.Phase)
	assert.Equal(t, 0, h.blobs.Len(), "buffer released when leaving READY")

	snap = h.waitPhase(t, model.PhaseTranscodeReady, model.PhaseFailed)
	require.Equal(t, model.PhaseTranscodeReady, snap.Phase)
	assert.Equal(t, []float64{42}, h.transcoder.starts, "transcode resumes at last position")
	assert.True(t, snap.TranscodeAttempted)
}

func TestResolver_FallbackTranscodeFailureIsTerminal(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	h := newHarness(t, mib)
	defer h.shutdown(t)

	h.transcoder.startErr = errors.New("ffmpeg not found")
	h.files.sizes["/media/weird.mp4"] = 2 * mib
	h.open(t, localSource(t, "/media/weird.mp4"))
	h.waitPhase(t, model.PhaseReady)

	h.resolver.ReportPlayerError(context.Background(), MediaErrDecode, "")
	snap := h.waitPhase(t, model.PhaseFailed)

	assert.Equal(t, model.RTranscodeFailure, snap.Reason)
	assert.Contains(t, snap.Message, "MPV")
	assert.Contains(t, snap.Detail, "ffmpeg not found")
	assert.Equal(t, model.IndicatorError, snap.Indicator)
	assert.Nil(t, snap.Stream)
	assert.Equal(t, 1, h.transcoder.startCount())
	assert.Empty(t, h.transcoder.stopped(), "nothing to stop after a failed start")
}

func TestResolver_RemoteURLIsDirect(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	h := newHarness(t, mib)
	defer h.shutdown(t)

	src, err := model.NewRemoteSource("https://cdn.example.com/trailers/clip.webm", 0)
	require.NoError(t, err)
	snap := h.open(t, src)

	require.Equal(t, model.PhaseDirectReady, snap.Phase)
	assert.Equal(t, "https://cdn.example.com/trailers/clip.webm", snap.Stream.URL)
	assert.Equal(t, "video/webm", snap.Stream.MimeType)
	assert.Equal(t, model.HandleRemote, snap.Stream.Kind)
	assert.Zero(t, h.transcoder.startCount())
	assert.Empty(t, h.files.reads)
}

func TestResolver_SupersedeDiscardsLateLoad(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	h := newHarness(t, 10*mib)
	defer h.shutdown(t)

	h.files.sizes["/media/first.mp4"] = 50 * mib
	h.files.blockAt["/media/first.mp4"] = 30 * mib
	h.files.reached = make(chan struct{})
	h.files.release = make(chan struct{})
	h.files.sizes["/media/second.mp4"] = 20 * mib

	first := h.open(t, localSource(t, "/media/first.mp4"))
	<-h.files.reached
	assert.Equal(t, int64(30*mib), h.resolver.Snapshot().BytesLoaded, "three of five chunks read")

	second := h.open(t, localSource(t, "/media/second.mp4"))
	assert.Greater(t, second.Generation, first.Generation)
	ready := h.waitPhase(t, model.PhaseReady)
	require.Equal(t, second.SessionID, ready.SessionID)

	// Let the old read complete; nothing about the new session may change.
	close(h.files.release)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, h.resolver.Shutdown(ctx))

	after := h.resolver.Snapshot()
	assert.Equal(t, ready.SessionID, after.SessionID)
	assert.Equal(t, int64(20*mib), after.BytesTotal)
	assert.Len(t, h.files.readsOf("/media/first.mp4"), 4, "no chunk requested after supersession")
	assert.Zero(t, h.transcoder.startCount())
}

func TestResolver_SingleTranscodeAttemptPerSession(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	h := newHarness(t, mib)
	defer h.shutdown(t)

	h.files.sizes["/media/broken.mp4"] = 4 * mib
	h.files.failAt["/media/broken.mp4"] = 2 * mib

	h.open(t, localSource(t, "/media/broken.mp4"))
	snap := h.waitPhase(t, model.PhaseTranscodeReady, model.PhaseFailed)
	require.Equal(t, model.PhaseTranscodeReady, snap.Phase, "read failure falls back to transcode")
	assert.Equal(t, model.RReadFailure, snap.Reason)

	for _, code := range []PlayerErrorCode{MediaErrDecode, MediaErrSrcNotSupported, MediaErrDecode} {
		h.resolver.ReportPlayerError(context.Background(), code, "")
	}
	snap = h.resolver.Snapshot()
	assert.Equal(t, model.PhaseFailed, snap.Phase)
	assert.Equal(t, model.RTranscodeExhausted, snap.Reason)
	assert.Equal(t, 1, h.transcoder.startCount())
	assert.Equal(t, []string{"42"}, h.transcoder.stopped(), "stop issued exactly once on failure")

	h.resolver.Close(context.Background())
	assert.Equal(t, []string{"42"}, h.transcoder.stopped(), "close after failure does not stop again")
}

func TestResolver_ErrorsWhileTranscodeStartingAreIgnored(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	h := newHarness(t, mib)
	defer h.shutdown(t)

	h.transcoder.gate = make(chan struct{})
	h.open(t, localSource(t, "/media/show.avi"))
	for i := 0; i < 5; i++ {
		snap := h.resolver.ReportPlayerError(context.Background(), MediaErrSrcNotSupported, "")
		require.Equal(t, model.PhaseTranscodeStarting, snap.Phase)
	}
	close(h.transcoder.gate)
	h.waitPhase(t, model.PhaseTranscodeReady)
	assert.Equal(t, 1, h.transcoder.startCount())
}

func TestResolver_SupersedeDuringTranscodeStartStopsLateSession(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	h := newHarness(t, mib)
	defer h.shutdown(t)

	h.transcoder.gate = make(chan struct{})
	h.open(t, localSource(t, "/media/show.mkv"))

	src, err := model.NewRemoteSource("https://cdn.example.com/next.mp4", 0)
	require.NoError(t, err)
	snap := h.open(t, src)
	require.Equal(t, model.PhaseDirectReady, snap.Phase)

	close(h.transcoder.gate)
	h.resolver.workers.Wait()

	assert.Equal(t, []string{"42"}, h.transcoder.stopped(), "late session is stopped, never exposed")
	assert.Equal(t, "https://cdn.example.com/next.mp4", h.resolver.Snapshot().Stream.URL)
}

func TestResolver_MissingFileFailsWithoutTranscode(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	h := newHarness(t, mib)
	defer h.shutdown(t)

	h.open(t, localSource(t, "/media/gone.mp4"))
	snap := h.waitPhase(t, model.PhaseFailed)
	assert.Equal(t, model.RSourceUnavailable, snap.Reason)
	assert.NotEmpty(t, snap.Message)
	assert.Zero(t, h.transcoder.startCount())
}

func TestResolver_CloudBackedReadFailureIsFatal(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	h := newHarness(t, mib)
	defer h.shutdown(t)

	h.files.sizes["/cloud/show.mkv"] = 2 * mib
	h.files.failAt["/cloud/show.mkv"] = mib
	src, err := model.NewLocalSource("/cloud/show.mkv", 0, true)
	require.NoError(t, err)

	snap := h.open(t, src)
	assert.NotEqual(t, model.PhaseTranscodeStarting, snap.Phase, "cloud sources are never transcoded")
	snap = h.waitPhase(t, model.PhaseFailed)
	assert.Equal(t, model.RReadFailure, snap.Reason)
	assert.False(t, snap.TranscodeAttempted)
	assert.Zero(t, h.transcoder.startCount())
}

func TestResolver_NetworkErrorIsFatal(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	h := newHarness(t, mib)
	defer h.shutdown(t)

	h.files.sizes["/media/a.mp4"] = mib
	h.open(t, localSource(t, "/media/a.mp4"))
	h.waitPhase(t, model.PhaseReady)

	snap := h.resolver.ReportPlayerError(context.Background(), MediaErrNetwork, "net::ERR_FAILED")
	assert.Equal(t, model.PhaseFailed, snap.Phase)
	assert.Equal(t, model.RPlayerFatal, snap.Reason)
	assert.Zero(t, h.transcoder.startCount())
	assert.Equal(t, 0, h.blobs.Len(), "buffer released on failure")
}

func TestResolver_ProgressAndEnded(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	h := newHarness(t, mib)
	defer h.shutdown(t)

	h.files.sizes["/media/a.mp4"] = mib
	h.open(t, localSource(t, "/media/a.mp4"))
	h.waitPhase(t, model.PhaseReady)

	assert.True(t, h.resolver.ReportProgress(context.Background(), 1, 100))
	h.clock.Advance(time.Second)
	assert.False(t, h.resolver.ReportProgress(context.Background(), 2, 100), "throttled")
	h.clock.Advance(5 * time.Second)
	assert.True(t, h.resolver.ReportProgress(context.Background(), 8, 100))

	assert.True(t, h.resolver.ReportEnded(context.Background()))
	assert.False(t, h.resolver.ReportEnded(context.Background()))
	h.resolver.Close(context.Background())

	assert.Equal(t, []bool{true}, h.sink.endedEvents(), "ended reported once per session")
	assert.Len(t, h.sink.samples, 2)
	assert.False(t, h.resolver.ReportProgress(context.Background(), 9, 100), "idle ignores progress")
}

func TestResolver_SupersedeReportsIncompleteEnd(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	h := newHarness(t, mib)
	defer h.shutdown(t)

	src, err := model.NewRemoteSource("https://cdn.example.com/a.mp4", 0)
	require.NoError(t, err)
	h.open(t, src)
	h.files.sizes["/media/b.mp4"] = mib
	h.open(t, localSource(t, "/media/b.mp4"))

	assert.Equal(t, []bool{false}, h.sink.endedEvents())
}

func TestResolver_OpenRejectsZeroSource(t *testing.T) {
	h := newHarness(t, mib)
	_, err := h.resolver.Open(context.Background(), model.PlaybackSource{})
	require.ErrorIs(t, err, ErrInvalidSource)
	h.shutdown(t)

	_, err = h.resolver.Open(context.Background(), localSource(t, "/media/a.mp4"))
	require.ErrorIs(t, err, ErrResolverClosed)
}

func TestResolver_WaitForHonoursContext(t *testing.T) {
	h := newHarness(t, mib)
	defer h.shutdown(t)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	snap, err := h.resolver.WaitFor(ctx, PhaseIn(model.PhaseReady))
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, model.PhaseIdle, snap.Phase)
}
