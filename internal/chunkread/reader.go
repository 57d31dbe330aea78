// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package chunkread assembles a local file into one in-memory buffer through
// sequential, cancellable chunk reads.
package chunkread

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"

	"github.com/ManuGH/playbackd/internal/classify"
	"github.com/ManuGH/playbackd/internal/domain/playback/model"
	xglog "github.com/ManuGH/playbackd/internal/log"
	"github.com/ManuGH/playbackd/internal/metrics"
	"github.com/ManuGH/playbackd/internal/telemetry"
)

const (
	DefaultChunkSize          int64 = 10 << 20
	DefaultLargeFileThreshold int64 = 4 << 30
)

// Buffer is a fully assembled file. Len(Data) always equals the size the
// source reported when the load started.
type Buffer struct {
	Data     []byte
	MimeType string
}

func (b *Buffer) Size() int64 { return int64(len(b.Data)) }

// ProgressFunc receives the bytes assembled so far after every chunk.
type ProgressFunc func(loaded, total int64)

type Options struct {
	ChunkSize          int64
	LargeFileThreshold int64
	Logger             *zerolog.Logger
}

// Reader loads files chunk by chunk. It holds no per-load state, so one
// Reader can serve any number of concurrent loads.
type Reader struct {
	src       FileSource
	chunkSize int64
	largeFile int64
	logger    zerolog.Logger
}

func New(src FileSource, opts Options) *Reader {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.LargeFileThreshold <= 0 {
		opts.LargeFileThreshold = DefaultLargeFileThreshold
	}
	logger := xglog.WithComponent("chunkread")
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Reader{src: src, chunkSize: opts.ChunkSize, largeFile: opts.LargeFileThreshold, logger: logger}
}

func (r *Reader) ChunkSize() int64 { return r.chunkSize }

// Load reads path from offset 0 up to its reported size. Any failure,
// including cancellation, discards the partial buffer.
func (r *Reader) Load(ctx context.Context, path string, onProgress ProgressFunc) (*Buffer, error) {
	ctx, span := telemetry.Tracer("playbackd.chunkread").Start(ctx, "chunkread.load")
	defer span.End()

	started := time.Now()
	buf, err := r.load(ctx, path, onProgress)
	result := "ok"
	switch {
	case errors.Is(err, model.ErrCancelled):
		result = "cancelled"
	case err != nil:
		result = "error"
	}
	metrics.ObserveLoad(result, time.Since(started))
	if err != nil {
		span.SetAttributes(telemetry.ErrorAttributes(result)...)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(telemetry.LoadAttributes(buf.Size(), r.chunkSize, len(Plan(buf.Size(), r.chunkSize)))...)
	return buf, nil
}

func (r *Reader) load(ctx context.Context, path string, onProgress ProgressFunc) (*Buffer, error) {
	logger := xglog.WithContext(ctx, r.logger).With().Str(xglog.FieldPath, path).Logger()

	size, err := r.src.Size(ctx, path)
	if err != nil {
		if ctx.Err() != nil {
			return nil, cancelled(ctx)
		}
		return nil, fmt.Errorf("%w: size query %s: %w", model.ErrSourceUnavailable, path, err)
	}
	if size < 0 {
		return nil, fmt.Errorf("%w: negative size %d for %s", model.ErrSourceUnavailable, size, path)
	}
	if size > r.largeFile {
		metrics.IncLargeFiles()
		logger.Warn().
			Str(xglog.FieldEvent, "chunkread.large_file").
			Int64(xglog.FieldSize, size).
			Int64("threshold", r.largeFile).
			Msg("assembling very large file in memory")
	}

	data := make([]byte, size)
	var offset int64
	for offset < size {
		if ctx.Err() != nil {
			return nil, cancelled(ctx)
		}
		want := min(r.chunkSize, size-offset)
		chunk, err := r.src.ReadChunk(ctx, path, offset, want)
		if err != nil {
			if ctx.Err() != nil {
				metrics.RecordChunkRead("cancelled", 0)
				return nil, cancelled(ctx)
			}
			metrics.RecordChunkRead("error", 0)
			return nil, fmt.Errorf("%w: chunk at offset %d: %w", model.ErrReadFailure, offset, err)
		}
		got := int64(len(chunk))
		if got == 0 || got > want {
			metrics.RecordChunkRead("error", 0)
			return nil, fmt.Errorf("%w: chunk at offset %d returned %d bytes, requested %d", model.ErrReadFailure, offset, got, want)
		}
		copy(data[offset:], chunk)
		offset += got
		metrics.RecordChunkRead("ok", len(chunk))
		logger.Trace().Int64(xglog.FieldOffset, offset-got).Int64(xglog.FieldLength, got).Msg("chunk read")
		if onProgress != nil {
			onProgress(offset, size)
		}
	}

	// A completion that lands after cancellation is still discarded.
	if ctx.Err() != nil {
		return nil, cancelled(ctx)
	}

	logger.Debug().
		Str(xglog.FieldEvent, "chunkread.loaded").
		Int64(xglog.FieldSize, size).
		Msg("file assembled")
	return &Buffer{Data: data, MimeType: classify.MimeTypeFor(filepath.Ext(path))}, nil
}

func cancelled(ctx context.Context) error {
	return fmt.Errorf("%w: %w", model.ErrCancelled, context.Cause(ctx))
}
