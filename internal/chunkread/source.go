// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package chunkread

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// FileSource is the narrow I/O boundary the reader talks to: one size query
// and positional reads that may return fewer bytes than requested.
type FileSource interface {
	Size(ctx context.Context, path string) (int64, error)
	ReadChunk(ctx context.Context, path string, offset, length int64) ([]byte, error)
}

var ErrPastEOF = errors.New("offset past end of file")

// OSFileSource reads from the local filesystem. Every call opens and closes
// the file so no descriptor outlives a request.
type OSFileSource struct{}

func (OSFileSource) Size(ctx context.Context, path string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if info.IsDir() {
		return 0, fmt.Errorf("%s: is a directory", path)
	}
	return info.Size(), nil
}

func (OSFileSource) ReadChunk(ctx context.Context, path string, offset, length int64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if length <= 0 {
		return nil, fmt.Errorf("invalid chunk length %d", length)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, length)
	n, err := f.ReadAt(buf, offset)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: offset %d", ErrPastEOF, offset)
	}
	return buf[:n], nil
}
