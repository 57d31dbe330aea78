// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package model holds the playback resolution aggregate: what to play, which
// phase the resolution is in and what the player was handed.
package model

import (
	"errors"
	"net/url"
	"path/filepath"
	"strings"
)

// SourceKind discriminates how a PlaybackSource is reached.
type SourceKind string

const (
	KindRemoteURL SourceKind = "remote_url"
	KindLocalPath SourceKind = "local_path"
)

var (
	ErrEmptyReference   = errors.New("empty source reference")
	ErrUnknownKind      = errors.New("unknown source kind")
	ErrNegativeOffset   = errors.New("negative start offset")
	ErrRelativeLocalRef = errors.New("local source path must be absolute")
)

// PlaybackSource is the immutable description of one playback request.
type PlaybackSource struct {
	kind        SourceKind
	ref         string
	startOffset float64
	ext         string
	cloudBacked bool
}

// NewRemoteSource builds a source for a URL the player can fetch itself.
func NewRemoteSource(rawURL string, startOffset float64) (PlaybackSource, error) {
	ref := strings.TrimSpace(rawURL)
	if ref == "" {
		return PlaybackSource{}, ErrEmptyReference
	}
	if startOffset < 0 {
		return PlaybackSource{}, ErrNegativeOffset
	}
	if _, err := url.Parse(ref); err != nil {
		return PlaybackSource{}, err
	}
	return PlaybackSource{kind: KindRemoteURL, ref: ref, startOffset: startOffset}, nil
}

// NewLocalSource builds a source for an absolute path on the local disk.
// cloudBacked marks files that are materialised by a cloud-folder indexer;
// they never fall back to transcoding.
func NewLocalSource(path string, startOffset float64, cloudBacked bool) (PlaybackSource, error) {
	ref := strings.TrimSpace(path)
	if ref == "" {
		return PlaybackSource{}, ErrEmptyReference
	}
	if startOffset < 0 {
		return PlaybackSource{}, ErrNegativeOffset
	}
	if !filepath.IsAbs(ref) {
		return PlaybackSource{}, ErrRelativeLocalRef
	}
	return PlaybackSource{
		kind:        KindLocalPath,
		ref:         ref,
		startOffset: startOffset,
		ext:         NormalizeExt(filepath.Ext(ref)),
		cloudBacked: cloudBacked,
	}, nil
}

// ParseSource builds a source from its wire representation.
func ParseSource(kind SourceKind, ref string, startOffset float64, cloudBacked bool) (PlaybackSource, error) {
	switch kind {
	case KindRemoteURL:
		return NewRemoteSource(ref, startOffset)
	case KindLocalPath:
		return NewLocalSource(ref, startOffset, cloudBacked)
	default:
		return PlaybackSource{}, ErrUnknownKind
	}
}

func (s PlaybackSource) Kind() SourceKind     { return s.kind }
func (s PlaybackSource) Ref() string          { return s.ref }
func (s PlaybackSource) StartOffset() float64 { return s.startOffset }

// Ext is the lower-cased extension without the dot; empty for remote sources.
func (s PlaybackSource) Ext() string { return s.ext }

func (s PlaybackSource) CloudBacked() bool { return s.cloudBacked }

// IsZero reports whether the source was never initialised.
func (s PlaybackSource) IsZero() bool { return s.kind == "" }

// TranscodeEligible reports whether a server-side transcode can read this
// source: only plain local files qualify.
func (s PlaybackSource) TranscodeEligible() bool {
	return s.kind == KindLocalPath && !s.cloudBacked
}

// NormalizeExt lower-cases an extension and strips the leading dot.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}
