// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package classify decides up front whether a source is likely to play
// natively in the embedded player or should go to the transcoder first.
package classify

import (
	"strings"

	"github.com/ManuGH/playbackd/internal/domain/playback/model"
)

type Category string

const (
	DirectPlay     Category = "direct"
	NeedsTranscode Category = "transcode"
	Unknown        Category = "unknown"
)

type Reason string

const (
	ReasonRemoteReference  Reason = "remote_reference"
	ReasonGeneratedHandle  Reason = "generated_handle"
	ReasonDeniedContainer  Reason = "denied_container"
	ReasonUnprovenMaybeOK  Reason = "unproven_container"
	ReasonInvalidReference Reason = "invalid_reference"
)

type Output struct {
	Category Category
	Reason   Reason
	MimeType string
}

// deniedContainers are containers the embedded player handles poorly enough
// that a chunked load is not worth the round trip.
var deniedContainers = map[string]struct{}{
	"mkv":  {},
	"avi":  {},
	"wmv":  {},
	"flv":  {},
	"mov":  {},
	"ts":   {},
	"m2ts": {},
	"mts":  {},
	"vob":  {},
	"divx": {},
	"xvid": {},
	"rm":   {},
	"rmvb": {},
}

var mimeTypes = map[string]string{
	"mp4":  "video/mp4",
	"m4v":  "video/mp4",
	"webm": "video/webm",
}

const defaultMimeType = "video/mp4"

// Classifier is stateless apart from the handle prefixes it recognises as
// already resolved streams.
type Classifier struct {
	handlePrefixes []string
}

// New returns a classifier. handlePrefixes are URL prefixes under which this
// process publishes generated stream handles (blob and transcode URLs).
func New(handlePrefixes ...string) *Classifier {
	prefixes := make([]string, 0, len(handlePrefixes))
	for _, p := range handlePrefixes {
		if p = strings.TrimSpace(p); p != "" {
			prefixes = append(prefixes, p)
		}
	}
	return &Classifier{handlePrefixes: prefixes}
}

func (c *Classifier) Classify(src model.PlaybackSource) Output {
	switch src.Kind() {
	case model.KindRemoteURL:
		if c.isGeneratedHandle(src.Ref()) {
			return Output{Category: DirectPlay, Reason: ReasonGeneratedHandle}
		}
		return Output{Category: DirectPlay, Reason: ReasonRemoteReference}
	case model.KindLocalPath:
		ext := src.Ext()
		if IsDenied(ext) {
			return Output{Category: NeedsTranscode, Reason: ReasonDeniedContainer, MimeType: MimeTypeFor(ext)}
		}
		return Output{Category: Unknown, Reason: ReasonUnprovenMaybeOK, MimeType: MimeTypeFor(ext)}
	default:
		return Output{Category: Unknown, Reason: ReasonInvalidReference}
	}
}

func (c *Classifier) isGeneratedHandle(ref string) bool {
	for _, p := range c.handlePrefixes {
		if strings.HasPrefix(ref, p) {
			return true
		}
	}
	return false
}

// IsDenied reports whether ext names a container on the transcode-first list.
func IsDenied(ext string) bool {
	_, ok := deniedContainers[model.NormalizeExt(ext)]
	return ok
}

// MimeTypeFor maps an extension to the MIME type handed to the player.
func MimeTypeFor(ext string) string {
	if mt, ok := mimeTypes[model.NormalizeExt(ext)]; ok {
		return mt
	}
	return defaultMimeType
}
