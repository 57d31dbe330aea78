// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package lifecycle

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/ManuGH/playbackd/internal/domain/playback/model"
)

type reasonError struct {
	reason model.ReasonCode
	detail string
	err    error
}

func (e *reasonError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return string(e.reason)
}

func (e *reasonError) Is(target error) bool {
	if target == nil {
		return false
	}
	class := ReasonErrorClass(e.reason)
	return class != nil && target == class
}

func (e *reasonError) Unwrap() error {
	return e.err
}

// NewReasonError attaches a reason code to err.
func NewReasonError(reason model.ReasonCode, detail string, err error) error {
	return &reasonError{reason: reason, detail: detail, err: err}
}

// ReasonErrorClass maps a reason code onto its model error class.
func ReasonErrorClass(reason model.ReasonCode) error {
	switch reason {
	case model.RSourceUnavailable:
		return model.ErrSourceUnavailable
	case model.RReadFailure:
		return model.ErrReadFailure
	case model.RUnsupportedFormat, model.RPlayerFatal:
		return model.ErrUnsupportedFormat
	case model.RTranscodeFailure, model.RTranscodeExhausted:
		return model.ErrTranscodeFailure
	case model.RCancelled, model.RClientClose, model.RSuperseded:
		return model.ErrCancelled
	default:
		return nil
	}
}

// ClassifyReason derives a reason code and a sanitised detail from err.
func ClassifyReason(err error) (model.ReasonCode, string) {
	if err == nil {
		return model.RNone, ""
	}

	var rerr *reasonError
	if errors.As(err, &rerr) {
		detail := rerr.detail
		if detail == "" && rerr.err != nil {
			detail = rerr.err.Error()
		}
		return rerr.reason, sanitizeDetail(detail)
	}

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, model.ErrCancelled):
		return model.RCancelled, ""
	case errors.Is(err, model.ErrSourceUnavailable):
		return model.RSourceUnavailable, sanitizeDetail(err.Error())
	case errors.Is(err, model.ErrReadFailure):
		return model.RReadFailure, sanitizeDetail(err.Error())
	case errors.Is(err, model.ErrUnsupportedFormat):
		return model.RUnsupportedFormat, sanitizeDetail(err.Error())
	case errors.Is(err, model.ErrTranscodeFailure):
		return model.RTranscodeFailure, sanitizeDetail(err.Error())
	}
	return model.RUnknown, sanitizeDetail(err.Error())
}

// IsCancellation reports whether err only signals abandonment of a session.
func IsCancellation(err error) bool {
	reason, _ := ClassifyReason(err)
	return reason == model.RCancelled
}

func sanitizeDetail(detail string) string {
	if detail == "" {
		return ""
	}
	const maxLen = 160
	clean := strings.ReplaceAll(detail, "\n", " ")
	if len(clean) > maxLen {
		cut := maxLen
		for cut > 0 && !utf8.RuneStart(clean[cut]) {
			cut--
		}
		return clean[:cut] + "..."
	}
	return clean
}
