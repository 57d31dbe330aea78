// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package playback

// PlayerErrorCode is the numeric error a media element reports.
// Values follow the HTML MediaError codes.
type PlayerErrorCode int

const (
	MediaErrAborted         PlayerErrorCode = 1
	MediaErrNetwork         PlayerErrorCode = 2
	MediaErrDecode          PlayerErrorCode = 3
	MediaErrSrcNotSupported PlayerErrorCode = 4
)

func (c PlayerErrorCode) Class() string {
	switch c {
	case MediaErrAborted:
		return "aborted"
	case MediaErrNetwork:
		return "network"
	case MediaErrDecode:
		return "decode"
	case MediaErrSrcNotSupported:
		return "src_not_supported"
	default:
		return "unknown"
	}
}

// IsFormatClass reports whether the error says the player cannot handle the
// format or codec. Only these errors trigger the transcode fallback;
// aborts, network errors and unknown codes are fatal.
func (c PlayerErrorCode) IsFormatClass() bool {
	return c == MediaErrDecode || c == MediaErrSrcNotSupported
}
