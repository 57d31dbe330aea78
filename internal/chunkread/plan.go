// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package chunkread

// Range is one requested byte range [Offset, Offset+Length).
type Range struct {
	Offset int64
	Length int64
}

func (r Range) End() int64 { return r.Offset + r.Length }

// Plan tiles [0, size) into sequential ranges of at most chunkSize bytes.
func Plan(size, chunkSize int64) []Range {
	if size <= 0 || chunkSize <= 0 {
		return nil
	}
	n := (size + chunkSize - 1) / chunkSize
	out := make([]Range, 0, n)
	for off := int64(0); off < size; off += chunkSize {
		out = append(out, Range{Offset: off, Length: min(chunkSize, size-off)})
	}
	return out
}
