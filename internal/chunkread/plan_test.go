// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package chunkread

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestPlan_ExactTiling(t *testing.T) {
	chunkSizes := []int64{1, 3, 7, 1024, DefaultChunkSize}
	sizes := []int64{1, 2, 3, 10, 1023, 1024, 1025, 4096, 50 << 20, 50<<20 + 1, 3*DefaultChunkSize - 1}

	for _, c := range chunkSizes {
		for _, n := range sizes {
			if n/c > 1<<16 {
				continue
			}
			ranges := Plan(n, c)
			var next, sum int64
			for _, r := range ranges {
				require.Equal(t, next, r.Offset, "gap or overlap: size=%d chunk=%d", n, c)
				require.Positive(t, r.Length)
				require.LessOrEqual(t, r.Length, c)
				next = r.End()
				sum += r.Length
			}
			require.Equal(t, n, sum, "size=%d chunk=%d", n, c)
			require.Equal(t, n, next)
		}
	}
}

func TestPlan_FiftyMiB(t *testing.T) {
	const mib = 1 << 20
	want := []Range{
		{Offset: 0, Length: 10 * mib},
		{Offset: 10 * mib, Length: 10 * mib},
		{Offset: 20 * mib, Length: 10 * mib},
		{Offset: 30 * mib, Length: 10 * mib},
		{Offset: 40 * mib, Length: 10 * mib},
	}
	if diff := cmp.Diff(want, Plan(50*mib, 10*mib)); diff != "" {
		t.Fatalf("plan mismatch (-want +got):\n%s", diff)
	}
}

func TestPlan_Degenerate(t *testing.T) {
	require.Empty(t, Plan(0, 10))
	require.Empty(t, Plan(10, 0))
	require.Empty(t, Plan(-1, 10))
}
