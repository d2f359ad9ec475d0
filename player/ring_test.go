// SPDX-License-Identifier: EPL-2.0

package player

import (
	"testing"
)

func TestRing_WholeFrames(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		size    int
		frame   int
		wantCap int
	}{
		{"mono", 10, 1, 10},
		{"stereo", 1024, 2, 1024},
		{"three channels round up", 1024, 3, 1026},
		{"six channels", 6 * 64 * 4, 6, 6 * 64 * 4},
		{"smaller than a frame", 2, 5, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			q := newRing(tt.size, tt.frame)
			if q.Cap() != tt.wantCap {
				t.Fatalf("Cap() = %d, want %d", q.Cap(), tt.wantCap)
			}
			if q.Cap()%tt.frame != 0 {
				t.Fatalf("Cap() = %d is not a multiple of %d", q.Cap(), tt.frame)
			}
		})
	}
}

func TestRing_SplitFramesStayOut(t *testing.T) {
	t.Parallel()

	q := newRing(7, 3) // 9 samples
	if n := q.Write([]float32{1, 2, 3, 4, 5}); n != 3 {
		t.Fatalf("Write = %d, want 3", n)
	}
	if n := q.Write([]float32{4, 5, 6, 7, 8, 9, 10}); n != 6 {
		t.Fatalf("Write = %d, want 6", n)
	}

	dst := make([]float32, 5)
	if n := q.Read(dst); n != 3 {
		t.Fatalf("Read = %d, want 3", n)
	}
	if n := q.Write([]float32{10, 11, 12}); n != 3 {
		t.Fatalf("Write after wrap = %d, want 3", n)
	}

	got := make([]float32, 9)
	if n := q.Read(got); n != 9 {
		t.Fatalf("Read = %d, want 9", n)
	}
	for i, v := range got {
		if want := float32(i + 4); v != want {
			t.Fatalf("got[%d] = %v, want %v", i, v, want)
		}
	}
	if q.Len() != 0 {
		t.Fatalf("Len() = %d after draining", q.Len())
	}
}
