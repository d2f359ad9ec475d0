// SPDX-License-Identifier: EPL-2.0

package delay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSamplesFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ms   float64
		rate int
		want int
	}{
		{ms: 500, rate: 44100, want: 22050},
		{ms: 200, rate: 44100, want: 8820},
		{ms: 0.01, rate: 44100, want: 1}, // 0.441 rounds up
		{ms: 5000, rate: 96000, want: 480000},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SamplesFor(tt.ms, tt.rate), "%vms @ %d", tt.ms, tt.rate)
	}
}

func TestNewLine(t *testing.T) {
	t.Parallel()

	l, err := NewLine(22050)
	require.NoError(t, err)
	assert.Equal(t, 22051, l.Len())
	assert.Equal(t, 22050, l.MaxOffset())

	zero, err := NewLine(0)
	require.NoError(t, err)
	assert.Equal(t, 1, zero.Len())

	_, err = NewLine(-1)
	assert.ErrorIs(t, err, ErrInvalidSize)
}

func TestLine_WriteThenRead(t *testing.T) {
	t.Parallel()

	l, err := NewLine(4)
	require.NoError(t, err)

	for i := 1; i <= 12; i++ {
		l.Write(float32(i))

		for off := 0; off <= l.MaxOffset(); off++ {
			want := float32(i - off)
			if want < 1 {
				want = 0
			}
			assert.Equal(t, want, l.Read(off), "after write %d offset %d", i, off)
		}
	}
}

func TestLine_ReadClamps(t *testing.T) {
	t.Parallel()

	l, err := NewLine(2)
	require.NoError(t, err)
	l.Write(1)
	l.Write(2)
	l.Write(3)

	assert.Equal(t, float32(1), l.Read(100))
	assert.Equal(t, float32(3), l.Read(-5))
}

func TestLine_Reset(t *testing.T) {
	t.Parallel()

	l, err := NewLine(8)
	require.NoError(t, err)
	for i := range 20 {
		l.Write(float32(i))
	}

	l.Reset()
	for off := range l.Len() {
		assert.Zero(t, l.Read(off))
	}

	l.Write(7)
	assert.Equal(t, float32(7), l.Read(0))
	assert.Zero(t, l.Read(1))
}

func TestLine_ZeroAllocs(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping allocation test in short mode")
	}

	l, err := NewLine(4096)
	require.NoError(t, err)

	allocs := testing.AllocsPerRun(100, func() {
		for i := range 512 {
			l.Write(float32(i))
			_ = l.Read(i)
		}
	})
	if allocs > 0 {
		t.Errorf("Write/Read allocated %v times, want 0", allocs)
	}
}

func BenchmarkLine_WriteRead(b *testing.B) {
	l, _ := NewLine(22050)
	b.ReportAllocs()

	for i := range b.N {
		l.Write(float32(i))
		_ = l.Read(8820)
	}
}
