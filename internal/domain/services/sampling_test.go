package services

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleIndexes(t *testing.T) {
	first := SampleIndexes(1000, 25, DefaultSeed)
	require.Len(t, first, 25)
	assert.True(t, slices.IsSorted(first))
	assert.Equal(t, first, SampleIndexes(1000, 25, DefaultSeed), "same seed, same subset")
	assert.NotEqual(t, first, SampleIndexes(1000, 25, DefaultSeed+1))

	for i := 1; i < len(first); i++ {
		assert.Less(t, first[i-1], first[i], "indexes are unique")
	}
	assert.GreaterOrEqual(t, first[0], 0)
	assert.Less(t, first[len(first)-1], 1000)
}

func TestSampleIndexes_Bounds(t *testing.T) {
	tests := []struct {
		name     string
		n, k     int
		expected []int
	}{
		{name: "limit above total", n: 3, k: 10, expected: []int{0, 1, 2}},
		{name: "limit equals total", n: 3, k: 3, expected: []int{0, 1, 2}},
		{name: "no limit", n: 2, k: 0, expected: []int{0, 1}},
		{name: "empty source", n: 0, k: 5, expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SampleIndexes(tt.n, tt.k, DefaultSeed))
		})
	}
}

func TestFirstIndexes(t *testing.T) {
	assert.Equal(t, []int{0, 1}, FirstIndexes(5, 2))
	assert.Equal(t, []int{0, 1, 2}, FirstIndexes(3, 0))
	assert.Equal(t, []int{0, 1, 2}, FirstIndexes(3, 7))
}
