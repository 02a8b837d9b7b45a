package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckedAdd(t *testing.T) {
	sum, ok := CheckedAdd(1, 2)
	assert.True(t, ok)
	assert.Equal(t, uint64(3), sum)

	sum, ok = CheckedAdd(math.MaxUint64, 0)
	assert.True(t, ok)
	assert.Equal(t, uint64(math.MaxUint64), sum)

	_, ok = CheckedAdd(math.MaxUint64, 1)
	assert.False(t, ok)
}

func TestCheckedSub(t *testing.T) {
	diff, ok := CheckedSub(5, 3)
	assert.True(t, ok)
	assert.Equal(t, uint64(2), diff)

	diff, ok = CheckedSub(5, 5)
	assert.True(t, ok)
	assert.Equal(t, uint64(0), diff)

	_, ok = CheckedSub(3, 5)
	assert.False(t, ok)
}
