package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrefetchCount(t *testing.T) {
	// Each worker should be able to hold one unacked delivery
	assert.Equal(t, 4, prefetchCount(4))
	assert.Equal(t, 1, prefetchCount(1))

	// Never a zero prefetch: 0 means unlimited on the wire
	assert.Equal(t, 1, prefetchCount(0))
	assert.Equal(t, 1, prefetchCount(-3))
}
