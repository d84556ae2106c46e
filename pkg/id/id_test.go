package id

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	t.Parallel()

	a := New()
	b := New()

	assert.Len(t, a, 26)
	assert.NotEqual(t, a, b)

	// IDs generated in sequence sort in creation order.
	assert.Less(t, a, b)
}
