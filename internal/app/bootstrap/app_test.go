package bootstrap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskDSN(t *testing.T) {
	assert.Equal(t, "postgres://amp:****@db:5432/amp", maskDSN("postgres://amp:secret@db:5432/amp"))
	assert.Equal(t, "postgres://db:5432/amp", maskDSN("postgres://db:5432/amp"))
}
