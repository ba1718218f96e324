package converter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAmountRoundTrip(t *testing.T) {
	assert.Equal(t, 15000, ConvertAmount(150))
	assert.Equal(t, 1999, ConvertAmount(19.99))
	assert.Equal(t, 165.0, FormatAmount(16500))
	assert.Equal(t, 0.01, FormatAmount(1))
}
