package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToCents(t *testing.T) {
	tests := []struct {
		amount   float64
		expected int64
	}{
		{0, 0},
		{30, 3000},
		{0.1 + 0.2, 30},
		{19.99, 1999},
		{-4.5, -450},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ToCents(tt.amount), "ToCents(%v)", tt.amount)
	}
}

func TestRoundMoney(t *testing.T) {
	assert.Equal(t, 0.3, RoundMoney(0.1+0.2))
	assert.Equal(t, 12.35, RoundMoney(12.345000001))
	assert.Equal(t, 45.0, FromCents(4500))
}
