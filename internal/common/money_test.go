package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatBRL(t *testing.T) {
	tests := []struct {
		name     string
		centavos int64
		want     string
	}{
		{"zero", 0, "R$ 0,00"},
		{"under one real", 7, "R$ 0,07"},
		{"round value", 5000, "R$ 50,00"},
		{"with cents", 25099, "R$ 250,99"},
		{"thousands", 123456789, "R$ 1.234.567,89"},
		{"exactly one thousand", 100000, "R$ 1.000,00"},
		{"negative", -2500, "-R$ 25,00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatBRL(tt.centavos))
		})
	}
}
