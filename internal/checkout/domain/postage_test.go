package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputePostage(t *testing.T) {
	tests := []struct {
		region string
		want   int64
	}{
		{"Okinawa", 1080},
		{"Hokkaido", 1080},
		{"沖縄県", 1080},
		{"北海道", 1080},
		{"東京都", 540},
		{"Tokyo", 540},
		{"", 540},
	}
	for _, tt := range tests {
		t.Run(tt.region, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputePostage(tt.region))
		})
	}
}
