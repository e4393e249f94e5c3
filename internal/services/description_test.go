package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildDescription(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		note     string
		expected string
	}{
		{
			name:     "no note",
			title:    "Cicilan Motor",
			note:     "",
			expected: "Pay debt: Cicilan Motor",
		},
		{
			name:     "blank note is dropped",
			title:    "Cicilan Motor",
			note:     "   ",
			expected: "Pay debt: Cicilan Motor",
		},
		{
			name:     "note is trimmed",
			title:    "Cicilan Motor",
			note:     "  bulan ke-3  ",
			expected: "Pay debt: Cicilan Motor - bulan ke-3",
		},
		{
			name:     "note kept verbatim inside",
			title:    "Kartu Kredit",
			note:     "pelunasan sebagian",
			expected: "Pay debt: Kartu Kredit - pelunasan sebagian",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, BuildDescription(tt.title, tt.note))
		})
	}
}
