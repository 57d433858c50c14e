package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidFurigana(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"katakana", "アイウエオ", true},
		{"prolonged mark accepted", "アイウー", true},
		{"latin rejected", "abc", false},
		{"empty rejected", "", false},
		{"hiragana rejected", "あいう", false},
		{"mixed rejected", "アaイ", false},
		{"prolonged mark alone", "ー", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidFurigana(tt.input))
		})
	}
}

func TestValidPassword(t *testing.T) {
	assert.False(t, ValidPassword("password"))
	assert.True(t, ValidPassword("Password"), "exact match only, case-sensitive")
	assert.True(t, ValidPassword("s3cret"))
	assert.True(t, ValidPassword(""))
}

func TestValidatePurchaseInput_AllFieldsChecked(t *testing.T) {
	// Every check runs even when an earlier one fails.
	r := ValidatePurchaseInput("abc", "def", "password")

	assert.False(t, r.OK())
	assert.NotEmpty(t, r.FuriganaSeiMsg)
	assert.NotEmpty(t, r.FuriganaMeiMsg)
	assert.NotEmpty(t, r.PasswordMsg)
}

func TestValidatePurchaseInput_PartialFailure(t *testing.T) {
	r := ValidatePurchaseInput("ヤマダ", "abc", "s3cret")

	assert.False(t, r.OK())
	assert.Empty(t, r.FuriganaSeiMsg)
	assert.NotEmpty(t, r.FuriganaMeiMsg)
	assert.Empty(t, r.PasswordMsg)
}

func TestValidatePurchaseInput_Valid(t *testing.T) {
	r := ValidatePurchaseInput("ヤマダ", "タロウ", "s3cret")
	assert.True(t, r.OK())
}
