package domain

import "regexp"

// Full-width katakana plus the prolonged-sound mark, one or more
// characters covering the whole string. Empty input does not match.
var furiganaPattern = regexp.MustCompile(`^[ァ-ンー]+$`)

// weakPassword is the one literal the form rejects outright.
const weakPassword = "password"

const (
	msgFurigana = "全角カタカナです!"
	msgPassword = "簡単すぎます!"
)

func ValidFurigana(s string) bool {
	return furiganaPattern.MatchString(s)
}

func ValidPassword(s string) bool {
	return s != weakPassword
}

// ValidationResult accumulates one message per failing field; passing
// fields keep an empty message.
type ValidationResult struct {
	FuriganaSeiMsg string
	FuriganaMeiMsg string
	PasswordMsg    string
}

func (r ValidationResult) OK() bool {
	return r.FuriganaSeiMsg == "" && r.FuriganaMeiMsg == "" && r.PasswordMsg == ""
}

// ValidatePurchaseInput runs all three field checks. Every check runs
// regardless of earlier failures so the user gets feedback on all fields
// in one pass.
func ValidatePurchaseInput(sei, mei, pwd string) ValidationResult {
	var r ValidationResult
	if !ValidFurigana(sei) {
		r.FuriganaSeiMsg = msgFurigana
	}
	if !ValidFurigana(mei) {
		r.FuriganaMeiMsg = msgFurigana
	}
	if !ValidPassword(pwd) {
		r.PasswordMsg = msgPassword
	}
	return r
}
