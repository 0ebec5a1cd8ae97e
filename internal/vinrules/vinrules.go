package vinrules

import (
	"strings"
)

// Rule names reported in a Verdict.
const (
	RuleMissing            = "missing"
	RuleUniform17          = "uniform_17"
	RuleSingleCharRepeat   = "single_char_repeat"
	RulePlaceholder        = "placeholder"
	RuleInvalidAlphabet    = "invalid_alphabet"
	RuleFakeSequence       = "fake_sequence"
	RuleContactKeyword     = "contact_keyword"
	RuleManufacturerFiller = "manufacturer_filler"
)

var placeholderWords = []string{
	"zapytaj",
	"wysylam",
	"kontakt",
	"zadzwon",
	"nrvin",
	"astaz",
	"error",
	"xxxx",
	"vvvv",
	"zzzz",
	"yyyy",
	"www",
}

var fakeSequencePrefixes = []string{
	"123456789",
	"abcdefg",
	"012345",
	"987654",
	"abcdef",
}

var contactKeywords = []string{
	"tel",
	"phone",
	"contact",
	"zadzwon",
}

var manufacturerPrefixes = []string{
	"wauzzz",
	"vf",
	"wba",
}

const (
	// minXRun is the shortest run of "x" that counts as filler after a
	// manufacturer prefix.
	minXRun = 5
	// minTrailingRun is the shortest run of one character ending the VIN that
	// counts as filler. Six covers a whole production serial, so ordinary
	// serials such as 000001 or 100000 pass while 999999 does not.
	minTrailingRun = 6
)

// Verdict is the outcome of classifying a VIN. Rule is empty when the VIN
// passed every check.
type Verdict struct {
	Suspicious bool
	Rule       string
}

// IsSuspiciousVIN reports whether the VIN looks fake or like a placeholder.
// A nil VIN is suspicious.
func IsSuspiciousVIN(vin *string) bool {
	return Classify(vin).Suspicious
}

// Classify runs the VIN rules in order and stops at the first one that fires.
func Classify(vin *string) Verdict {
	if vin == nil {
		return suspicious(RuleMissing)
	}
	v := *vin

	if len(v) == 17 && isAlnumRun(v, 17) {
		return suspicious(RuleUniform17)
	}

	lower := strings.ToLower(v)
	if lower == v || strings.ToUpper(v) == v {
		if len(v) >= 2 && isAlnumRun(v, len(v)) {
			return suspicious(RuleSingleCharRepeat)
		}
	}

	for _, w := range placeholderWords {
		if strings.Contains(lower, w) {
			return suspicious(RulePlaceholder)
		}
	}

	for _, r := range lower {
		if !isVINRune(r) {
			return suspicious(RuleInvalidAlphabet)
		}
	}

	for _, p := range fakeSequencePrefixes {
		if strings.HasPrefix(lower, p) {
			return suspicious(RuleFakeSequence)
		}
	}

	for _, k := range contactKeywords {
		if strings.Contains(lower, k) {
			return suspicious(RuleContactKeyword)
		}
	}

	for _, p := range manufacturerPrefixes {
		if strings.HasPrefix(lower, p) && isFiller(lower[len(p):]) {
			return suspicious(RuleManufacturerFiller)
		}
	}

	return Verdict{}
}

func suspicious(rule string) Verdict {
	return Verdict{Suspicious: true, Rule: rule}
}

// isAlnumRun reports whether s is exactly n bytes of one ASCII letter or digit.
func isAlnumRun(s string, n int) bool {
	if len(s) != n || n == 0 || !isASCIIAlnum(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}

func isASCIIAlnum(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// isVINRune accepts lowercase VIN characters: digits and letters except i, o, q.
func isVINRune(r rune) bool {
	switch {
	case r >= '0' && r <= '9':
		return true
	case r >= 'a' && r <= 'z':
		return r != 'i' && r != 'o' && r != 'q'
	default:
		return false
	}
}

// isFiller reports whether the part of a VIN after its manufacturer prefix
// is padded: a run of x, or one character repeated up to the end.
func isFiller(rest string) bool {
	return strings.Contains(rest, strings.Repeat("x", minXRun)) || trailingRun(rest) >= minTrailingRun
}

// trailingRun is the length of the run of identical bytes that ends s.
func trailingRun(s string) int {
	if s == "" {
		return 0
	}
	n := 1
	for i := len(s) - 2; i >= 0 && s[i] == s[len(s)-1]; i-- {
		n++
	}
	return n
}
