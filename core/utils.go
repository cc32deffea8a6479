package core

import "strings"

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// ClampScore bounds a conduct score to [0, max].
func ClampScore(score, max int) int {
	if score < 0 {
		return 0
	}
	if score > max {
		return max
	}
	return score
}

// CapScore bounds a conduct score to max only, leaving the lower end open.
// Deductions historically never clamped at 0; see ConductConfig.StrictScoreFloor.
func CapScore(score, max int) int {
	if score > max {
		return max
	}
	return score
}
