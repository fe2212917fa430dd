package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ReportsKey is the recent-reports list for an analysis type, e.g. "swotReports".
func ReportsKey(feature string) string {
	return fmt.Sprintf("%sReports", feature)
}

// CurrentKey is the current-report slot, e.g. "currentSwotAnalysis".
func CurrentKey(feature string) string {
	return fmt.Sprintf("current%sAnalysis", upperFirst(feature))
}

// QueryKey is the per-query slot keyed by a hash of the free-text input,
// e.g. "marketAssessmentAnalysis_3fa1c2d4e5b6a7f8".
func QueryKey(feature, query string) string {
	return fmt.Sprintf("%sAnalysis_%s", feature, QueryHash(query))
}

// QueryHash normalizes whitespace and case before hashing so trivially
// different spellings of the same question share a slot.
func QueryHash(query string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(query), " "))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:8])
}

func RateLimitKey(client string) string {
	return fmt.Sprintf("ratelimit:%s", client)
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
