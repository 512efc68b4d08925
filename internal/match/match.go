// Package match implements the ordered first-match-wins keyword scan shared
// by the analysis extractor, the fallback answer router and gateway model
// selection. Keyword order is significant: the first keyword found in the
// input decides the result, which keeps every classification reproducible
// for identical input text.
package match

import "strings"

// Rule pairs a keyword with the label chosen when the keyword is found.
type Rule struct {
	Keyword string
	Label   string
}

// First returns the first keyword from keys contained in s, case-insensitive.
func First(s string, keys []string) (string, bool) {
	ls := strings.ToLower(s)
	for _, k := range keys {
		if strings.Contains(ls, strings.ToLower(k)) {
			return k, true
		}
	}
	return "", false
}

// Contains reports whether s contains any of keys, case-insensitive.
func Contains(s string, keys []string) bool {
	_, ok := First(s, keys)
	return ok
}

// FirstLabel scans rules in order and returns the label of the first rule
// whose keyword occurs in s, case-insensitive.
func FirstLabel(s string, rules []Rule) (string, bool) {
	ls := strings.ToLower(s)
	for _, r := range rules {
		if strings.Contains(ls, strings.ToLower(r.Keyword)) {
			return r.Label, true
		}
	}
	return "", false
}
