package util

import "strings"

// SplitList splits a comma separated list, trimming blanks and dropping empty items.
func SplitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Symbols is SplitList with each item upper-cased.
func Symbols(s string) []string {
	out := SplitList(s)
	for i, sym := range out {
		out[i] = strings.ToUpper(sym)
	}
	return out
}
