// Copyright (c) 2026 Dripside. All rights reserved.
// Author: dev@dripside.in

// Package slug derives ASCII keys from arbitrary Unicode strings.
//
// Catalog items are unique by name; the store enforces that through a unique
// index on the slug, so "Café Noir", "cafe noir" and "CAFE-NOIR" collide.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9-]+`)
	multiHyphen     = regexp.MustCompile(`-{2,}`)
)

// From converts s into a lowercase, hyphen-separated ASCII key.
//
// Accents are stripped after NFD decomposition, everything that is not a
// letter or digit becomes a hyphen, and hyphen runs are collapsed.
func From(s string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn), norm.NFC)
	result, _, _ := transform.String(t, s)

	result = strings.ToLower(result)

	result = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '-'
	}, result)

	result = nonAlphanumeric.ReplaceAllString(result, "-")
	result = multiHyphen.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}

// Equal reports whether a and b normalize to the same key.
func Equal(a, b string) bool {
	return From(a) == From(b)
}

func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}
