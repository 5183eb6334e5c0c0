// Copyright (c) 2020 Shivaram Lingamneni <slingamn@cs.stanford.edu>
// Copyright (c) 2024 The Topaz Authors
// released under the MIT license

package utils

import (
	"regexp"
	"testing"
)

func globMustCompile(glob string, fold bool) *regexp.Regexp {
	re, err := CompileGlob(glob, fold)
	if err != nil {
		panic(err)
	}
	return re
}

func assertMatches(glob, str string, match bool, t *testing.T) {
	re := globMustCompile(glob, false)
	if re.MatchString(str) != match {
		t.Errorf("should %s match %s? %t, but got %t instead", glob, str, match, !match)
	}
}

func TestGlob(t *testing.T) {
	assertMatches("https://panel.example.net", "https://panel.example.net", true, t)
	assertMatches("https://*.example.net", "https://panel.example.net", true, t)
	assertMatches("*://*.example.net", "https://panel.example.net", true, t)
	assertMatches("*://*.example.net", "https://example.net", false, t)
	assertMatches("*://*.example.net", "https://githubusercontent.com", false, t)
	assertMatches("*://*.example.net", "https://panel.example.net.evil.com", false, t)

	assertMatches("", "", true, t)
	assertMatches("", "x", false, t)
	assertMatches("*", "", true, t)
	assertMatches("*", "x", true, t)

	assertMatches("sh?p", "shop", true, t)
	assertMatches("sh?p", "ship", true, t)
	assertMatches("sh?p", "shp", false, t)
	assertMatches("sh?p", "shops", false, t)
	assertMatches("?*", "shop", true, t)
	assertMatches("?*", "", false, t)

	assertMatches("S*e", "Skåne", true, t)
	assertMatches("Sk?ne", "Skåne", true, t)
}

func TestGlobFold(t *testing.T) {
	re := globMustCompile("Shop*", true)
	if !re.MatchString("shop-weapons") || !re.MatchString("SHOP") {
		t.Error("folded glob should match case-insensitively")
	}
	if globMustCompile("Shop*", false).MatchString("shop") {
		t.Error("unfolded glob should be case-sensitive")
	}
}

func TestMatchesAny(t *testing.T) {
	globs, err := CompileGlobs([]string{"https://*.example.net", "http://localhost:*"}, false)
	if err != nil {
		t.Fatal(err)
	}
	if !MatchesAny(globs, "http://localhost:8080") || !MatchesAny(globs, "https://a.example.net") {
		t.Error("expected a match")
	}
	if MatchesAny(globs, "https://example.org") || MatchesAny(nil, "anything") {
		t.Error("expected no match")
	}
	if _, err := CompileGlobs([]string{"\xff"}, false); err == nil {
		t.Error("expected an error for invalid UTF-8")
	}
}

func BenchmarkGlob(b *testing.B) {
	g := globMustCompile("https://*example.net", false)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		g.MatchString("https://www.example.net")
	}
}
