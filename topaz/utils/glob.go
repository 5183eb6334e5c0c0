// Copyright (c) 2020 Shivaram Lingamneni <slingamn@cs.stanford.edu>
// Copyright (c) 2024 The Topaz Authors
// released under the MIT license

package utils

import (
	"bytes"
	"regexp"
	"regexp/syntax"
)

// yet another glob implementation in Go

// CompileGlob compiles a glob where * matches any run of characters and ?
// matches a single character. With fold set, matching is case-insensitive.
func CompileGlob(glob string, fold bool) (result *regexp.Regexp, err error) {
	var buf bytes.Buffer
	if fold {
		buf.WriteString("(?i)")
	}
	buf.WriteByte('^')
	for _, r := range glob {
		switch r {
		case '*':
			buf.WriteString("(.*)")
		case '?':
			buf.WriteString("(.)")
		case 0xFFFD:
			return nil, &syntax.Error{Code: syntax.ErrInvalidUTF8, Expr: glob}
		default:
			buf.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	buf.WriteByte('$')
	return regexp.Compile(buf.String())
}

// CompileGlobs compiles each glob in globs.
func CompileGlobs(globs []string, fold bool) (result []*regexp.Regexp, err error) {
	for _, glob := range globs {
		re, err := CompileGlob(glob, fold)
		if err != nil {
			return nil, err
		}
		result = append(result, re)
	}
	return
}

// MatchesAny reports whether str matches at least one of the compiled globs.
func MatchesAny(globs []*regexp.Regexp, str string) bool {
	for _, re := range globs {
		if re.MatchString(str) {
			return true
		}
	}
	return false
}
