// Copyright (c) 2016-2017 Daniel Oaks <daniel@danieloaks.net>
// Copyright (c) 2024 The Topaz Authors
// released under the MIT license

package topaz

import (
	"strings"

	"github.com/ergochat/confusables"
	"golang.org/x/text/secure/precis"
	"golang.org/x/text/unicode/norm"
)

// Each pass of PRECIS casefolding is a composition of idempotent operations,
// but not idempotent itself, so repeat until it converges (at most four times,
// per draft-ietf-precis-7564bis-10 section 7).
func iterateFolding(profile *precis.Profile, oldStr string) (str string, err error) {
	str = oldStr
	for i := 0; i < 4; i++ {
		str, err = profile.CompareKey(str)
		if err != nil {
			return "", err
		}
		if oldStr == str {
			break
		}
		oldStr = str
	}
	if oldStr != str {
		return "", errCouldNotStabilize
	}
	return str, nil
}

// Casefold returns a casefolded string, without doing any menu name checks.
func Casefold(str string) (string, error) {
	return iterateFolding(precis.UsernameCaseMapped, str)
}

// CasefoldName returns the casefolded version of a menu name. Menu names are
// used in API paths and datastore keys, so separators are rejected.
func CasefoldName(name string) (string, error) {
	lowered, err := Casefold(name)

	if err != nil {
		return "", err
	} else if len(lowered) == 0 {
		return "", errStringIsEmpty
	}

	// space, / and ? would break the API path
	// * and ? are used in datastore key patterns
	// the legacy code prefixes would be translated in titles
	if strings.ContainsAny(lowered, " /?*&§#") {
		return "", errInvalidCharacter
	}

	return lowered, nil
}

// "boring" names are exempt from skeletonization, since confusables.txt
// considers plain ASCII pairs like 0/O, 1/l and rn/m confusable.
func isBoring(name string) bool {
	for i := 0; i < len(name); i += 1 {
		chr := name[i]
		if (chr >= 'a' && chr <= 'z') || (chr >= 'A' && chr <= 'Z') || (chr >= '0' && chr <= '9') {
			continue
		}
		switch chr {
		case '-', '_', '.', '(', ')', '[', ']':
			continue
		default:
			return false
		}
	}
	return true
}

var skeletonCasefolder = precis.NewIdentifier(precis.FoldWidth, precis.LowerCase(), precis.Norm(norm.NFC))

// like Casefold, but without the bidi rule, since skeletons may mix scripts
func casefoldSkeleton(str string) (string, error) {
	return iterateFolding(skeletonCasefolder, str)
}

// Skeleton produces a canonicalized identifier that catches homoglyphic menu
// names (e.g. Cyrillic "ѕhop" vs Latin "shop"). The skeleton is computed from
// the original name, not the casefolded one.
func Skeleton(name string) (string, error) {
	if !isBoring(name) {
		name = confusables.Skeleton(name)
	}
	return casefoldSkeleton(name)
}
