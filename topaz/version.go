// Copyright (c) 2020 Shivaram Lingamneni
// Copyright (c) 2024 The Topaz Authors
// Released under the MIT license

package topaz

import "fmt"

const (
	// SemVer is the semantic version of topaz.
	SemVer = "0.3.0-unreleased"
)

var (
	// Ver is the full version of topaz, reported by the CLI and the API.
	Ver = fmt.Sprintf("topaz-%s", SemVer)
	// Commit is the full git hash, if available
	Commit string
)

// initialize version strings (these are set in package main via linker flags)
func SetVersionString(version, commit string) {
	Commit = commit
	if version != "" {
		Ver = fmt.Sprintf("topaz-%s", version)
	} else if len(Commit) == 40 {
		Ver = fmt.Sprintf("topaz-%s-%s", SemVer, Commit[:16])
	}
}
