// Copyright (c) 2018 Shivaram Lingamneni
// Copyright (c) 2024 The Topaz Authors
// released under the MIT license

package utils

import (
	"io"
	"os"
)

// CopyFile copies src to dst, truncating dst if it exists.
func CopyFile(src string, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return
	}
	defer func() {
		closeError := out.Close()
		if err == nil {
			err = closeError
		}
	}()
	_, err = io.Copy(out, in)
	return
}

// FileExists reports whether path can be stat'ed.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
