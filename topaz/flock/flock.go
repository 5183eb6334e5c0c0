// Copyright (c) 2024 The Topaz Authors
// released under the MIT license

//go:build !(plan9 || solaris)

package flock

import (
	"errors"

	"github.com/gofrs/flock"
)

var (
	ErrCouldntAcquire = errors.New("Couldn't acquire flock (is another topaz process using the datastore?)")
)

// TryAcquireFlock takes an exclusive lock on path without blocking. The
// file is created if it does not exist.
func TryAcquireFlock(path string) (fl Flocker, err error) {
	f := flock.New(path)
	success, err := f.TryLock()
	if err != nil {
		return nil, err
	} else if !success {
		return nil, ErrCouldntAcquire
	}
	return f, nil
}
