// Copyright (c) 2024 The Topaz Authors
// released under the MIT license

package flock

// Flocker is satisfied by *flock.Flock. It is not a sync.Locker, since
// Unlock returns an error.
type Flocker interface {
	Unlock() error
}

type noopFlocker struct{}

func (n *noopFlocker) Unlock() error {
	return nil
}
