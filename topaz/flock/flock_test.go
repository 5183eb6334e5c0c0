// Copyright (c) 2024 The Topaz Authors
// released under the MIT license

//go:build !(plan9 || solaris)

package flock

import (
	"path/filepath"
	"testing"
)

func TestTryAcquireFlock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topaz.lock")

	first, err := TryAcquireFlock(path)
	if err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}

	if _, err := TryAcquireFlock(path); err != ErrCouldntAcquire {
		t.Errorf("expected ErrCouldntAcquire while held, got %v", err)
	}

	if err := first.Unlock(); err != nil {
		t.Fatal(err)
	}

	second, err := TryAcquireFlock(path)
	if err != nil {
		t.Fatalf("acquire after unlock failed: %v", err)
	}
	second.Unlock()
}
