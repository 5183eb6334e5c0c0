// Copyright (c) 2019 Shivaram Lingamneni
// Copyright (c) 2024 The Topaz Authors
// released under the MIT license

package utils

import (
	"sync"
	"testing"
)

func TestTryAcquire(t *testing.T) {
	count := 3
	var sem Semaphore
	sem.Initialize(count)

	for i := 0; i < count; i++ {
		if !sem.TryAcquire() {
			t.Fatalf("acquire %d failed", i)
		}
	}
	// used up the capacity
	if sem.TryAcquire() {
		t.Error("acquired past capacity")
	}
	sem.Release()
	// got one slot back
	if !sem.TryAcquire() {
		t.Error("could not reacquire a released slot")
	}
}

func TestConcurrentAcquire(t *testing.T) {
	var sem Semaphore
	sem.Initialize(4)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if sem.TryAcquire() {
				sem.Release()
			}
		}()
	}
	wg.Wait()
	if sem.Available() != 4 {
		t.Errorf("expected all 4 slots free, got %d", sem.Available())
	}
}
