// Copyright (c) 2018 Shivaram Lingamneni
// Copyright (c) 2024 The Topaz Authors
// released under the MIT license

package utils

import (
	"log"
	"runtime/debug"
)

// Semaphore is a counting semaphore. A capacity of n requires O(n) storage.
type Semaphore (chan struct{})

// Initialize fills the semaphore to the given capacity.
func (semaphore *Semaphore) Initialize(capacity int) {
	*semaphore = make(chan struct{}, capacity)
	for i := 0; i < capacity; i++ {
		(*semaphore) <- struct{}{}
	}
}

// TryAcquire takes a slot if one is free. It never blocks.
func (semaphore *Semaphore) TryAcquire() (acquired bool) {
	select {
	case <-(*semaphore):
		return true
	default:
		return false
	}
}

// Release returns a slot. It never blocks.
func (semaphore *Semaphore) Release() {
	select {
	case (*semaphore) <- struct{}{}:
	default:
		log.Printf("spurious semaphore release (full to capacity %d)", cap(*semaphore))
		debug.PrintStack()
	}
}

// Available reports how many slots are free.
func (semaphore *Semaphore) Available() int {
	return len(*semaphore)
}
