// Copyright (c) 2022 Shivaram Lingamneni <slingamn@cs.stanford.edu>
// Copyright (c) 2024 The Topaz Authors
// released under the MIT license

package datastore

import (
	"errors"
	"time"
)

type Table uint16

// XXX these are persisted and must remain stable;
// do not reorder, when deleting use _ to ensure that the deleted value is skipped
const (
	TableMetadata Table = iota
	TableMenus
)

var (
	ErrNotFound = errors.New("datastore key not found")
)

type KV struct {
	Key   string
	Value []byte
}

// A Datastore provides the following abstraction:
// 1. Tables, each keyed on a string (the implementation is free to merge
// the table name and the key into a single key as long as the rest of
// the contract can be satisfied). Keys must not contain spaces.
// 2. The ability to efficiently enumerate all key-value pairs in a table
// 3. Gets, sets, and deletes for individual (table, key) keys
// 4. Replacing the whole contents of a table in one transaction
type Datastore interface {
	GetAll(table Table) ([]KV, error)

	// Get returns ErrNotFound for a missing key
	Get(table Table, key string) (value []byte, err error)

	Set(table Table, key string, value []byte, expiration time.Time) error

	// Note that deleting a nonexistent key is not considered an error
	Delete(table Table, key string) error

	// Replace atomically swaps the contents of table for entries
	Replace(table Table, entries []KV) error

	Close() error
}
