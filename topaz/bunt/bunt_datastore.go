// Copyright (c) 2022 Shivaram Lingamneni
// Copyright (c) 2024 The Topaz Authors
// released under the MIT license

package bunt

import (
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/buntdb"

	"github.com/topazui/topaz/topaz/datastore"
	"github.com/topazui/topaz/topaz/logger"
)

// BuntKey yields a string key corresponding to a (table, key) pair.
func BuntKey(table datastore.Table, key string) string {
	return fmt.Sprintf("%x %s", table, key)
}

func tablePrefix(table datastore.Table) string {
	return fmt.Sprintf("%x ", table)
}

// buntdbDatastore implements datastore.Datastore using a buntdb.
type buntdbDatastore struct {
	db     *buntdb.DB
	logger *logger.Manager
}

// NewBuntdbDatastore returns a datastore.Datastore backed by buntdb. logger
// may be nil.
func NewBuntdbDatastore(db *buntdb.DB, logger *logger.Manager) datastore.Datastore {
	return &buntdbDatastore{
		db:     db,
		logger: logger,
	}
}

// Open opens (creating if necessary) the buntdb file at path.
func Open(path string, logger *logger.Manager) (datastore.Datastore, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, err
	}
	return NewBuntdbDatastore(db, logger), nil
}

func (b *buntdbDatastore) Close() error {
	return b.db.Close()
}

func ascendTable(tx *buntdb.Tx, table datastore.Table, iterator func(key, value string) bool) error {
	prefix := tablePrefix(table)
	return tx.AscendGreaterOrEqual("", prefix, func(buntKey, value string) bool {
		key, ok := strings.CutPrefix(buntKey, prefix)
		if !ok {
			return false
		}
		return iterator(key, value)
	})
}

func (b *buntdbDatastore) GetAll(table datastore.Table) (result []datastore.KV, err error) {
	err = b.db.View(func(tx *buntdb.Tx) error {
		return ascendTable(tx, table, func(key, value string) bool {
			if key == "" {
				if b.logger != nil {
					b.logger.Error("datastore", "empty key in table", fmt.Sprintf("%x", table))
				}
				return true
			}
			result = append(result, datastore.KV{Key: key, Value: []byte(value)})
			return true
		})
	})
	return
}

func (b *buntdbDatastore) Get(table datastore.Table, key string) (value []byte, err error) {
	buntKey := BuntKey(table, key)
	var result string
	err = b.db.View(func(tx *buntdb.Tx) error {
		result, err = tx.Get(buntKey)
		return err
	})
	if err == buntdb.ErrNotFound {
		return nil, datastore.ErrNotFound
	}
	return []byte(result), err
}

func setOptions(expiration time.Time) (options *buntdb.SetOptions, expired bool) {
	if expiration.IsZero() {
		return nil, false
	}
	ttl := time.Until(expiration)
	if ttl <= 0 {
		return nil, true
	}
	return &buntdb.SetOptions{Expires: true, TTL: ttl}, false
}

func (b *buntdbDatastore) Set(table datastore.Table, key string, value []byte, expiration time.Time) (err error) {
	buntKey := BuntKey(table, key)
	options, expired := setOptions(expiration)
	if expired {
		return nil // it already expired, i guess?
	}
	strVal := string(value)

	err = b.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(buntKey, strVal, options)
		return err
	})
	return
}

func (b *buntdbDatastore) Delete(table datastore.Table, key string) (err error) {
	buntKey := BuntKey(table, key)
	err = b.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(buntKey)
		return err
	})
	// deleting a nonexistent key is not considered an error
	switch err {
	case buntdb.ErrNotFound:
		return nil
	default:
		return err
	}
}

func (b *buntdbDatastore) Replace(table datastore.Table, entries []datastore.KV) (err error) {
	return b.db.Update(func(tx *buntdb.Tx) error {
		var stale []string
		err := ascendTable(tx, table, func(key, value string) bool {
			stale = append(stale, key)
			return true
		})
		if err != nil {
			return err
		}
		// can't delete while iterating
		for _, key := range stale {
			if _, err := tx.Delete(BuntKey(table, key)); err != nil && err != buntdb.ErrNotFound {
				return err
			}
		}
		for _, entry := range entries {
			if _, _, err := tx.Set(BuntKey(table, entry.Key), string(entry.Value), nil); err != nil {
				return err
			}
		}
		return nil
	})
}
