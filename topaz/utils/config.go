// Copyright (c) 2022 Shivaram Lingamneni
// Copyright (c) 2024 The Topaz Authors
// released under the MIT license

package utils

import (
	"sync/atomic"
)

/*
This can be used to implement the following pattern:

1. Load and munge a config (this can be arbitrarily expensive)
2. Use Set() to install the config
3. Use Get() to access the config
4. As long as any individual config is not modified (by any goroutine)
   after the initial call to Set(), this is free of data races, and Get()
   is a single atomic load.
*/

type ConfigStore[T any] struct {
	ptr atomic.Pointer[T]
}

func (c *ConfigStore[T]) Get() *T {
	return c.ptr.Load()
}

func (c *ConfigStore[T]) Set(ptr *T) {
	c.ptr.Store(ptr)
}
