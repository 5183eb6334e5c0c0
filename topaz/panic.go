// Copyright (c) 2021 Shivaram Lingamneni
// Copyright (c) 2024 The Topaz Authors
// released under the MIT license

package topaz

import (
	"fmt"
	"runtime/debug"
)

// HandlePanic is a general-purpose panic handler for API handlers and
// ad-hoc goroutines. It must be deferred directly from the goroutine whose
// stack may panic, e.g. `defer server.HandlePanic()`
func (server *Server) HandlePanic() {
	if r := recover(); r != nil {
		server.logger.Error("internal", fmt.Sprintf("Panic encountered: %v\n%s", r, debug.Stack()))
	}
}
