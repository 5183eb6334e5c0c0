// Copyright (c) 2024 The Topaz Authors
// released under the MIT license

package topaz

import "errors"

// Menu Errors
var (
	errMenuNameInvalid     = errors.New("Invalid menu name")
	errMenuNameConfusable  = errors.New("Menu name is confusable with another menu")
	errMenuShapeUnknown    = errors.New("Could not match row setup to a container shape")
	errMenuItemKeyInvalid  = errors.New("Menu item keys must be a single character")
	errMenuItemNotInLayout = errors.New("Menu item does not appear in the layout")
	errMenuTooManyRows     = errors.New("Layout has more rows than the container holds")
	errMenuGroupInvalid    = errors.New("Invalid menu item group")
	errNoSuchMenu          = errors.New("No such menu")
)

// String Errors
var (
	errCouldNotStabilize = errors.New("Could not stabilize string while casefolding")
	errStringIsEmpty     = errors.New("String is empty")
	errInvalidCharacter  = errors.New("Invalid character")
)

// Datastore Errors
var (
	errDatabaseExists       = errors.New("Datastore already exists (delete it manually to continue)")
	errDatabaseMissing      = errors.New("Datastore does not exist; run `topaz initdb` first")
	errDatabaseNeedsUpgrade = errors.New("Datastore schema is out of date")
	errDatabaseTooNew       = errors.New("Datastore schema is newer than this version of topaz supports")
)

// Config Errors
var (
	ErrDatastorePathMissing   = errors.New("Datastore path missing")
	ErrInvalidCertKeyPair     = errors.New("tls cert+key: invalid pair")
	ErrAPIListenerMissing     = errors.New("API is enabled but server.api.listen is empty")
	ErrAPINoAuth              = errors.New("API is enabled but neither bearer-tokens nor jwt are configured")
	ErrServerNameMissing      = errors.New("Server name missing")
	ErrMaxRequestSizeTooLow   = errors.New("server.api.max-request-size must be at least 1 KiB")
	ErrInvalidBearerTokenHash = errors.New("server.api.bearer-tokens must contain hashes produced by `topaz hashtoken`")
)
