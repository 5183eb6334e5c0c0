// Copyright (c) 2024 The Topaz Authors
// released under the MIT license

package topaz

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-test/deep"

	"github.com/topazui/topaz/topaz/bunt"
	"github.com/topazui/topaz/topaz/datastore"
	"github.com/topazui/topaz/topaz/logger"
	"github.com/topazui/topaz/topaz/passwd"
)

const (
	testBearerToken = "bf1a9e2e5d0b4c27b8a34e2f6f7c1d90"
	testJWTKey      = "menu service shared secret"
)

func assertEqual(supplied, expected interface{}, t *testing.T) {
	t.Helper()
	if diff := deep.Equal(supplied, expected); diff != nil {
		t.Errorf("expected %v but got %v: %v", expected, supplied, diff)
	}
}

// YAML is whitespace-sensitive: indent with spaces only.
const testConfigTemplate = `
server:
    name: topaz.test
    api:
        enabled: true
        listen: "127.0.0.1:0"
        bearer-tokens:
            - "%s"
        jwt:
            enabled: true
            tokens:
                -
                    algorithm: hmac
                    key: "%s"
        websocket:
            enabled: true
        max-request-size: 1k

datastore:
    path: "%s"

menus:
%s
logging:
    -
        method: stderr
        type: "*"
        level: error
`

const testShopMenu = `
    shop:
        title: "&6Shop"
        rows:
            - "#########"
            - "#a     b#"
        items:
            a:
                material: diamond
                name: "&bGems"
                lore:
                    - "&7Shiny"
            b:
                material: barrier
                name: "&cClose"
                action: close
        filler:
            material: glass_pane
`

const testWarpsMenu = `
    warps:
        title: "&3Warps"
        rows:
            - "s h"
        items:
            s:
                material: grass_block
                name: "&aSpawn"
            h:
                material: red_bed
                name: "&aHome"
`

var testTokenHash string

func tokenHash(t *testing.T) string {
	t.Helper()
	if testTokenHash == "" {
		hash, err := passwd.GenerateFromPassword([]byte(testBearerToken), passwd.MinCost)
		if err != nil {
			t.Fatal(err)
		}
		testTokenHash = string(hash)
	}
	return testTokenHash
}

func writeConfigFile(t *testing.T, dir, contents string) string {
	t.Helper()
	filename := filepath.Join(dir, "topaz.yaml")
	if err := os.WriteFile(filename, []byte(contents), 0600); err != nil {
		t.Fatal(err)
	}
	return filename
}

func renderTestConfig(t *testing.T, dir string, menus string) string {
	return fmt.Sprintf(testConfigTemplate, tokenHash(t), testJWTKey, filepath.Join(dir, "topaz.db"), menus)
}

// newTestServer builds a server over a fresh datastore without binding the
// API listener or installing signal handlers.
func newTestServer(t *testing.T, menus string) *Server {
	t.Helper()
	dir := t.TempDir()
	config, err := LoadConfig(writeConfigFile(t, dir, renderTestConfig(t, dir, menus)))
	if err != nil {
		t.Fatal(err)
	}
	if err := InitDB(config.Datastore.Path); err != nil {
		t.Fatal(err)
	}
	logman, err := logger.NewManager(config.Logging)
	if err != nil {
		t.Fatal(err)
	}
	store, err := OpenDatabase(config, logman)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	server := &Server{
		logger: logman,
		store:  store,
	}
	if err := server.applyConfig(config, true); err != nil {
		t.Fatal(err)
	}
	return server
}

func openTestStore(t *testing.T) datastore.Datastore {
	t.Helper()
	store, err := bunt.Open(":memory:", nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}
