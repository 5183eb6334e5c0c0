// Copyright (c) 2012-2014 Jeremy Latt
// Copyright (c) 2016 Daniel Oaks <daniel@danieloaks.net>
// Copyright (c) 2024 The Topaz Authors
// released under the MIT license

package topaz

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/topazui/topaz/topaz/bunt"
	"github.com/topazui/topaz/topaz/datastore"
	"github.com/topazui/topaz/topaz/flock"
	"github.com/topazui/topaz/topaz/logger"
	"github.com/topazui/topaz/topaz/utils"
)

const (
	// 'version' of the database schema
	keySchemaVersion = "schema-version"
	// latest schema of the db
	latestDbSchema = 2
)

type schemaChanger func(datastore.Datastore) error

type schemaChange struct {
	initialVersion int // the change will take this version
	targetVersion  int // and transform it into this version
	changer        schemaChanger
}

// maps an initial version to a schema change capable of upgrading it
var schemaChanges = map[int]schemaChange{
	1: {
		initialVersion: 1,
		targetVersion:  2,
		changer:        schemaChangeV1ToV2,
	},
}

// InitDB creates the datastore, implementing the `topaz initdb` command.
func InitDB(path string) error {
	_, err := os.Stat(path)
	if err == nil {
		return fmt.Errorf("%w: %s", errDatabaseExists, path)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("Datastore path is inaccessible: %w", err)
	}
	return initializeDB(path, latestDbSchema)
}

// LockDatastore takes the lock that keeps a running server and the offline
// datastore commands from modifying the datastore at the same time.
func LockDatastore(config *Config) (flock.Flocker, error) {
	return flock.TryAcquireFlock(config.LockFile)
}

func initializeDB(path string, version int) error {
	store, err := bunt.Open(path, nil)
	if err != nil {
		return err
	}
	defer store.Close()
	return setSchemaVersion(store, version)
}

func setSchemaVersion(store datastore.Datastore, version int) error {
	return store.Set(datastore.TableMetadata, keySchemaVersion, []byte(strconv.Itoa(version)), time.Time{})
}

func getSchemaVersion(store datastore.Datastore) (version int, err error) {
	raw, err := store.Get(datastore.TableMetadata, keySchemaVersion)
	if err != nil {
		return 0, fmt.Errorf("could not read schema version: %w", err)
	}
	return strconv.Atoi(string(raw))
}

// OpenDatabase returns the existing datastore, performing a schema version
// check and, if the config allows it, a backed-up automatic upgrade.
func OpenDatabase(config *Config, logger *logger.Manager) (datastore.Datastore, error) {
	return openDatabaseInternal(config, logger, config.Datastore.AutoUpgrade)
}

// open the database, giving it at most one chance to auto-upgrade the schema
func openDatabaseInternal(config *Config, logger *logger.Manager, allowAutoupgrade bool) (store datastore.Datastore, err error) {
	path := config.Datastore.Path
	if !utils.FileExists(path) {
		return nil, fmt.Errorf("%w: %s", errDatabaseMissing, path)
	}

	store, err = bunt.Open(path, logger)
	if err != nil {
		return
	}

	defer func() {
		if err != nil && store != nil {
			store.Close()
			store = nil
		}
	}()

	version, err := getSchemaVersion(store)
	if err != nil {
		return
	}

	if version == latestDbSchema {
		return
	} else if version > latestDbSchema {
		err = fmt.Errorf("%w: expected schema v%d, got v%d", errDatabaseTooNew, latestDbSchema, version)
		return
	}

	// quiesce the store so it's safe to make a backup copy
	store.Close()
	store = nil
	if allowAutoupgrade {
		err = performAutoUpgrade(version, config, logger)
		if err != nil {
			return
		}
		return openDatabaseInternal(config, logger, false)
	}
	err = fmt.Errorf("%w: expected schema v%d, got v%d", errDatabaseNeedsUpgrade, latestDbSchema, version)
	return
}

func performAutoUpgrade(currentVersion int, config *Config, logger *logger.Manager) (err error) {
	path := config.Datastore.Path
	logger.Info("datastore", fmt.Sprintf("attempting to auto-upgrade schema from version %d to %d", currentVersion, latestDbSchema))
	timestamp := time.Now().UTC().Format("2006-01-02-15:04:05.000Z")
	backupPath := fmt.Sprintf("%s.v%d.%s.bak", path, currentVersion, timestamp)
	logger.Info("datastore", "making a backup of current datastore at", backupPath)
	err = utils.CopyFile(path, backupPath)
	if err != nil {
		return err
	}

	err = UpgradeDB(config, logger)
	if err == nil {
		return nil
	}
	// each change rewrites whole tables, so restore the backup rather than
	// leave a half-upgraded store
	if restoreErr := utils.CopyFile(backupPath, path); restoreErr != nil {
		logger.Error("datastore", "could not restore backup", backupPath, restoreErr.Error())
		return err
	}
	os.Remove(backupPath)
	return err
}

// UpgradeDB upgrades the datastore to the latest schema, implementing the
// `topaz upgradedb` command.
func UpgradeDB(config *Config, logger *logger.Manager) (err error) {
	_, err = os.Stat(config.Datastore.Path)
	if err != nil {
		return err
	}

	store, err := bunt.Open(config.Datastore.Path, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	for {
		version, err := getSchemaVersion(store)
		if err != nil {
			return err
		}
		change, schemaNeedsChange := schemaChanges[version]
		if !schemaNeedsChange {
			if version == latestDbSchema {
				return nil
			}
			return fmt.Errorf("%w: no upgrade path from schema v%d", errDatabaseNeedsUpgrade, version)
		}
		logger.Info("datastore", fmt.Sprintf("updating schema from version %d", version))
		if err := change.changer(store); err != nil {
			logger.Error("datastore", "schema update failed", err.Error())
			return err
		}
		if err := setSchemaVersion(store, change.targetVersion); err != nil {
			return err
		}
		logger.Info("datastore", fmt.Sprintf("successfully updated schema to version %d", change.targetVersion))
	}
}

// v1 keyed menus by their configured name; v2 keys them by the casefolded
// name so lookups are case-insensitive.
func schemaChangeV1ToV2(store datastore.Datastore) error {
	entries, err := store.GetAll(datastore.TableMenus)
	if err != nil {
		return err
	}
	rekeyed := make([]datastore.KV, 0, len(entries))
	for _, entry := range entries {
		var menu Menu
		if err := json.Unmarshal(entry.Value, &menu); err != nil {
			return fmt.Errorf("menu %s: %w", entry.Key, err)
		}
		if menu.Name == "" {
			menu.Name = entry.Key
		}
		menu.Key, err = CasefoldName(menu.Name)
		if err != nil {
			return fmt.Errorf("%w %s: %s", errMenuNameInvalid, menu.Name, err.Error())
		}
		value, err := json.Marshal(menu)
		if err != nil {
			return err
		}
		rekeyed = append(rekeyed, datastore.KV{Key: menu.Key, Value: value})
	}
	return store.Replace(datastore.TableMenus, rekeyed)
}

// StoreMenus replaces the stored menus with menus, keyed by Menu.Key.
func StoreMenus(store datastore.Datastore, menus map[string]*Menu) error {
	entries := make([]datastore.KV, 0, len(menus))
	for _, menu := range menus {
		value, err := json.Marshal(menu)
		if err != nil {
			return fmt.Errorf("menu %s: %w", menu.Name, err)
		}
		entries = append(entries, datastore.KV{Key: menu.Key, Value: value})
	}
	return store.Replace(datastore.TableMenus, entries)
}

// LoadMenu returns the stored menu whose casefolded name matches name.
func LoadMenu(store datastore.Datastore, name string) (*Menu, error) {
	key, err := CasefoldName(name)
	if err != nil {
		return nil, errNoSuchMenu
	}
	value, err := store.Get(datastore.TableMenus, key)
	if errors.Is(err, datastore.ErrNotFound) {
		return nil, errNoSuchMenu
	} else if err != nil {
		return nil, err
	}
	var menu Menu
	if err := json.Unmarshal(value, &menu); err != nil {
		return nil, fmt.Errorf("menu %s: %w", key, err)
	}
	return &menu, nil
}

// LoadMenus returns every stored menu, ordered by key.
func LoadMenus(store datastore.Datastore) (result []*Menu, err error) {
	entries, err := store.GetAll(datastore.TableMenus)
	if err != nil {
		return nil, err
	}
	result = make([]*Menu, 0, len(entries))
	for _, entry := range entries {
		menu := new(Menu)
		if err := json.Unmarshal(entry.Value, menu); err != nil {
			return nil, fmt.Errorf("menu %s: %w", entry.Key, err)
		}
		result = append(result, menu)
	}
	return result, nil
}
