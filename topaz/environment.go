// Copyright (c) 2020 Shivaram Lingamneni
// Copyright (c) 2024 The Topaz Authors
// released under the MIT license

package topaz

import (
	"fmt"
	"reflect"
	"strings"

	"gopkg.in/yaml.v2"
)

// environment variables of the form TOPAZ__DATASTORE__PATH=/var/lib/topaz.db
// override the corresponding config keys; the value is parsed as YAML.
const envPrefix = "TOPAZ__"

func mungeFromEnvironment(config *Config, envPair string) (applied bool, err error) {
	equalIdx := strings.IndexByte(envPair, '=')
	if equalIdx < 0 {
		return false, nil
	}
	name, value := envPair[:equalIdx], envPair[equalIdx+1:]
	if !strings.HasPrefix(name, envPrefix) {
		return false, nil
	}

	configPath := strings.Split(name[len(envPrefix):], "__")
	field := reflect.ValueOf(config).Elem()
	for _, component := range configPath {
		if component == "" {
			return false, fmt.Errorf("invalid environment override %s", name)
		}
		key := strings.ReplaceAll(strings.ToLower(component), "_", "-")
		if field.Kind() == reflect.Ptr {
			if field.IsNil() {
				field.Set(reflect.New(field.Type().Elem()))
			}
			field = field.Elem()
		}
		if field.Kind() != reflect.Struct {
			return false, fmt.Errorf("environment override %s: cannot descend into %s", name, field.Kind())
		}
		var ok bool
		field, ok = yamlField(field, key)
		if !ok {
			return false, fmt.Errorf("environment override %s: no config key %s", name, key)
		}
	}

	if err = yaml.Unmarshal([]byte(value), field.Addr().Interface()); err != nil {
		return false, fmt.Errorf("environment override %s: %w", name, err)
	}
	return true, nil
}

// yamlField finds the field yaml.v2 would decode key into.
func yamlField(structValue reflect.Value, key string) (result reflect.Value, ok bool) {
	structType := structValue.Type()
	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		if !field.IsExported() {
			continue
		}
		tag := strings.Split(field.Tag.Get("yaml"), ",")[0]
		if tag == "-" {
			continue
		} else if tag == "" {
			tag = strings.ToLower(field.Name)
		}
		if tag == key {
			return structValue.Field(i), true
		}
	}
	return
}
