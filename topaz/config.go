// Copyright (c) 2012-2014 Jeremy Latt
// Copyright (c) 2014-2015 Edmund Huber
// Copyright (c) 2016-2017 Daniel Oaks <daniel@danieloaks.net>
// Copyright (c) 2024 The Topaz Authors
// released under the MIT license

package topaz

import (
	"crypto/tls"
	"fmt"
	"os"
	"regexp"

	"code.cloudfoundry.org/bytefmt"
	"gopkg.in/yaml.v2"

	"github.com/topazui/topaz/topaz/jwt"
	"github.com/topazui/topaz/topaz/legacyfmt"
	"github.com/topazui/topaz/topaz/logger"
	"github.com/topazui/topaz/topaz/passwd"
	"github.com/topazui/topaz/topaz/utils"
)

// here's how this works: exported (capitalized) members of the config structs
// are defined in the YAML file and deserialized directly from there. They may
// be postprocessed and overwritten by LoadConfig. Unexported (lowercase) members
// are derived from the exported members in LoadConfig.

const (
	DefaultMaxRequestSize = "64k"
	minMaxRequestSize     = 1024

	defaultMaxWebSocketConnections = 64
)

// TLSListenConfig defines configuration options for listening on TLS.
type TLSListenConfig struct {
	Cert string
	Key  string
}

// Config returns the TLS configuration associated with this TLSListenConfig.
func (conf *TLSListenConfig) Config() (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(conf.Cert, conf.Key)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCertKeyPair, err.Error())
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}

// WebSocketConfig controls the streaming translation endpoint.
type WebSocketConfig struct {
	Enabled              bool
	AllowedOrigins       []string `yaml:"allowed-origins"`
	allowedOriginRegexps []*regexp.Regexp
	// read once at launch
	MaxConnections int `yaml:"max-connections"`
}

// APIConfig controls the HTTP API listener.
type APIConfig struct {
	Enabled              bool
	Listen               string
	TLS                  *TLSListenConfig
	tlsConfig            *tls.Config
	BearerTokens         []string `yaml:"bearer-tokens"`
	bearerTokenHashes    [][]byte
	JWT                  jwt.JWTAuthConfig `yaml:"jwt"`
	WebSocket            WebSocketConfig   `yaml:"websocket"`
	MaxRequestSizeString string            `yaml:"max-request-size"`
	maxRequestSize       uint64
}

// Config defines the overall configuration.
type Config struct {
	Server struct {
		Name string
		API  APIConfig `yaml:"api"`
	}

	Translator struct {
		Prefixes   string
		translator *legacyfmt.Translator
	}

	Datastore struct {
		Path        string
		AutoUpgrade bool `yaml:"autoupgrade"`
	}

	LockFile string `yaml:"lock-file"`

	Menus map[string]MenuConfig
	menus map[string]*Menu

	Logging []logger.LoggingConfig

	Filename string `yaml:"-"`
}

// LoadRawConfig reads the YAML configuration file without postprocessing
// it; commands like `mkcerts` need it before the referenced files exist.
func LoadRawConfig(filename string) (config *Config, err error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, err
	}
	if config == nil {
		config = new(Config)
	}
	for _, envPair := range os.Environ() {
		if _, err := mungeFromEnvironment(config, envPair); err != nil {
			return nil, err
		}
	}
	config.Filename = filename
	return config, nil
}

// LoadConfig loads the given YAML configuration file and compiles its menus.
func LoadConfig(filename string) (config *Config, err error) {
	config, err = LoadRawConfig(filename)
	if err != nil {
		return nil, err
	}
	if err = config.postprocess(); err != nil {
		return nil, err
	}
	return config, nil
}

func (config *Config) postprocess() (err error) {
	if config.Server.Name == "" {
		return ErrServerNameMissing
	}
	if config.Datastore.Path == "" {
		return ErrDatastorePathMissing
	}
	if config.LockFile == "" {
		config.LockFile = config.Datastore.Path + ".lock"
	}

	for i := range config.Logging {
		if err = config.Logging[i].Postprocess(); err != nil {
			return fmt.Errorf("logging config %d: %w", i, err)
		}
	}

	if err = config.Server.API.postprocess(); err != nil {
		return err
	}

	prefixes := config.Translator.Prefixes
	if prefixes == "" {
		prefixes = legacyfmt.DefaultPrefixes
	}
	config.Translator.translator, err = legacyfmt.NewTranslator(prefixes)
	if err != nil {
		return fmt.Errorf("translator prefixes: %w", err)
	}

	config.menus, err = compileMenus(config.Menus, config.Translator.translator)
	return err
}

func (api *APIConfig) postprocess() (err error) {
	sizeString := api.MaxRequestSizeString
	if sizeString == "" {
		sizeString = DefaultMaxRequestSize
	}
	api.maxRequestSize, err = bytefmt.ToBytes(sizeString)
	if err != nil {
		return fmt.Errorf("Could not parse max-request-size: %w", err)
	}
	if api.maxRequestSize < minMaxRequestSize {
		return ErrMaxRequestSizeTooLow
	}

	if api.WebSocket.MaxConnections <= 0 {
		api.WebSocket.MaxConnections = defaultMaxWebSocketConnections
	}

	if !api.Enabled {
		return nil
	}
	if api.Listen == "" {
		return ErrAPIListenerMissing
	}

	api.bearerTokenHashes = make([][]byte, 0, len(api.BearerTokens))
	for _, token := range api.BearerTokens {
		hash := []byte(token)
		if !passwd.IsHash(hash) {
			return ErrInvalidBearerTokenHash
		}
		api.bearerTokenHashes = append(api.bearerTokenHashes, hash)
	}

	if err = api.JWT.Postprocess(); err != nil {
		return err
	}
	if len(api.bearerTokenHashes) == 0 && !api.JWT.Enabled {
		return ErrAPINoAuth
	}

	if api.TLS != nil {
		api.tlsConfig, err = api.TLS.Config()
		if err != nil {
			return err
		}
	}

	api.WebSocket.allowedOriginRegexps, err = utils.CompileGlobs(api.WebSocket.AllowedOrigins, true)
	if err != nil {
		return fmt.Errorf("Could not parse websocket allowed-origins: %w", err)
	}
	return nil
}

// LegacyTranslator returns the translator built from the configured prefixes.
func (config *Config) LegacyTranslator() *legacyfmt.Translator {
	return config.Translator.translator
}

// MaxRequestSize is the largest accepted request body, in bytes.
func (config *Config) MaxRequestSize() int {
	return int(config.Server.API.maxRequestSize)
}

// CompiledMenus returns the menus compiled from the config, keyed by their
// casefolded names.
func (config *Config) CompiledMenus() map[string]*Menu {
	return config.menus
}
