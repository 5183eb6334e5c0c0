// Copyright (c) 2012-2014 Jeremy Latt
// Copyright (c) 2014-2015 Edmund Huber
// Copyright (c) 2016-2017 Daniel Oaks <daniel@danieloaks.net>
// Copyright (c) 2024 The Topaz Authors
// released under the MIT license

package topaz

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/okzk/sdnotify"

	"github.com/topazui/topaz/topaz/datastore"
	"github.com/topazui/topaz/topaz/flock"
	"github.com/topazui/topaz/topaz/logger"
	"github.com/topazui/topaz/topaz/utils"
)

const (
	shutdownTimeout = 5 * time.Second
)

// Server is the menu compilation and translation service.
type Server struct {
	config         utils.ConfigStore[Config]
	configFilename string
	ctime          time.Time
	logger         *logger.Manager
	store          datastore.Datastore
	flock          flock.Flocker
	wsConnections  utils.Semaphore
	rehashMutex    sync.Mutex
	rehashSignal   chan os.Signal
	exitSignals    chan os.Signal
	httpServer     *http.Server
	listener       net.Listener
}

// NewServer opens the datastore, stores the config's compiled menus and
// binds the API listener, if one is enabled.
func NewServer(config *Config, logger *logger.Manager) (*Server, error) {
	lock, err := LockDatastore(config)
	if err != nil {
		return nil, err
	}
	store, err := OpenDatabase(config, logger)
	if err != nil {
		lock.Unlock()
		return nil, err
	}
	server, err := newServerWithStore(config, logger, store)
	if err != nil {
		lock.Unlock()
		return nil, err
	}
	server.flock = lock
	return server, nil
}

func newServerWithStore(config *Config, logger *logger.Manager, store datastore.Datastore) (*Server, error) {
	server := &Server{
		logger:       logger,
		store:        store,
		rehashSignal: make(chan os.Signal, 1),
		exitSignals:  make(chan os.Signal, len(utils.ServerExitSignals)),
	}

	if err := server.applyConfig(config, true); err != nil {
		store.Close()
		return nil, err
	}

	if config.Server.API.Enabled {
		if err := server.listenAPI(config); err != nil {
			store.Close()
			return nil, err
		}
	}

	// Attempt to clean up when receiving these signals.
	signal.Notify(server.exitSignals, utils.ServerExitSignals...)
	signal.Notify(server.rehashSignal, utils.ServerRehashSignals...)

	return server, nil
}

// Config returns the currently installed config.
func (server *Server) Config() *Config {
	return server.config.Get()
}

func (server *Server) listenAPI(config *Config) (err error) {
	api := &config.Server.API
	server.listener, err = net.Listen("tcp", api.Listen)
	if err != nil {
		return fmt.Errorf("Could not listen on %s: %w", api.Listen, err)
	}
	if api.tlsConfig != nil {
		// look the certificate up per handshake so a rehash can rotate it
		server.listener = tls.NewListener(server.listener, &tls.Config{
			GetConfigForClient: func(*tls.ClientHelloInfo) (*tls.Config, error) {
				return server.Config().Server.API.tlsConfig, nil
			},
		})
	}
	server.httpServer = &http.Server{
		Handler:           newAPIHandler(server),
		ReadHeaderTimeout: 10 * time.Second,
	}
	server.logger.Info("api", "listening on", server.listener.Addr().String(), fmt.Sprintf("tls=%t", api.tlsConfig != nil))
	return nil
}

// Run serves the API and blocks until an exit signal arrives.
func (server *Server) Run() {
	if server.httpServer != nil {
		go func() {
			defer server.HandlePanic()
			err := server.httpServer.Serve(server.listener)
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				server.logger.Error("api", "listener stopped", err.Error())
			}
		}()
	}

	server.notify(sdnotify.Ready)

	done := false
	for !done {
		select {
		case <-server.exitSignals:
			server.Shutdown()
			done = true

		case <-server.rehashSignal:
			server.logger.Info("rehash", "Rehashing due to SIGHUP")
			server.notify(sdnotify.Reloading)
			go func() {
				defer server.HandlePanic()
				err := server.rehash()
				if err != nil {
					server.logger.Error("rehash", "Failed to rehash:", err.Error())
				}
				server.notify(sdnotify.Ready)
			}()
		}
	}
}

// Shutdown stops the API listener and closes the datastore.
func (server *Server) Shutdown() {
	server.notify(sdnotify.Stopping)
	if server.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.httpServer.Shutdown(ctx); err != nil {
			server.logger.Error("shutdown", "Could not stop API listener:", err.Error())
		}
		// Serve may never have been called, as with --smoke
		server.listener.Close()
	}
	if err := server.store.Close(); err != nil {
		server.logger.Error("shutdown", "Could not close datastore:", err.Error())
	}
	if server.flock != nil {
		server.flock.Unlock()
	}
	server.logger.Info("shutdown", "server stopped")
}

// notify reports a state change to systemd; outside systemd there is no
// socket and the call is a no-op.
func (server *Server) notify(notifier func() error) {
	err := notifier()
	if err != nil && !errors.Is(err, sdnotify.ErrSdNotifyNoSocket) {
		server.logger.Warning("server", "sd_notify failed:", err.Error())
	}
}

// rehash reloads the config and applies the changes from the config file.
func (server *Server) rehash() error {
	server.logger.Debug("rehash", "Starting rehash")

	// only let one rehash go on at a time
	server.rehashMutex.Lock()
	defer server.rehashMutex.Unlock()

	server.logger.Debug("rehash", "Got rehash lock")

	config, err := LoadConfig(server.configFilename)
	if err != nil {
		return fmt.Errorf("Error loading config file config: %w", err)
	}

	err = server.applyConfig(config, false)
	if err != nil {
		return fmt.Errorf("Error applying config changes: %w", err)
	}

	return nil
}

func (server *Server) applyConfig(config *Config, initial bool) (err error) {
	if initial {
		server.ctime = time.Now().UTC()
		server.configFilename = config.Filename
		server.wsConnections.Initialize(config.Server.API.WebSocket.MaxConnections)
	} else {
		// enforce configs that can't be changed after launching:
		oldConfig := server.Config()
		if oldConfig.Datastore.Path != config.Datastore.Path {
			return errors.New("Datastore path cannot be changed after launching the server, rehash aborted")
		} else if oldConfig.Server.API.Enabled != config.Server.API.Enabled || oldConfig.Server.API.Listen != config.Server.API.Listen {
			return errors.New("API listener cannot be changed after launching the server, rehash aborted")
		} else if (oldConfig.Server.API.tlsConfig == nil) != (config.Server.API.tlsConfig == nil) {
			return errors.New("API TLS cannot be enabled or disabled after launching the server, rehash aborted")
		} else if oldConfig.Server.API.WebSocket.MaxConnections != config.Server.API.WebSocket.MaxConnections {
			return errors.New("WebSocket max-connections cannot be changed after launching the server, rehash aborted")
		}
	}

	if err = StoreMenus(server.store, config.CompiledMenus()); err != nil {
		return fmt.Errorf("Could not store menus: %w", err)
	}
	// logging changes only once the menus of the new config are stored
	if !initial {
		if err = server.logger.ApplyConfig(config.Logging); err != nil {
			return err
		}
	}
	for _, menu := range config.CompiledMenus() {
		if menu.Ragged {
			server.logger.Warning("menus", "menu has rows of different widths, fitted to", menu.Shape.String(), menu.Name)
		}
	}
	server.logger.Info("menus", fmt.Sprintf("stored %d compiled menus", len(config.CompiledMenus())))

	server.config.Set(config)
	return nil
}
