package cmd

import (
	"net/http"

	"github.com/teamdeck/teamdeck/internal/config"
	"github.com/teamdeck/teamdeck/internal/directory"
	"github.com/teamdeck/teamdeck/internal/identity"
	"github.com/teamdeck/teamdeck/internal/log"
	"github.com/teamdeck/teamdeck/internal/session"
)

// Lazily-built shared dependencies. Commands reach these through the
// getters so a plain "teamdeck --help" never touches the network or
// the filesystem.
var (
	appConfig       *config.Config
	sessionStore    *session.Store
	identityClient  *identity.Client
	directoryClient *directory.Client

	// sessionFile overrides the session storage location, set by the
	// root command's persistent flag.
	sessionFile string
)

func getConfig() (*config.Config, error) {
	if appConfig == nil {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		appConfig = cfg
	}
	return appConfig, nil
}

func getSessionStore() (*session.Store, error) {
	if sessionStore == nil {
		path := sessionFile
		if path == "" {
			var err error
			path, err = session.DefaultPath()
			if err != nil {
				return nil, err
			}
		}
		store, err := session.Open(path)
		if err != nil {
			return nil, err
		}
		sessionStore = store
	}
	return sessionStore, nil
}

func getIdentityClient() (*identity.Client, error) {
	if identityClient == nil {
		cfg, err := getConfig()
		if err != nil {
			return nil, err
		}
		identityClient = identity.NewClient(cfg.IdentityURL,
			identity.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}),
			identity.WithLogger(log.DefaultLogger()),
		)
	}
	return identityClient, nil
}

func getDirectoryClient() (*directory.Client, error) {
	if directoryClient == nil {
		cfg, err := getConfig()
		if err != nil {
			return nil, err
		}
		directoryClient = directory.NewClient(cfg.AdminURL,
			directory.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}),
			directory.WithLogger(log.DefaultLogger()),
		)
	}
	return directoryClient, nil
}
