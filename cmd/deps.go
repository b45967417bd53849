package cmd

import (
	"errors"
	"io"
	"sync"

	"github.com/Brawl345/supacreds/config"
	"github.com/Brawl345/supacreds/keyring"
	"github.com/Brawl345/supacreds/model"
	"github.com/Brawl345/supacreds/model/sql"
	"github.com/Brawl345/supacreds/resolver"
	"github.com/Brawl345/supacreds/utils/httpUtils"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// openFallbackStore returns the configured persisted store. With the "none"
// backend both the store and the error are nil.
func openFallbackStore(cfg *config.Config) (model.CredentialService, io.Closer, error) {
	switch cfg.FallbackBackend {
	case config.BackendMySQL:
		if !cfg.MySQL.Complete() {
			return nil, nil, errors.New("MYSQL_USER and MYSQL_DB must be set for the mysql backend")
		}
		dsn := sql.MySQLDSN(cfg.MySQL.Host, cfg.MySQL.Port, cfg.MySQL.User, cfg.MySQL.Password, cfg.MySQL.DB, cfg.MySQL.TLS)
		db, err := sql.New(sql.MySQL, dsn, cfg.IgnoreMigration)
		if err != nil {
			return nil, nil, err
		}
		log.Debug().Msg("MySQL connection established")
		return sql.NewCredentialService(db, sql.MySQL), db, nil
	case config.BackendSQLite:
		db, err := sql.New(sql.SQLite, cfg.SQLitePath, cfg.IgnoreMigration)
		if err != nil {
			return nil, nil, err
		}
		log.Debug().Str("path", cfg.SQLitePath).Msg("SQLite database opened")
		return sql.NewCredentialService(db, sql.SQLite), db, nil
	case config.BackendKeyring:
		return keyring.NewCredentialService(cfg.KeyringService), nopCloser{}, nil
	default:
		return nil, nopCloser{}, nil
	}
}

// newResolver wires the API client and the fallback store. The store is only
// opened once a resolution actually needs the fallback key.
func newResolver(cfg *config.Config) (*resolver.Resolver, io.Closer) {
	api := resolver.NewAPI(&httpUtils.HttpOptions{Client: httpUtils.NewHttpClient(cfg.HTTPTimeout)})

	if cfg.FallbackBackend == config.BackendNone {
		return resolver.New(api, nil), nopCloser{}
	}

	fallback := &lazyFallback{cfg: cfg}
	return resolver.New(api, fallback), fallback
}

// resolverConfig maps the loaded configuration onto a resolution request.
func resolverConfig(cfg *config.Config) resolver.Config {
	current := cfg.Current
	return resolver.Config{
		BaseURL:      cfg.BaseURL,
		ProjectID:    cfg.ProjectID,
		UserIdentity: cfg.UserIdentity,
		AuthToken:    cfg.AuthToken,
		Current:      &current,
		FallbackKey:  cfg.FallbackKey,
	}
}

// lazyFallback opens the configured store on first use. A store that cannot
// be opened is logged and reported on every read, so resolution can still
// succeed from the other sources.
type lazyFallback struct {
	cfg    *config.Config
	once   sync.Once
	store  model.CredentialService
	closer io.Closer
	err    error
}

func (l *lazyFallback) open() {
	l.store, l.closer, l.err = openFallbackStore(l.cfg)
	if l.err != nil {
		log.Warn().
			Err(l.err).
			Str("backend", l.cfg.FallbackBackend).
			Msg("Fallback store unavailable")
	}
}

func (l *lazyFallback) GetKey(name string) (string, error) {
	l.once.Do(l.open)
	if l.err != nil {
		return "", l.err
	}
	return l.store.GetKey(name)
}

// Close releases the store if it was opened. Later reads see no store.
func (l *lazyFallback) Close() error {
	l.once.Do(func() { l.err = errors.New("fallback store closed") })
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
