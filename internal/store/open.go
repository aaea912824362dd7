package store

import (
	"fmt"

	"github.com/dgallion1/firdesk/internal/config"
	"github.com/dgallion1/firdesk/internal/pathstore"
)

// Open returns the backend named by cfg.StoreBackend.
func Open(cfg config.Config) (Store, error) {
	switch cfg.StoreBackend {
	case "sqlite":
		return OpenSQLite(cfg.SQLitePath)
	case "pathstore":
		return NewPathstoreStore(pathstore.NewClient(cfg.PathstoreURL, cfg.PathstoreAPIKey)), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}
