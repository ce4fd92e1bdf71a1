package store

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/mmcdole/moviedb/internal/domain"
)

// Storage drivers
const (
	DriverBolt   = "bolt"
	DriverSQLite = "sqlite"
)

// Open selects a backend by driver name. dir is the data directory; an empty
// dir with the bolt driver keeps favorites in memory.
func Open(driver, dir string, logger *slog.Logger) (domain.FavoriteStore, error) {
	switch strings.ToLower(driver) {
	case "", DriverBolt:
		return NewFavoriteStore(dir, logger)
	case DriverSQLite:
		if dir == "" {
			return nil, fmt.Errorf("sqlite driver requires store.path")
		}
		return NewSQLFavoriteStore(filepath.Join(dir, "moviedb.sqlite"), logger)
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
