package dbmigrate

import (
	"fmt"

	"github.com/fdg312/nomnom/internal/config"
)

const DefaultMigrationsDir = "migrations"

// SelectDatabaseURL выбирает URL для миграций. DDL лучше гонять по прямому
// подключению, поэтому приоритет: DIRECT > DATABASE_URL > POOLED (pooled —
// с предупреждением). При requireDirect принимается только DATABASE_URL_DIRECT.
func SelectDatabaseURL(cfg *config.Config, requireDirect bool) (dbURL string, source string, warning string, err error) {
	if requireDirect {
		if cfg.DatabaseURLDirect == "" {
			return "", "", "", fmt.Errorf("DATABASE_URL_DIRECT is required for DDL/migrations")
		}
		return cfg.DatabaseURLDirect, "DATABASE_URL_DIRECT", "", nil
	}

	switch {
	case cfg.DatabaseURLDirect != "":
		return cfg.DatabaseURLDirect, "DATABASE_URL_DIRECT", "", nil
	case cfg.DatabaseURLRaw != "":
		return cfg.DatabaseURLRaw, "DATABASE_URL", "", nil
	case cfg.DatabaseURLPooled != "":
		return cfg.DatabaseURLPooled, "DATABASE_URL_POOLED",
			"running DDL through a pooled connection is not recommended; set DATABASE_URL_DIRECT", nil
	}

	return "", "", "", fmt.Errorf("no database URL configured (set DATABASE_URL_DIRECT or DATABASE_URL)")
}
