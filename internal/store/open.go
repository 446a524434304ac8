package store

import (
	"context"
	"fmt"

	"github.com/oatext/internal/db"
)

const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
	DriverMongo  = "mongo"
)

// Options selects and configures a storage engine.
type Options struct {
	Driver        string
	DatabasePath  string
	MongoURI      string
	MongoDatabase string
}

// Open 根据配置的驱动创建存储引擎。
func Open(ctx context.Context, opts Options) (Engine, error) {
	switch opts.Driver {
	case "", DriverSQLite:
		if err := db.Init(opts.DatabasePath); err != nil {
			return nil, err
		}
		return NewGormEngine(db.DB), nil
	case DriverMemory:
		return NewMemoryEngine(), nil
	case DriverMongo:
		return OpenMongoEngine(ctx, opts.MongoURI, opts.MongoDatabase)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", opts.Driver)
	}
}
