package postgres

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Dialect selects which database engine backs the catalog.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Config configures the GORM-backed catalog's dual SQLite/PostgreSQL
// dialector.
type Config struct {
	Dialect Dialect

	// SQLite
	SQLitePath string

	// PostgreSQL
	Host         string
	Port         int
	Database     string
	User         string
	Password     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

func (c *Config) applyDefaults() {
	if c.Dialect == "" {
		c.Dialect = DialectSQLite
	}
	if c.Dialect == DialectSQLite && c.SQLitePath == "" {
		c.SQLitePath = "./corevault-catalog.db"
	}
	if c.Dialect == DialectPostgres {
		if c.Port == 0 {
			c.Port = 5432
		}
		if c.SSLMode == "" {
			c.SSLMode = "disable"
		}
		if c.MaxOpenConns == 0 {
			c.MaxOpenConns = 25
		}
		if c.MaxIdleConns == 0 {
			c.MaxIdleConns = 5
		}
	}
}

func (c *Config) dsn() string {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
	return dsn
}

// Store implements catalog.Catalog and catalog.ShareStore over GORM.
type Store struct {
	db     *gorm.DB
	config Config
}

// New opens the database connection and runs AutoMigrate.
func New(cfg Config) (*Store, error) {
	cfg.applyDefaults()

	var dialector gorm.Dialector
	switch cfg.Dialect {
	case DialectSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return nil, fmt.Errorf("catalog/postgres: create db dir: %w", err)
		}
		dialector = sqlite.Open(cfg.SQLitePath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	case DialectPostgres:
		dialector = gormpostgres.Open(cfg.dsn())
	default:
		return nil, fmt.Errorf("catalog/postgres: unsupported dialect %q", cfg.Dialect)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("catalog/postgres: connect: %w", err)
	}

	if cfg.Dialect == DialectPostgres {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("catalog/postgres: underlying db: %w", err)
		}
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	if err := db.AutoMigrate(AllModels()...); err != nil {
		return nil, fmt.Errorf("catalog/postgres: automigrate: %w", err)
	}

	return &Store{db: db, config: cfg}, nil
}

// DB exposes the underlying *gorm.DB for migrations tooling and tests.
func (s *Store) DB() *gorm.DB { return s.db }
