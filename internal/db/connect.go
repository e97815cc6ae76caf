package db

import (
	"fmt"

	"github.com/zulandar/bugboard/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DSN builds a MySQL DSN for the given server and database.
func DSN(user, host string, port int, database string) string {
	return fmt.Sprintf("%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4", user, host, port, database)
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}
}

// Connect opens a GORM connection to a MySQL database.
func Connect(user, host string, port int, database string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(DSN(user, host, port, database)), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("db: connect to %s:%d/%s: %w", host, port, database, err)
	}
	return db, nil
}

// ConnectAdmin opens a GORM connection to the MySQL server without selecting
// a specific database, used for CREATE DATABASE operations.
func ConnectAdmin(user, host string, port int) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s@tcp(%s:%d)/?parseTime=true", user, host, port)
	db, err := gorm.Open(mysql.Open(dsn), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("db: admin connect to %s:%d: %w", host, port, err)
	}
	return db, nil
}

// ConnectSQLite opens a GORM connection to a SQLite file. ":memory:" opens a
// private in-memory database limited to a single connection.
func ConnectSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("db: open sqlite %s: %w", path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("db: open sqlite %s: %w", path, err)
	}
	// SQLite allows one writer; a single connection also keeps :memory: shared.
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// Open connects to the database selected by the storage config. The memory
// driver has no database and is rejected.
func Open(cfg config.StorageConfig) (*gorm.DB, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		return ConnectSQLite(cfg.Path)
	case config.DriverMySQL:
		return Connect(cfg.MySQL.User, cfg.MySQL.Host, cfg.MySQL.Port, cfg.MySQL.Database)
	default:
		return nil, fmt.Errorf("db: driver %q has no database", cfg.Driver)
	}
}

// DropDatabase drops the named database if it exists.
func DropDatabase(adminDB *gorm.DB, name string) error {
	sql := fmt.Sprintf("DROP DATABASE IF EXISTS `%s`", name)
	if err := adminDB.Exec(sql).Error; err != nil {
		return fmt.Errorf("db: drop database %s: %w", name, err)
	}
	return nil
}

// CreateDatabase creates the named database if it doesn't already exist.
func CreateDatabase(adminDB *gorm.DB, name string) error {
	sql := fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", name)
	if err := adminDB.Exec(sql).Error; err != nil {
		return fmt.Errorf("db: create database %s: %w", name, err)
	}
	return nil
}
