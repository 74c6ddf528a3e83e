package database

import (
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// PoolConfig sizes the sql.DB pool
type PoolConfig struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// MySQLOpener returns an Opener for the given DSN
func MySQLOpener(dsn string, pool PoolConfig, logLevel gormlogger.LogLevel) Opener {
	return func() (*gorm.DB, error) {
		db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
			Logger: gormlogger.Default.LogMode(logLevel),
		})
		if err != nil {
			return nil, err
		}

		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
		sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
		sqlDB.SetConnMaxLifetime(pool.ConnMaxLifetime)

		return db, nil
	}
}
