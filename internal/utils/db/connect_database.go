package db

import (
	"fmt"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ConnectDatabase opens a GORM connection to Postgres. Credentials come
// from the environment; SSL can be disabled for local development via
// DB_SSL_MODE_DISABLE=true.
func ConnectDatabase(port uint, host, dbname, username, password string) (*gorm.DB, error) {
	var sslMode string
	if os.Getenv("DB_SSL_MODE_DISABLE") == "true" {
		sslMode = " sslmode=disable"
	}
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d%s",
		host, username, password, dbname, port, sslMode)
	// TranslateError turns driver duplicate-key failures into
	// gorm.ErrDuplicatedKey, which the idempotency checks rely on.
	database, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Error),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	return database, nil
}
