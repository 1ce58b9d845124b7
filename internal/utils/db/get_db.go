package db

import (
	"os"
	"strconv"

	"gorm.io/gorm"
)

// GetDB assembles the connection from DB_* environment variables.
func GetDB() (*gorm.DB, error) {
	host := os.Getenv("DB_HOST")
	port, err := strconv.ParseUint(os.Getenv("DB_PORT"), 10, 32)
	if err != nil {
		port = 5432 // Default PostgreSQL port
	}

	name := os.Getenv("DB_NAME")
	username := os.Getenv("DB_USERNAME")
	password := os.Getenv("DB_PASSWORD")
	return ConnectDatabase(uint(port), host, name, username, password)
}
