package db

import (
	"database/sql"
	"log"
	"os"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

var DB *sql.DB

// Schema per driver. The MySQL DSN must include parseTime=true so DATETIME
// columns scan into time.Time.
var schemas = map[string][]string{
	"mysql": {
		`CREATE TABLE IF NOT EXISTS users (
			id INT AUTO_INCREMENT PRIMARY KEY,
			email VARCHAR(255) UNIQUE NOT NULL,
			username VARCHAR(255) UNIQUE NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at DATETIME(6) NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS clients (
			id INT AUTO_INCREMENT PRIMARY KEY,
			owner_id INT NOT NULL,
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255) NULL,
			phone VARCHAR(64) NULL,
			created_at DATETIME(6) NOT NULL,
			last_contact DATETIME(6) NULL,
			FOREIGN KEY (owner_id) REFERENCES users(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS notes (
			id INT AUTO_INCREMENT PRIMARY KEY,
			client_id INT NOT NULL,
			content TEXT NOT NULL,
			created_at DATETIME(6) NOT NULL,
			FOREIGN KEY (client_id) REFERENCES clients(id) ON DELETE CASCADE
		);`,
	},
	"sqlite3": {
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email TEXT UNIQUE NOT NULL,
			username TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS clients (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			owner_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			email TEXT NULL,
			phone TEXT NULL,
			created_at DATETIME NOT NULL,
			last_contact DATETIME NULL,
			FOREIGN KEY (owner_id) REFERENCES users(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS notes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			client_id INTEGER NOT NULL,
			content TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (client_id) REFERENCES clients(id) ON DELETE CASCADE
		);`,
	},
}

func ConnectDB() {
	var err error
	driver := os.Getenv("DB_DRIVER")
	if driver == "" {
		driver = "mysql"
	}
	dsn := os.Getenv("DSN")
	DB, err = sql.Open(driver, dsn)
	if err != nil {
		log.Fatal("DB connection error:", err)
	}

	if driver == "sqlite3" {
		// A single connection keeps an in-memory database alive and makes
		// the foreign_keys pragma stick.
		DB.SetMaxOpenConns(1)
		if _, err = DB.Exec("PRAGMA foreign_keys = ON"); err != nil {
			log.Fatal("Error enabling foreign keys:", err)
		}
	}

	stmts, ok := schemas[driver]
	if !ok {
		log.Fatal("Unsupported DB driver: ", driver)
	}
	for _, stmt := range stmts {
		if _, err = DB.Exec(stmt); err != nil {
			log.Fatal("Error creating tables:", err)
		}
	}
}
