// Package nvconfig is the sensor's persistent key/value configuration
// store: Wi-Fi mode and credentials, hostname, mDNS instance name, and the
// peak-prediction method. Grounded directly on meterdb/service.go's
// embedded-migration SQLite pattern, repurposed from meter readings to
// configuration.
package nvconfig

import (
	"database/sql"
	"embed"
	"log"
	"sync"

	"github.com/NotCoffee418/dbmigrator"
	"github.com/kwartiwi/p1sensor/pkg/pathing"

	_ "modernc.org/sqlite"
)

var (
	db   *sql.DB
	once sync.Once
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// InitializeDatabase opens the database and applies any pending
// migrations. Must be called once on startup before Get/Set.
func InitializeDatabase() {
	db := GetDB()
	if _, err := db.Exec("SELECT 1;"); err != nil {
		log.Printf("nvconfig: warning: could not probe database: %v", err)
	}

	dbmigrator.SetDatabaseType(dbmigrator.SQLite)
	<-dbmigrator.MigrateUpCh(db, migrationFS, "migrations")
}

// GetDB returns the shared database handle, opening it on first use.
func GetDB() *sql.DB {
	once.Do(func() {
		var err error
		db, err = sql.Open("sqlite", pathing.GetNVConfigDbPath())
		if err != nil {
			log.Fatal(err)
		}
		if err = db.Ping(); err != nil {
			log.Fatal(err)
		}
	})
	return db
}
