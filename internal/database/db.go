// Package database opens the MySQL pool shared by every repository.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Params carries everything needed to open the pool.  Pool sizing is
// configuration-driven so operators can tune it per deployment.
type Params struct {
	User            string
	Pass            string // empty allowed
	Host            string
	Port            string
	Name            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN builds the driver connection string.  clientFoundRows=true makes
// RowsAffected report matched rows instead of changed rows; the
// ledger's guarded updates rely on that to tell a failed WHERE guard
// apart from a match that wrote identical values (a zero-amount
// reserve would otherwise read as insufficient funds).  parseTime maps
// DATETIME columns onto time.Time in UTC.
func DSN(p Params) string {
	auth := p.User
	if p.Pass != "" {
		auth = fmt.Sprintf("%s:%s", p.User, p.Pass)
	}
	return fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC&clientFoundRows=true",
		auth, p.Host, p.Port, p.Name)
}

// Open connects to MySQL, applies the pool settings and verifies the
// connection with a short ping.
func Open(p Params) (*sql.DB, error) {
	db, err := sql.Open("mysql", DSN(p))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(p.MaxOpenConns)
	db.SetMaxIdleConns(p.MaxIdleConns)
	db.SetConnMaxLifetime(p.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}
