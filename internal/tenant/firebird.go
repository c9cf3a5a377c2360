package tenant

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/nakagami/firebirdsql" // database/sql driver for the tenant databases
)

// Connector opens tenant database connections. The interface exists so the
// login flow and its tests can substitute the real Firebird dial.
type Connector interface {
	// Connect opens a live connection for report execution. The caller owns
	// the handle and must close it before the action returns — tenant
	// connections are never pooled across actions.
	Connect(ctx context.Context, d Descriptor) (*sqlx.DB, error)
	// Probe opens a connection, pings it and closes it immediately. No
	// statement is executed. A single failed attempt is terminal; the caller
	// must resubmit the action to try again.
	Probe(ctx context.Context, d Descriptor) error
}

// Firebird is the production Connector.
type Firebird struct{}

func NewFirebird() *Firebird { return &Firebird{} }

func (f *Firebird) Connect(ctx context.Context, d Descriptor) (*sqlx.DB, error) {
	db, err := sqlx.Open("firebirdsql", driverDSN(d))
	if err != nil {
		return nil, fmt.Errorf("conexão firebird (%s): %w", d.DSN(), err)
	}
	// One action, one connection.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("conexão firebird (%s): %w", d.DSN(), err)
	}
	return db, nil
}

func (f *Firebird) Probe(ctx context.Context, d Descriptor) error {
	db, err := f.Connect(ctx, d)
	if err != nil {
		return err
	}
	return db.Close()
}

// driverDSN maps a Descriptor onto the firebirdsql connection string
// (user:password@host:port/database). The descriptor's empty-host convention
// selects the local server; the user-facing DSN form lives in Descriptor.DSN.
func driverDSN(d Descriptor) string {
	host := strings.TrimSpace(d.Host)
	if host == "" {
		host = "localhost"
	}
	porta := d.Porta
	if porta == "" {
		porta = "3050"
	}
	return fmt.Sprintf("%s:%s@%s:%s/%s?charset=UTF8",
		url.QueryEscape(d.User), url.QueryEscape(d.Password), host, porta, d.Database)
}
