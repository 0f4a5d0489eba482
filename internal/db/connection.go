package db

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

// DB wraps a pgx connection with a display-safe description of its target.
type DB struct {
	Conn *pgx.Conn
	info string
}

// Connect establishes a PostgreSQL connection from a URI with a 10-second
// timeout. sslmode defaults to prefer.
func Connect(ctx context.Context, uri string) (*DB, error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid URI: %w", err)
	}

	q := parsed.Query()
	if q.Get("sslmode") == "" {
		q.Set("sslmode", "prefer")
		parsed.RawQuery = q.Encode()
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, parsed.String())
	if err != nil {
		return nil, err
	}

	return &DB{Conn: conn, info: RedactURI(uri)}, nil
}

// Close closes the database connection.
func (d *DB) Close() {
	if d.Conn != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		d.Conn.Close(ctx)
	}
}

// ConnInfo returns a display-safe connection string (no password).
func (d *DB) ConnInfo() string {
	return d.info
}

// RedactURI returns uri in the ConnInfo form, or "postgres" if it cannot be
// parsed.
func RedactURI(uri string) string {
	parsed, err := url.Parse(uri)
	if err != nil || parsed.Host == "" {
		return "postgres"
	}
	port := parsed.Port()
	if port == "" {
		port = "5432"
	}
	return connInfo(parsed.User.Username(), parsed.Hostname(), port, strings.TrimPrefix(parsed.Path, "/"))
}

func connInfo(user, host, port, database string) string {
	return fmt.Sprintf("postgres://%s@%s:%s/%s", user, host, port, database)
}
