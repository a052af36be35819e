package db

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var ErrEmptyDatabaseURI = errors.New("database uri is empty")

// Target is a parsed database uri: which store to use and how to reach it
type Target struct {
	Driver string

	// For postgres it is 'postgres://...' connection string, for sqlite a file path or ':memory:'
	DSN string
}

// ParseTarget selects the store by uri scheme.
// 'postgres://' and 'postgresql://' select PostgreSQL, user and password (if not empty) override the uri ones.
// 'sqlite://<path>', 'file:<path>' or a bare path select embedded SQLite, credentials are ignored.
func ParseTarget(uri string, user string, password string) (Target, error) {
	switch {
	case uri == "":
		return Target{}, ErrEmptyDatabaseURI

	case strings.HasPrefix(uri, "postgres://"), strings.HasPrefix(uri, "postgresql://"):
		u, err := url.Parse(uri)
		if err != nil {
			return Target{}, fmt.Errorf("invalid database uri. Err: %w", err)
		}

		name := u.User.Username()
		pass, hasPass := u.User.Password()
		if user != "" {
			name = user
		}
		if password != "" {
			pass, hasPass = password, true
		}

		switch {
		case hasPass:
			u.User = url.UserPassword(name, pass)
		case name != "":
			u.User = url.User(name)
		}

		return Target{Driver: DriverPostgres, DSN: u.String()}, nil

	case strings.HasPrefix(uri, "sqlite://"):
		path := strings.TrimPrefix(uri, "sqlite://")
		if path == "" {
			return Target{}, fmt.Errorf("sqlite uri %q has no path", uri)
		}
		return Target{Driver: DriverSQLite, DSN: path}, nil

	default:
		return Target{Driver: DriverSQLite, DSN: uri}, nil
	}
}
