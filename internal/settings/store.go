// internal/settings/store.go
package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"

	_ "modernc.org/sqlite"
)

// Namespace groups the network keys in the settings table.
const Namespace = "storage"

// Keys.
const (
	KeySSID = "ssid"
	KeyPass = "pass"
	KeyIP   = "ip"
	KeyGW   = "gw"
	KeyMask = "mask"
)

// Network holds the station credentials and static addressing.
type Network struct {
	SSID     string
	Password string
	IP       string
	Gateway  string
	Netmask  string
}

// Defaults returns the factory settings.
func Defaults() Network {
	return Network{
		SSID:     "SSID",
		Password: "PASSWORD",
		IP:       "192.168.2.123",
		Gateway:  "192.168.2.1",
		Netmask:  "255.255.255.0",
	}
}

// Validate checks the addressing fields. Empty SSID is rejected.
func (n Network) Validate() error {
	if n.SSID == "" {
		return errors.New("settings: ssid is required")
	}
	for name, v := range map[string]string{KeyIP: n.IP, KeyGW: n.Gateway, KeyMask: n.Netmask} {
		if net.ParseIP(v).To4() == nil {
			return fmt.Errorf("settings: %s %q is not an IPv4 address", name, v)
		}
	}
	return nil
}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS settings (
    namespace TEXT NOT NULL,
    key       TEXT NOT NULL,
    value     TEXT NOT NULL,
    PRIMARY KEY (namespace, key)
);`

// Store persists settings in a SQLite file.
type Store struct {
	db *sql.DB
}

// Open opens or creates the settings database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("settings: open %s: %w", path, err)
	}
	// One connection: SQLite serializes writers anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("settings: create table in %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Load returns the stored network settings. Each missing key takes its
// factory default independently.
func (s *Store) Load(ctx context.Context) (Network, error) {
	n := Defaults()

	rows, err := s.db.QueryContext(ctx,
		"SELECT key, value FROM settings WHERE namespace = ?", Namespace)
	if err != nil {
		return n, fmt.Errorf("settings: load: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return Defaults(), fmt.Errorf("settings: load: %w", err)
		}
		switch k {
		case KeySSID:
			n.SSID = v
		case KeyPass:
			n.Password = v
		case KeyIP:
			n.IP = v
		case KeyGW:
			n.Gateway = v
		case KeyMask:
			n.Netmask = v
		}
	}
	if err := rows.Err(); err != nil {
		return Defaults(), fmt.Errorf("settings: load: %w", err)
	}
	return n, nil
}

// Save writes every key in one transaction.
func (s *Store) Save(ctx context.Context, n Network) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("settings: save: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO settings(namespace, key, value) VALUES(?, ?, ?) "+
			"ON CONFLICT(namespace, key) DO UPDATE SET value = excluded.value")
	if err != nil {
		return fmt.Errorf("settings: save: %w", err)
	}
	defer stmt.Close()

	for _, kv := range [][2]string{
		{KeySSID, n.SSID},
		{KeyPass, n.Password},
		{KeyIP, n.IP},
		{KeyGW, n.Gateway},
		{KeyMask, n.Netmask},
	} {
		if _, err := stmt.ExecContext(ctx, Namespace, kv[0], kv[1]); err != nil {
			return fmt.Errorf("settings: save %s: %w", kv[0], err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("settings: save: %w", err)
	}
	return nil
}
