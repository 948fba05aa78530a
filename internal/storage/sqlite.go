// Package storage handles database connections, schema migrations, and data operations using SQLite.
package storage

import (
	"database/sql"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/scpquery/internal/models"
	_ "modernc.org/sqlite" // Driver sqlite
)

// Repository manages the SQLite database connection.
type Repository struct {
	db *sql.DB
}

// New initializes a new SQLite connection, sets connection pool parameters, and runs migrations.
func New(dbPath string) (*Repository, error) {
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(1 * time.Hour)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Repository{db: db}, nil
}

// Close closes the underlying database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// SetBinding binds a server to a group, replacing any previous binding.
// The original creation time is kept on update.
func (r *Repository) SetBinding(b models.Binding) error {
	now := time.Now().UTC()
	_, err := r.db.Exec(`
	INSERT INTO group_servers (group_id, server_ip, server_port, server_name, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(group_id) DO UPDATE SET
		server_ip   = excluded.server_ip,
		server_port = excluded.server_port,
		server_name = excluded.server_name,
		updated_at  = excluded.updated_at;
	`, b.GroupID, b.Host, b.Port, b.Name, now, now)

	return err
}

// GetBinding returns the binding of a group, or nil when the group has none.
func (r *Repository) GetBinding(groupID string) (*models.Binding, error) {
	row := r.db.QueryRow(`
		SELECT group_id, server_ip, server_port, server_name, created_at, updated_at
		FROM group_servers
		WHERE group_id = ?
	`, groupID)

	var b models.Binding
	err := row.Scan(&b.GroupID, &b.Host, &b.Port, &b.Name, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, err
	}

	return &b, nil
}

// GetBindings returns every binding, most recently updated first.
func (r *Repository) GetBindings() ([]models.Binding, error) {
	rows, err := r.db.Query(`
		SELECT group_id, server_ip, server_port, server_name, created_at, updated_at
		FROM group_servers
		ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var bindings []models.Binding
	for rows.Next() {
		var b models.Binding
		if err := rows.Scan(&b.GroupID, &b.Host, &b.Port, &b.Name, &b.CreatedAt, &b.UpdatedAt); err != nil {
			log.Warn().Err(err).Str("group", b.GroupID).Msg("Skipping unreadable binding row")
			continue
		}
		bindings = append(bindings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return bindings, nil
}

// DeleteBinding removes the binding of a group. It reports whether one existed.
func (r *Repository) DeleteBinding(groupID string) (bool, error) {
	res, err := r.db.Exec(`DELETE FROM group_servers WHERE group_id = ?`, groupID)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	return n > 0, err
}

// AddAdmin stores an administrator. Adding an existing one is a no-op.
func (r *Repository) AddAdmin(userID, addedBy string) error {
	_, err := r.db.Exec(`
	INSERT INTO admins (user_id, added_by, created_at) VALUES (?, ?, ?)
	ON CONFLICT(user_id) DO NOTHING;
	`, userID, addedBy, time.Now().UTC())

	return err
}

// RemoveAdmin deletes an administrator. It reports whether one existed.
func (r *Repository) RemoveAdmin(userID string) (bool, error) {
	res, err := r.db.Exec(`DELETE FROM admins WHERE user_id = ?`, userID)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	return n > 0, err
}

// IsAdmin reports whether the user is a stored administrator.
func (r *Repository) IsAdmin(userID string) (bool, error) {
	var exists int
	err := r.db.QueryRow(`SELECT 1 FROM admins WHERE user_id = ?`, userID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

// GetAdmins returns every stored administrator ordered by user ID.
func (r *Repository) GetAdmins() ([]models.Admin, error) {
	rows, err := r.db.Query(`SELECT user_id, added_by, created_at FROM admins ORDER BY user_id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var admins []models.Admin
	for rows.Next() {
		var a models.Admin
		if err := rows.Scan(&a.UserID, &a.AddedBy, &a.CreatedAt); err != nil {
			log.Warn().Err(err).Str("admin", a.UserID).Msg("Skipping unreadable admin row")
			continue
		}
		admins = append(admins, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return admins, nil
}

// CountAdmins returns the number of stored administrators.
func (r *Repository) CountAdmins() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM admins`).Scan(&n)
	return n, err
}
