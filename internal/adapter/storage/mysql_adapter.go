package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/rl1809/acp-checkout/internal/core/domain"
)

const mysqlDuplicateEntry = 1062

var ErrOptimisticLock = errors.New("optimistic lock conflict")

type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

// EnsureSchema creates the sessions table when it does not exist yet.
func (m *MySQLAdapter) EnsureSchema(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS checkout_sessions (
			id         VARCHAR(64) NOT NULL PRIMARY KEY,
			status     VARCHAR(32) NOT NULL,
			document   JSON        NOT NULL,
			version    INT         NOT NULL DEFAULT 0,
			created_at TIMESTAMP   NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP   NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
		)`)
	if err != nil {
		return fmt.Errorf("create checkout_sessions: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) Get(ctx context.Context, id string) (*domain.Session, error) {
	var (
		document []byte
		version  int
	)
	err := m.db.QueryRowContext(ctx, `
		SELECT document, version
		FROM checkout_sessions WHERE id = ?`, id,
	).Scan(&document, &version)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal(document, &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	session.Version = version
	return &session, nil
}

// Put inserts a new session (Version 0) or updates an existing one only if
// its stored version still equals session.Version. On success the session's
// Version is advanced to the stored revision.
func (m *MySQLAdapter) Put(ctx context.Context, session *domain.Session) error {
	document, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	if session.Version == 0 {
		_, err := m.db.ExecContext(ctx, `
			INSERT INTO checkout_sessions (id, status, document, version)
			VALUES (?, ?, ?, 1)`,
			session.ID, session.Status, document,
		)
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
			return ErrOptimisticLock
		}
		if err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
		session.Version = 1
		return nil
	}

	result, err := m.db.ExecContext(ctx, `
		UPDATE checkout_sessions
		SET status = ?, document = ?, version = version + 1
		WHERE id = ? AND version = ?`,
		session.Status, document, session.ID, session.Version,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrOptimisticLock
	}

	session.Version++
	return nil
}

func (m *MySQLAdapter) Delete(ctx context.Context, id string) error {
	if _, err := m.db.ExecContext(ctx, `DELETE FROM checkout_sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
