package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

const (
	mysqlLockPrefix = "checkout:"
	// MySQL rejects user lock names longer than 64 characters.
	mysqlLockNameMax  = 64
	mysqlLockWaitSecs = 1
)

// MySQLLocker serializes operations on a session across every process that
// shares the database, using GET_LOCK. The lock lives on a dedicated
// connection and is held until released or that connection is lost.
type MySQLLocker struct {
	db *sql.DB
}

func NewMySQLLocker(db *sql.DB) *MySQLLocker {
	return &MySQLLocker{db: db}
}

func (m *MySQLLocker) Lock(ctx context.Context, id string) (context.Context, func(), error) {
	conn, err := m.db.Conn(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("mysql lock connection: %w", err)
	}

	name := mysqlLockName(id)
	for {
		var got sql.NullInt64
		err := conn.QueryRowContext(ctx, `SELECT GET_LOCK(?, ?)`, name, mysqlLockWaitSecs).Scan(&got)
		if err != nil {
			discardConn(conn)
			if ctx.Err() != nil {
				return nil, nil, ctx.Err()
			}
			return nil, nil, fmt.Errorf("mysql get_lock failed: %w", err)
		}
		if got.Valid && got.Int64 == 1 {
			break
		}
		if !got.Valid {
			discardConn(conn)
			return nil, nil, fmt.Errorf("mysql get_lock %s returned NULL", name)
		}
		if ctx.Err() != nil {
			_ = conn.Close()
			return nil, nil, ctx.Err()
		}
	}

	var once sync.Once
	unlock := func() {
		once.Do(func() {
			releaseCtx, cancel := context.WithTimeout(context.Background(), lockReleaseBudget)
			defer cancel()

			var released sql.NullInt64
			err := conn.QueryRowContext(releaseCtx, `SELECT RELEASE_LOCK(?)`, name).Scan(&released)
			if err != nil || !released.Valid || released.Int64 != 1 {
				// never hand a connection that may still hold the lock back to the pool
				discardConn(conn)
				return
			}
			_ = conn.Close()
		})
	}
	return ctx, unlock, nil
}

func mysqlLockName(id string) string {
	name := mysqlLockPrefix + id
	if len(name) > mysqlLockNameMax {
		name = mysqlLockPrefix + uuid.NewSHA1(uuid.NameSpaceOID, []byte(id)).String()
	}
	return name
}

// discardConn closes conn and drops the underlying connection instead of
// returning it to the pool.
func discardConn(conn *sql.Conn) {
	_ = conn.Raw(func(any) error { return driver.ErrBadConn })
	_ = conn.Close()
}

