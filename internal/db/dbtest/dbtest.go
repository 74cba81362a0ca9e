// Package dbtest opens throwaway SQLite databases for package tests.
package dbtest

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/oggyb/mawaddah/internal/db"
)

// Open returns a migrated in-memory database private to t.
//
// The shared-cache DSN lets concurrent queries of one test see the same
// data; the pool is pinned to one connection so writes never hit
// SQLITE_LOCKED.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, gdb.AutoMigrate(db.Models()...))
	return gdb
}

// User inserts a user with sensible defaults. id and member id derive
// from n.
func User(t *testing.T, gdb *gorm.DB, n uint64, status string) db.User {
	t.Helper()

	u := db.User{
		ID:           n,
		Email:        fmt.Sprintf("user%d@example.com", n),
		PasswordHash: "x",
		MemberID:     fmt.Sprintf("MAW-%06d", n),
		Status:       status,
	}
	require.NoError(t, gdb.Create(&u).Error)
	return u
}

// Profile inserts p, defaulting CreatedAt so ordering is deterministic
// when callers leave it zero.
func Profile(t *testing.T, gdb *gorm.DB, p db.Profile) db.Profile {
	t.Helper()

	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(p.UserID) * time.Minute)
	}
	require.NoError(t, gdb.Create(&p).Error)
	return p
}

// DOB returns a UTC birth date pointer.
func DOB(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}
