// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"

	"markpress/internal/database"
)

// testDB connects to MARKPRESS_TEST_DSN, or to the docker-compose database
// described by the POSTGRES_* variables, and migrates it. Store tests skip
// when no database answers.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := os.Getenv("MARKPRESS_TEST_DSN")
	if dsn == "" {
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			envOr("POSTGRES_USER", "markpress"),
			envOr("POSTGRES_PASSWORD", "changeme"),
			envOr("POSTGRES_HOST", "localhost"),
			envOr("POSTGRES_PORT", "5432"),
			envOr("POSTGRES_DB", "markpress"),
		)
	}

	ctx := context.Background()
	db, err := database.Connect(ctx, dsn)
	if err != nil {
		t.Skipf("skipping integration test: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := database.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// cleanSession deletes a session's chats and images once the test ends.
// Messages follow their chat through ON DELETE CASCADE.
func cleanSession(t *testing.T, db *sql.DB, sessionID string) {
	t.Helper()
	t.Cleanup(func() {
		db.Exec("DELETE FROM chats WHERE session_id = $1", sessionID)
		db.Exec("DELETE FROM generated_images WHERE session_id = $1", sessionID)
		db.Exec("DELETE FROM uploads WHERE session_id = $1", sessionID)
	})
}

// cleanDrafts deletes drafts by slug once the test ends.
func cleanDrafts(t *testing.T, db *sql.DB, slugs ...string) {
	t.Helper()
	t.Cleanup(func() {
		for _, slug := range slugs {
			db.Exec("DELETE FROM drafts WHERE slug = $1", slug)
		}
	})
}
