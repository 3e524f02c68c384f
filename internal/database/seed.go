// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// SampleSlug is the slug of the draft created by Seed.
const SampleSlug = "welcome-to-the-editor"

const welcomeDraft = "# Welcome to the editor\n\n" +
	"Drafts are written in markdown and previewed with the active theme.\n\n" +
	"```go\nfunc main() {\n\tfmt.Println(\"hello\")\n}\n```\n\n" +
	"```diff\n-old line\n+new line\n```\n"

// Seed creates a sample draft when the drafts table is empty. It reports
// whether a row was inserted.
func Seed(ctx context.Context, db *sql.DB) (bool, error) {
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM drafts").Scan(&count); err != nil {
		return false, fmt.Errorf("seed check drafts: %w", err)
	}
	if count > 0 {
		slog.Debug("drafts present, seed skipped", "count", count)
		return false, nil
	}

	res, err := db.ExecContext(ctx, `
		INSERT INTO drafts (title, slug, body, tags, status)
		VALUES ($1, $2, $3, $4, 'draft')
		ON CONFLICT (slug) DO NOTHING
	`, "Welcome to the editor", SampleSlug, welcomeDraft, []string{"meta"})
	if err != nil {
		return false, fmt.Errorf("seed insert draft: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		slog.Info("database seeded with sample draft", "slug", SampleSlug)
	}
	return n > 0, nil
}
