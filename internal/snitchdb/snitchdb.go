// Package snitchdb reads snitch definitions out of snitchmods SQLite
// exports. The databases are uploaded artifacts and are never written
// to; they are opened read-only.
package snitchdb

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"snitchvis/internal/model"
)

// snitchmods stores its snitches in a table named snitches_v2. Height
// is in the y column (Minecraft convention); the scan below swaps it
// into Z to match the renderer's axes. Broken and gone snitches no
// longer exist in the world and are filtered out; exports record "never"
// as either NULL or 0 in those columns.
const readQuery = `
SELECT world, x, y, z, group_name, type, name, dormant_ts, cull_ts, created_ts
FROM snitches_v2
WHERE COALESCE(broken_ts, 0) = 0 AND COALESCE(gone_ts, 0) = 0
ORDER BY rowid`

// ReadSnitches opens the SQLite database at path and returns every
// live snitch in it.
func ReadSnitches(ctx context.Context, path string) ([]model.Snitch, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("snitchdb: path is required")
	}
	dsn := "file:" + filepath.Clean(path) + "?mode=ro&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("snitchdb: open: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("snitchdb: ping: %w", err)
	}

	rows, err := db.QueryContext(ctx, readQuery)
	if err != nil {
		return nil, fmt.Errorf("snitchdb: query snitches: %w", err)
	}
	defer rows.Close()

	var snitches []model.Snitch
	for rows.Next() {
		var (
			s       model.Snitch
			world   sql.NullString
			height  int
			group   sql.NullString
			typ     sql.NullString
			name    sql.NullString
			dormant sql.NullInt64
			cull    sql.NullInt64
			created sql.NullInt64
		)
		if err := rows.Scan(&world, &s.X, &height, &s.Y, &group, &typ, &name, &dormant, &cull, &created); err != nil {
			return nil, fmt.Errorf("snitchdb: scan snitch: %w", err)
		}
		s.World = world.String
		s.Z = height
		s.GroupName = group.String
		s.Type = typ.String
		s.Name = name.String
		s.DormantTS = dormant.Int64
		s.CullTS = cull.Int64
		s.CreatedTS = created.Int64
		snitches = append(snitches, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("snitchdb: iterate snitches: %w", err)
	}
	return snitches, nil
}
