package migration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_extension_uuid_ossp",
		SQL:  `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	},
	{
		Name: "create_table_snitch_reports",
		SQL: `CREATE TABLE IF NOT EXISTS snitch_reports (
  id           UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  name         TEXT        NOT NULL,
  events_key   TEXT        NOT NULL UNIQUE,
  snitchdb_key TEXT        NOT NULL DEFAULT '',
  event_count  INTEGER     NOT NULL CHECK (event_count >= 0),
  user_count   INTEGER     NOT NULL CHECK (user_count >= 0),
  snitch_count INTEGER     NOT NULL CHECK (snitch_count >= 0),
  start_at     TIMESTAMPTZ NOT NULL,
  end_at       TIMESTAMPTZ NOT NULL,
  duration_ms  BIGINT      NOT NULL CHECK (duration_ms >= 0),
  created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_snitch_reports_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_snitch_reports_created_at ON snitch_reports (created_at);`,
	},
	{
		Name: "create_table_snitch_events",
		SQL: `CREATE TABLE IF NOT EXISTS snitch_events (
  id          BIGSERIAL   PRIMARY KEY,
  report_id   UUID        NOT NULL REFERENCES snitch_reports (id) ON DELETE CASCADE,
  kind        TEXT        NOT NULL,
  username    TEXT        NOT NULL,
  snitch_name TEXT        NOT NULL,
  group_name  TEXT        NOT NULL,
  x           INTEGER     NOT NULL,
  y           INTEGER     NOT NULL,
  z           INTEGER     NOT NULL,
  t_ms        BIGINT      NOT NULL,
  occurred_at TIMESTAMPTZ NOT NULL
);`,
	},
	{
		Name: "create_index_snitch_events_report_t",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_snitch_events_report_t ON snitch_events (report_id, t_ms);`,
	},
	{
		Name: "create_index_snitch_events_username",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_snitch_events_username ON snitch_events (report_id, username);`,
	},
	{
		Name: "create_table_snitches",
		SQL: `CREATE TABLE IF NOT EXISTS snitches (
  id         BIGSERIAL PRIMARY KEY,
  report_id  UUID      NOT NULL REFERENCES snitch_reports (id) ON DELETE CASCADE,
  world      TEXT      NOT NULL,
  x          INTEGER   NOT NULL,
  y          INTEGER   NOT NULL,
  z          INTEGER   NOT NULL,
  group_name TEXT      NOT NULL DEFAULT '',
  type       TEXT      NOT NULL DEFAULT '',
  name       TEXT      NOT NULL DEFAULT '',
  dormant_ts BIGINT    NOT NULL DEFAULT 0,
  cull_ts    BIGINT    NOT NULL DEFAULT 0,
  created_ts BIGINT    NOT NULL DEFAULT 0,
  synthetic  BOOLEAN   NOT NULL DEFAULT FALSE
);`,
	},
	{
		Name: "create_index_snitches_report",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_snitches_report ON snitches (report_id);`,
	},
	{
		Name: "create_table_render_jobs",
		SQL: `CREATE TABLE IF NOT EXISTS render_jobs (
  id           UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  report_id    UUID        NOT NULL REFERENCES snitch_reports (id) ON DELETE CASCADE,
  status       TEXT        NOT NULL,
  fps          INTEGER     NOT NULL,
  duration_sec INTEGER     NOT NULL,
  width        INTEGER     NOT NULL,
  height       INTEGER     NOT NULL,
  fade_ms      BIGINT      NOT NULL,
  all_snitches BOOLEAN     NOT NULL DEFAULT FALSE,
  tiles        BOOLEAN     NOT NULL DEFAULT FALSE,
  video_key    TEXT        NOT NULL DEFAULT '',
  error        TEXT        NOT NULL DEFAULT '',
  created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
  started_at   TIMESTAMPTZ,
  finished_at  TIMESTAMPTZ
);`,
	},
	{
		Name: "create_index_render_jobs_status",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_render_jobs_status ON render_jobs (status);`,
	},
	{
		Name: "create_index_render_jobs_report",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_render_jobs_report ON render_jobs (report_id);`,
	},
}

// EnsureMigrated checks if the 'snitch_reports' table exists and runs migrations if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, loc *time.Location, dbHost string) error {
	start := time.Now()

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_check",
		"status":    "starting",
		"db_host":   dbHost,
	})

	var exists bool
	query := "SELECT to_regclass('public.snitch_reports') IS NOT NULL"
	err := db.QueryRowContext(ctx, query).Scan(&exists)
	if err != nil {
		logJSON(loc, map[string]any{
			"component":     "database",
			"event":         "db_migration_failed",
			"status":        "error",
			"error_message": fmt.Sprintf("failed to check sentinel table: %v", err),
			"db_host":       dbHost,
			"duration_ms":   time.Since(start).Milliseconds(),
		})
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		logJSON(loc, map[string]any{
			"component":   "database",
			"event":       "db_migration_skip",
			"status":      "success",
			"msg":         "schema already exists, skipping migration",
			"db_host":     dbHost,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return nil
	}

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_start",
		"status":    "in_progress",
		"db_host":   dbHost,
	})

	for _, step := range steps {
		stepStart := time.Now()
		_, err := db.ExecContext(ctx, step.SQL)
		if err != nil {
			logJSON(loc, map[string]any{
				"component":        "database",
				"event":            "db_migration_failed",
				"status":           "error",
				"migration_step":   step.Name,
				"error_message":    err.Error(),
				"db_host":          dbHost,
				"duration_ms":      time.Since(start).Milliseconds(),
				"step_duration_ms": time.Since(stepStart).Milliseconds(),
			})
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		logJSON(loc, map[string]any{
			"component":        "database",
			"event":            "db_migration_step",
			"status":           "success",
			"migration_step":   step.Name,
			"db_host":          dbHost,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		})
	}

	logJSON(loc, map[string]any{
		"component":   "database",
		"event":       "db_migration_success",
		"status":      "success",
		"db_host":     dbHost,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return nil
}

func logJSON(loc *time.Location, data map[string]any) {
	data["ts"] = time.Now().In(loc).Format(time.RFC3339Nano)
	if _, ok := data["level"]; !ok {
		if data["status"] == "error" {
			data["level"] = "error"
		} else {
			data["level"] = "info"
		}
	}

	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal migration log: %v", err)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
