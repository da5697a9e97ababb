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
		Name: "create_table_files",
		SQL: `CREATE TABLE IF NOT EXISTS files (
  id            UUID             PRIMARY KEY DEFAULT uuid_generate_v4(),
  storage_key   TEXT             NOT NULL UNIQUE,
  name          TEXT             NOT NULL,
  size          BIGINT           NOT NULL CHECK (size >= 0),
  category      TEXT             NOT NULL CHECK (category IN ('image', 'audio', 'video', 'file')),
  width         INTEGER          NOT NULL DEFAULT 0,
  height        INTEGER          NOT NULL DEFAULT 0,
  duration      DOUBLE PRECISION NOT NULL DEFAULT 0,
  position      INTEGER          NOT NULL DEFAULT 0,
  active        BOOLEAN          NOT NULL DEFAULT TRUE,
  thumbnail_key TEXT             NOT NULL DEFAULT '',
  owner_id      TEXT             NOT NULL,
  owner_type    TEXT             NOT NULL CHECK (owner_type IN ('INSTRUCTOR', 'STUDENT', 'USER')),
  created_at    TIMESTAMPTZ      NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_files_owner",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_files_owner ON files (owner_type, owner_id);`,
	},
	{
		Name: "create_table_materials",
		SQL: `CREATE TABLE IF NOT EXISTS materials (
  id            UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  entity_kind   TEXT        NOT NULL CHECK (entity_kind IN ('assignment', 'lecture', 'submission')),
  entity_id     TEXT        NOT NULL,
  file_id       UUID        NOT NULL REFERENCES files (id),
  file_key      TEXT        NOT NULL,
  title         TEXT        NOT NULL,
  file_name     TEXT        NOT NULL,
  file_size     BIGINT      NOT NULL CHECK (file_size >= 0),
  file_type     TEXT        NOT NULL,
  thumbnail_url TEXT        NOT NULL DEFAULT '',
  owner_id      TEXT        NOT NULL,
  owner_type    TEXT        NOT NULL,
  created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_materials_entity",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_materials_entity ON materials (entity_kind, entity_id);`,
	},
	{
		Name: "create_index_materials_created_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_materials_created_at ON materials (created_at);`,
	},
}

// EnsureMigrated checks if the 'files' table exists and runs migrations if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, loc *time.Location, dbHost string) error {
	start := time.Now()

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_check",
		"status":    "starting",
		"db_host":   dbHost,
	})

	var exists bool
	query := "SELECT to_regclass('public.files') IS NOT NULL"
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
