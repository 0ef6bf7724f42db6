package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"zhatCmd/internal/domain"
)

// Store guarda los comandos personalizados y los ajustes del bot.
type Store struct {
	db *sql.DB
}

func NewStore(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("sqlite: empty db path")
	}

	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: creating dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}

	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	const customCommandsTable = `
CREATE TABLE IF NOT EXISTS custom_commands (
	name TEXT PRIMARY KEY,
	response TEXT NOT NULL,
	aliases TEXT,
	platforms TEXT,
	updated_at TIMESTAMP NOT NULL
);`

	if _, err := db.Exec(customCommandsTable); err != nil {
		return fmt.Errorf("sqlite: migrate custom_commands: %w", err)
	}
	if _, err := db.Exec(`ALTER TABLE custom_commands ADD COLUMN permissions TEXT;`); err != nil {
		if !strings.Contains(strings.ToLower(err.Error()), "duplicate column") {
			return fmt.Errorf("sqlite: add permissions column: %w", err)
		}
	}

	const settingsTable = `
CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT,
	updated_at TIMESTAMP NOT NULL
);`

	if _, err := db.Exec(settingsTable); err != nil {
		return fmt.Errorf("sqlite: migrate settings: %w", err)
	}

	return nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ----- Custom commands -----

func (s *Store) UpsertCustomCommand(ctx context.Context, cmd *domain.CustomCommand) error {
	if cmd == nil {
		return fmt.Errorf("sqlite: custom command nil")
	}

	if cmd.UpdatedAt.IsZero() {
		cmd.UpdatedAt = time.Now().UTC()
	}

	const stmt = `
INSERT INTO custom_commands (name, response, aliases, platforms, permissions, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(name) DO UPDATE SET
	response=excluded.response,
	aliases=excluded.aliases,
	platforms=excluded.platforms,
	permissions=excluded.permissions,
	updated_at=excluded.updated_at;
`

	_, err := s.db.ExecContext(
		ctx,
		stmt,
		cmd.Name,
		cmd.Response,
		encodeStrings(cmd.Aliases),
		encodeStrings(cmd.Platforms),
		encodeStrings(cmd.Permissions),
		cmd.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: upsert custom command: %w", err)
	}

	return nil
}

func (s *Store) GetCustomCommand(ctx context.Context, name string) (*domain.CustomCommand, error) {
	const query = `
SELECT name, response, aliases, platforms, permissions, updated_at
FROM custom_commands
WHERE LOWER(name) = LOWER(?)
LIMIT 1;
`

	cmd, err := scanCustomCommand(s.db.QueryRowContext(ctx, query, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get custom command: %w", err)
	}
	return cmd, nil
}

func (s *Store) ListCustomCommands(ctx context.Context) ([]*domain.CustomCommand, error) {
	const query = `
SELECT name, response, aliases, platforms, permissions, updated_at
FROM custom_commands
ORDER BY name;
`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list custom commands: %w", err)
	}
	defer rows.Close()

	var cmds []*domain.CustomCommand
	for rows.Next() {
		cmd, err := scanCustomCommand(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan custom command: %w", err)
		}
		cmds = append(cmds, cmd)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list custom command rows: %w", err)
	}

	return cmds, nil
}

func (s *Store) DeleteCustomCommand(ctx context.Context, name string) error {
	const stmt = `DELETE FROM custom_commands WHERE LOWER(name) = LOWER(?);`
	if _, err := s.db.ExecContext(ctx, stmt, name); err != nil {
		return fmt.Errorf("sqlite: delete custom command: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCustomCommand(row scanner) (*domain.CustomCommand, error) {
	var record domain.CustomCommand
	var aliasesRaw, platformsRaw, permissionsRaw sql.NullString
	var updatedAt sql.NullTime

	if err := row.Scan(&record.Name, &record.Response, &aliasesRaw, &platformsRaw, &permissionsRaw, &updatedAt); err != nil {
		return nil, err
	}

	record.Aliases = decodeStrings[string](aliasesRaw.String)
	record.Platforms = decodeStrings[domain.Platform](platformsRaw.String)
	record.Permissions = decodeStrings[domain.CommandAccessRole](permissionsRaw.String)
	record.UpdatedAt = updatedAt.Time
	return &record, nil
}

func encodeStrings[T ~string](values []T) any {
	clean := make([]string, 0, len(values))
	for _, v := range values {
		if val := strings.TrimSpace(string(v)); val != "" {
			clean = append(clean, val)
		}
	}
	if len(clean) == 0 {
		return nil
	}
	b, err := json.Marshal(clean)
	if err != nil {
		return nil
	}
	return string(b)
}

func decodeStrings[T ~string](raw string) []T {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var entries []string
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil
	}
	var out []T
	for _, entry := range entries {
		if entry = strings.TrimSpace(entry); entry != "" {
			out = append(out, T(entry))
		}
	}
	return out
}

// ----- TTS Settings -----

const ttsVoiceKey = "tts_voice"
const ttsEnabledKey = "tts_enabled"

func (s *Store) SetTTSVoice(ctx context.Context, voice string) error {
	return s.setSetting(ctx, ttsVoiceKey, voice)
}

func (s *Store) GetTTSVoice(ctx context.Context) (string, error) {
	return s.getSetting(ctx, ttsVoiceKey)
}

func (s *Store) SetTTSEnabled(ctx context.Context, enabled bool) error {
	value := "false"
	if enabled {
		value = "true"
	}
	return s.setSetting(ctx, ttsEnabledKey, value)
}

// GetTTSEnabled devuelve true mientras nadie lo haya apagado.
func (s *Store) GetTTSEnabled(ctx context.Context) (bool, error) {
	val, err := s.getSetting(ctx, ttsEnabledKey)
	if err != nil {
		return false, err
	}
	return strings.ToLower(strings.TrimSpace(val)) != "false", nil
}

func (s *Store) setSetting(ctx context.Context, key, value string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("sqlite: empty setting key")
	}

	const stmt = `
INSERT INTO settings (key, value, updated_at)
VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET
	value=excluded.value,
	updated_at=excluded.updated_at;
`

	if _, err := s.db.ExecContext(ctx, stmt, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("sqlite: set setting: %w", err)
	}

	return nil
}

func (s *Store) getSetting(ctx context.Context, key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("sqlite: empty setting key")
	}

	const query = `SELECT value FROM settings WHERE key = ? LIMIT 1;`
	row := s.db.QueryRowContext(ctx, query, key)

	var value sql.NullString
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("sqlite: get setting: %w", err)
	}

	return value.String, nil
}

var (
	_ domain.CustomCommandRepository = (*Store)(nil)
	_ domain.TTSSettingsRepository   = (*Store)(nil)
)
