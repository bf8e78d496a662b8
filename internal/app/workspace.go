package app

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"brokerdesk/internal/config"
	"brokerdesk/internal/db"
	"brokerdesk/internal/engine"
	"brokerdesk/internal/migrate"
	"brokerdesk/internal/repo"
)

// EnvAdvisorKey persists the default advisor in <workspace>/.env.
const EnvAdvisorKey = "BROKERDESK_ADVISOR_ID"

// Workspace is an opened, migrated workspace.
type Workspace struct {
	Dir    string
	DB     *sql.DB
	Config *config.Config
}

// Open creates the state directory, applies migrations and loads
// brokerdesk.yml, falling back to defaults when the file is absent.
func Open(dir string) (*Workspace, error) {
	if dir == "" {
		dir = "."
	}
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		return nil, err
	}
	if err := migrate.Migrate(conn); err != nil {
		conn.Close()
		return nil, err
	}
	cfg, err := config.LoadOptional(dir)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if cfg == nil {
		cfg = config.Default(filepath.Base(absOr(dir)))
	}
	return &Workspace{Dir: dir, DB: conn, Config: cfg}, nil
}

func absOr(dir string) string {
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return dir
}

func (w *Workspace) Close() error { return w.DB.Close() }

func (w *Workspace) Engine() engine.Engine { return engine.New(w.DB, w.Config) }

// Init writes a default brokerdesk.yml unless one exists and registers the
// first manager of an empty workspace.
func Init(ctx context.Context, dir, officeName, managerID, managerName string) (*Workspace, error) {
	path := config.Path(dir)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if officeName == "" {
			officeName = filepath.Base(absOr(dir))
		}
		if err := os.WriteFile(path, []byte(config.GenerateDefault(officeName)), 0o644); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}
	w, err := Open(dir)
	if err != nil {
		return nil, err
	}
	if managerID != "" {
		if _, err := w.Engine().Bootstrap(ctx, managerID, managerName); err != nil {
			w.Close()
			return nil, err
		}
		if err := SetEnvValue(filepath.Join(dir, ".env"), EnvAdvisorKey, managerID); err != nil {
			w.Close()
			return nil, err
		}
	}
	return w, nil
}

// ResolveAdvisor picks the acting advisor: the override, then the
// workspace .env default. The advisor must exist.
func ResolveAdvisor(ctx context.Context, w *Workspace, override string) (string, error) {
	advisorID := strings.TrimSpace(override)
	if advisorID == "" {
		v, err := EnvValue(filepath.Join(w.Dir, ".env"), EnvAdvisorKey)
		if err != nil {
			return "", err
		}
		advisorID = v
	}
	if advisorID == "" {
		return "", fmt.Errorf("advisor not specified; use --advisor-id or bd advisor use <id>")
	}
	if _, err := (repo.Repo{DB: w.DB}).GetAdvisor(ctx, nil, advisorID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", fmt.Errorf("advisor %s not found", advisorID)
		}
		return "", err
	}
	return advisorID, nil
}

// NewLogger builds the process logger. level overrides the config value
// when set.
func NewLogger(cfg *config.Config, level string, out io.Writer) *slog.Logger {
	format := "text"
	if cfg != nil {
		if level == "" {
			level = cfg.Log.Level
		}
		if cfg.Log.Format != "" {
			format = strings.ToLower(cfg.Log.Format)
		}
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(out, opts))
	}
	return slog.New(slog.NewTextHandler(out, opts))
}

// EnvValue reads key from a dotenv file; a missing file yields "".
func EnvValue(path, key string) (string, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if v, ok := strings.CutPrefix(scanner.Text(), key+"="); ok {
			return strings.TrimSpace(v), nil
		}
	}
	return "", scanner.Err()
}

// SetEnvValue writes or replaces key in a dotenv file.
func SetEnvValue(path, key, value string) error {
	var lines []string
	seen := false
	f, err := os.Open(path)
	if err == nil {
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := scanner.Text()
			if strings.HasPrefix(line, key+"=") {
				lines = append(lines, fmt.Sprintf("%s=%s", key, value))
				seen = true
			} else {
				lines = append(lines, line)
			}
		}
		if err := scanner.Err(); err != nil {
			f.Close()
			return err
		}
		f.Close()
	} else if !os.IsNotExist(err) {
		return err
	}
	if !seen {
		lines = append(lines, fmt.Sprintf("%s=%s", key, value))
	}
	content := strings.Join(lines, "\n")
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
