package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default("Acme Realty")
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "Acme Realty", cfg.Office.Name)
	wd, err := cfg.WeekStart()
	require.NoError(t, err)
	assert.Equal(t, time.Sunday, wd)
	assert.Contains(t, cfg.Permissions("manager"), "records.read_all")
	assert.NotContains(t, cfg.Permissions("advisor"), "records.read_all")
	assert.Nil(t, cfg.Permissions("intern"))
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]func(c *Config){
		"office.name":     func(c *Config) { c.Office.Name = " " },
		"timezone":        func(c *Config) { c.Office.Timezone = "Mars/Olympus" },
		"week_start":      func(c *Config) { c.Calendar.WeekStart = "someday" },
		"reminders.cron":  func(c *Config) { c.Reminders.Cron = "every morning" },
		"webhook":         func(c *Config) { c.Webhooks = []WebhookConfig{{URL: "ftp://x"}} },
		"base_path":       func(c *Config) { c.Server.BasePath = "v1" },
		"log.level":       func(c *Config) { c.Log.Level = "loud" },
		"must include":    func(c *Config) { delete(c.RBAC.Roles, "advisor") },
		"sessions.max":    func(c *Config) { c.Sessions.Max = -1 },
		"max_occurrences": func(c *Config) { c.Calendar.MaxOccurrences = -2 },
	}
	for want, mutate := range cases {
		cfg := Default("x")
		mutate(cfg)
		err := cfg.Validate()
		if assert.Error(t, err, want) {
			assert.True(t, strings.Contains(err.Error(), want), "%s: %v", want, err)
		}
	}
}

func TestLoadFromWorkspace(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadOptional(dir)
	require.NoError(t, err)
	assert.Nil(t, cfg)
	_, err = Load(dir)
	assert.Error(t, err)

	body := strings.Replace(GenerateDefault("Casa Sur"), "week_start: sunday", "week_start: Monday", 1)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "brokerdesk.yml"), []byte(body), 0o644))
	cfg, err = Load(dir)
	require.NoError(t, err)
	wd, err := cfg.WeekStart()
	require.NoError(t, err)
	assert.Equal(t, time.Monday, wd)
}
