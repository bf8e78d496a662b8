package config

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"brokerdesk/internal/calendar"
)

// Config models brokerdesk.yml.
type Config struct {
	Office struct {
		Name     string `yaml:"name"`
		Timezone string `yaml:"timezone"`
	} `yaml:"office"`
	Calendar struct {
		WeekStart      string `yaml:"week_start"`
		MaxOccurrences int    `yaml:"max_occurrences"`
	} `yaml:"calendar"`
	Server struct {
		Addr     string `yaml:"addr"`
		BasePath string `yaml:"base_path"`
	} `yaml:"server"`
	Sessions struct {
		Max int `yaml:"max"`
	} `yaml:"sessions"`
	Reminders struct {
		Enabled bool   `yaml:"enabled"`
		Cron    string `yaml:"cron"`
	} `yaml:"reminders"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Webhooks []WebhookConfig `yaml:"webhooks"`
	RBAC     struct {
		Roles map[string]RBACRole `yaml:"roles"`
	} `yaml:"rbac"`
}

type WebhookConfig struct {
	URL            string   `yaml:"url"`
	Events         []string `yaml:"events"`
	Secret         string   `yaml:"secret"`
	Enabled        *bool    `yaml:"enabled"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
}

type RBACRole struct {
	Description string   `yaml:"description"`
	Permissions []string `yaml:"permissions"`
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; create one with bd init", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Office.Name) == "" {
		return fmt.Errorf("config.office.name is required")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("config.office.timezone: %w", err)
	}
	if _, err := c.WeekStart(); err != nil {
		return err
	}
	if c.Calendar.MaxOccurrences < 0 {
		return fmt.Errorf("config.calendar.max_occurrences must be >= 0")
	}
	if c.Sessions.Max < 0 {
		return fmt.Errorf("config.sessions.max must be >= 0")
	}
	if bp := c.Server.BasePath; bp != "" && !strings.HasPrefix(bp, "/") {
		return fmt.Errorf("config.server.base_path must start with /")
	}
	if c.Reminders.Enabled {
		if _, err := cron.ParseStandard(c.Reminders.Cron); err != nil {
			return fmt.Errorf("config.reminders.cron: %w", err)
		}
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config.log.level must be one of debug, info, warn, error")
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("config.log.format must be text or json")
	}
	for i, hook := range c.Webhooks {
		u, err := url.Parse(strings.TrimSpace(hook.URL))
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("webhook %d has invalid url %q", i, hook.URL)
		}
		if hook.TimeoutSeconds < 0 {
			return fmt.Errorf("webhook %d has negative timeout", i)
		}
	}
	if len(c.RBAC.Roles) > 0 {
		for _, required := range []string{"manager", "advisor"} {
			if _, ok := c.RBAC.Roles[required]; !ok {
				return fmt.Errorf("config.rbac.roles must include %s", required)
			}
		}
		for roleID, role := range c.RBAC.Roles {
			if roleID == "" {
				return fmt.Errorf("config.rbac.roles contains empty role id")
			}
			for _, perm := range role.Permissions {
				if perm == "" {
					return fmt.Errorf("role %s has empty permission id", roleID)
				}
			}
		}
	}
	return nil
}

// Location resolves the office timezone, UTC when unset.
func (c *Config) Location() (*time.Location, error) {
	if c.Office.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Office.Timezone)
}

// WeekStart returns the first column of rendered month grids.
func (c *Config) WeekStart() (time.Weekday, error) {
	if c.Calendar.WeekStart == "" {
		return time.Sunday, nil
	}
	wd, ok := calendar.ParseWeekday(c.Calendar.WeekStart)
	if !ok {
		return 0, fmt.Errorf("config.calendar.week_start %q is not a weekday", c.Calendar.WeekStart)
	}
	return wd, nil
}

// Permissions returns the permissions granted to role.
func (c *Config) Permissions(role string) []string {
	if c == nil {
		return nil
	}
	if r, ok := c.RBAC.Roles[role]; ok {
		return r.Permissions
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "brokerdesk.yml")
}

// GenerateDefault returns default config YAML.
func GenerateDefault(officeName string) string {
	return fmt.Sprintf(defaultTemplate, officeName)
}

// LoadOptional returns nil,nil if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Default returns the default Config struct for an office.
func Default(officeName string) *Config {
	var cfg Config
	_ = yaml.NewDecoder(bytes.NewBufferString(GenerateDefault(officeName))).Decode(&cfg)
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `office:
  name: %q
  timezone: UTC

calendar:
  week_start: sunday
  max_occurrences: 366

server:
  addr: 127.0.0.1:8080
  base_path: /v1

sessions:
  max: 1024

reminders:
  enabled: true
  cron: "0 7 * * *"

log:
  level: info
  format: text

webhooks: []

rbac:
  roles:
    manager:
      description: "Office manager; sees every advisor's records"
      permissions:
        - advisor.manage
        - key.manage
        - client.write
        - property.write
        - schedule.write
        - records.read_all
        - stats.read
    advisor:
      description: "Sales advisor; sees own records"
      permissions:
        - client.write
        - property.write
        - schedule.write
        - stats.read
`
