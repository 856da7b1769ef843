// internal/config/config.go
//
// This package handles configuration and the .forge directory structure.
// Every project that runs forge gets a .forge/ folder created in its root.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// ForgeDir is the name of the directory we create in each project
	ForgeDir = ".forge"

	defaultCrafterRole   = "@Artesanos"
	defaultReferenceTier = "CP160"
	defaultWaitSeconds   = 180
	defaultMaxParts      = 12
	defaultBridgeHost    = "127.0.0.1"
	defaultBridgePort    = 8765
	defaultRecentOrders  = 64
	defaultRecentTTL     = 60
)

const defaultProjectConfigYAML = `# forge project configuration
version: 1

guild:
  # Tag crafters are addressed with when an order is confirmed.
  crafter_role: "@Artesanos"
  # Gold charged per piece, shown in the menu text.
  price_per_piece: 0
  # Character-power tier the catalog quantities are for.
  reference_tier: CP160

intake:
  # Seconds to wait for each answer before the order is cancelled.
  wait_seconds: 180
  # Maximum number of parts in one order.
  max_parts: 12

bridge:
  host: 127.0.0.1
  port: 8765
  # Confirmed orders kept in memory for GET /orders/{id}.
  recent_orders: 64
  recent_ttl_minutes: 60
`

// GuildConfig describes who receives orders and what they cost.
type GuildConfig struct {
	CrafterRole   string  `yaml:"crafter_role"`
	PricePerPiece float64 `yaml:"price_per_piece"`
	ReferenceTier string  `yaml:"reference_tier"`
}

// IntakeConfig bounds order sessions.
type IntakeConfig struct {
	WaitSeconds int `yaml:"wait_seconds"`
	MaxParts    int `yaml:"max_parts"`
}

// BridgeConfig configures the websocket bridge.
type BridgeConfig struct {
	Host             string `yaml:"host"`
	Port             int    `yaml:"port"`
	RecentOrders     int    `yaml:"recent_orders"`
	RecentTTLMinutes int    `yaml:"recent_ttl_minutes"`
}

// ProjectConfig models .forge/config.yaml.
type ProjectConfig struct {
	Version int          `yaml:"version"`
	Guild   GuildConfig  `yaml:"guild"`
	Intake  IntakeConfig `yaml:"intake"`
	Bridge  BridgeConfig `yaml:"bridge"`
}

// Config holds the runtime configuration for forge.
type Config struct {
	// ProjectDir is the directory where the user ran `forge` from
	ProjectDir string

	// ForgeProjectDir is ProjectDir/.forge
	ForgeProjectDir string

	Project ProjectConfig
}

// InitForgeDir creates the .forge directory structure in the given project
// directory and writes a default config.yaml when none exists.
//
// Structure created:
// .forge/
// ├── config.yaml
// └── logs/         <- forge.log (structured) and orders.log (journal)
func InitForgeDir(projectDir string) error {
	forgeDir := filepath.Join(projectDir, ForgeDir)
	if err := os.MkdirAll(filepath.Join(forgeDir, "logs"), 0o755); err != nil {
		return err
	}
	return ensureProjectConfig(filepath.Join(forgeDir, "config.yaml"))
}

// NewConfig creates a new Config instance populated with project settings.
// Values are layered: defaults, .forge/config.yaml, the project's .env file,
// then FORGE_* environment variables.
func NewConfig(projectDir string) (*Config, error) {
	cfg := &Config{
		ProjectDir:      projectDir,
		ForgeProjectDir: filepath.Join(projectDir, ForgeDir),
		Project:         defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	if err := loadDotEnv(filepath.Join(projectDir, ".env")); err != nil {
		return nil, err
	}
	if err := cfg.Project.applyEnvOverrides(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.Project.normalize()
	if err := cfg.Project.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.ForgeProjectDir, "logs")
}

// OrdersJournalPath returns the path of the confirmed orders journal.
func (c *Config) OrdersJournalPath() string {
	return filepath.Join(c.LogsDir(), "orders.log")
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.ForgeProjectDir, "config.yaml")
}

// Wait returns the per-prompt wait ceiling.
func (c *Config) Wait() time.Duration {
	return time.Duration(c.Project.Intake.WaitSeconds) * time.Second
}

// RecentTTL returns how long confirmed orders stay in the bridge cache.
func (c *Config) RecentTTL() time.Duration {
	return time.Duration(c.Project.Bridge.RecentTTLMinutes) * time.Minute
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	parsed := defaultProjectConfig()
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("config: load %s: %w", path, err)
	}
	return nil
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644)
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version: 1,
		Guild: GuildConfig{
			CrafterRole:   defaultCrafterRole,
			ReferenceTier: defaultReferenceTier,
		},
		Intake: IntakeConfig{
			WaitSeconds: defaultWaitSeconds,
			MaxParts:    defaultMaxParts,
		},
		Bridge: BridgeConfig{
			Host:             defaultBridgeHost,
			Port:             defaultBridgePort,
			RecentOrders:     defaultRecentOrders,
			RecentTTLMinutes: defaultRecentTTL,
		},
	}
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if pc.Intake.WaitSeconds == 0 {
		pc.Intake.WaitSeconds = defaultWaitSeconds
	}
	if pc.Intake.MaxParts == 0 {
		pc.Intake.MaxParts = defaultMaxParts
	}
	if pc.Bridge.Port == 0 {
		pc.Bridge.Port = defaultBridgePort
	}
	if pc.Bridge.RecentOrders == 0 {
		pc.Bridge.RecentOrders = defaultRecentOrders
	}
	if pc.Bridge.RecentTTLMinutes == 0 {
		pc.Bridge.RecentTTLMinutes = defaultRecentTTL
	}
}

func (pc *ProjectConfig) applyEnvOverrides() error {
	if value := strings.TrimSpace(os.Getenv("FORGE_WAIT_SECONDS")); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("FORGE_WAIT_SECONDS: %w", err)
		}
		pc.Intake.WaitSeconds = parsed
	}
	if role := strings.TrimSpace(os.Getenv("FORGE_CRAFTER_ROLE")); role != "" {
		pc.Guild.CrafterRole = role
	}
	if host := strings.TrimSpace(os.Getenv("FORGE_BRIDGE_HOST")); host != "" {
		pc.Bridge.Host = host
	}
	if value := strings.TrimSpace(os.Getenv("FORGE_BRIDGE_PORT")); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("FORGE_BRIDGE_PORT: %w", err)
		}
		pc.Bridge.Port = parsed
	}
	return nil
}

func (pc *ProjectConfig) normalize() {
	pc.Guild.CrafterRole = strings.TrimSpace(pc.Guild.CrafterRole)
	pc.Guild.ReferenceTier = strings.TrimSpace(pc.Guild.ReferenceTier)
	if pc.Guild.ReferenceTier == "" {
		pc.Guild.ReferenceTier = defaultReferenceTier
	}
	pc.Bridge.Host = strings.TrimSpace(pc.Bridge.Host)
	if pc.Bridge.Host == "" {
		pc.Bridge.Host = defaultBridgeHost
	}
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if pc.Guild.PricePerPiece < 0 {
		return fmt.Errorf("guild.price_per_piece must be >= 0")
	}
	if pc.Intake.WaitSeconds < 1 {
		return fmt.Errorf("intake.wait_seconds must be >= 1")
	}
	if pc.Intake.MaxParts < 1 {
		return fmt.Errorf("intake.max_parts must be >= 1")
	}
	if pc.Bridge.Port < 1 || pc.Bridge.Port > 65535 {
		return fmt.Errorf("bridge.port must be between 1 and 65535")
	}
	if pc.Bridge.RecentOrders < 1 {
		return fmt.Errorf("bridge.recent_orders must be >= 1")
	}
	if pc.Bridge.RecentTTLMinutes < 1 {
		return fmt.Errorf("bridge.recent_ttl_minutes must be >= 1")
	}
	return nil
}
