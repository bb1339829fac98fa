package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all smtdump configuration.
type Config struct {
	// Tool tag: prefixes report headers and names the dump file.
	ToolTag string `yaml:"tool_tag"`

	// Diagnostics root holding <tool_tag>_dump.txt. Empty disables the file.
	DiagnosticsDir string `yaml:"diagnostics_dir"`

	// Longest primary-log entry in characters.
	ChunkSize int `yaml:"chunk_size"`

	Limits  LimitsConfig  `yaml:"limits"`
	Roots   RootsConfig   `yaml:"roots"`
	Keys    KeysConfig    `yaml:"keys"`
	Gate    GateConfig    `yaml:"gate"`
	Web     WebConfig     `yaml:"web"`
	Logging LoggingConfig `yaml:"logging"`
}

// LimitsConfig holds the per-report ceilings.
type LimitsConfig struct {
	SceneNodes          int `yaml:"scene_nodes"`          // blackboard scene scan
	CandidateComponents int `yaml:"candidate_components"` // components checked for unlock flags
	GenerationItems     int `yaml:"generation_items"`     // employee generation dump
	LimitArrayItems     int `yaml:"limit_array_items"`    // arrays in the NPC manager dump
	IndexSample         int `yaml:"index_sample"`         // index-like int arrays
	SkillItems          int `yaml:"skill_items"`          // skill/upgrade member dump
	UINodes             int `yaml:"ui_nodes"`
	UIDepth             int `yaml:"ui_depth"`
	CollectionItems     int `yaml:"collection_items"` // elements per collection in object dumps
}

// RootsConfig names the host objects each report starts from.
type RootsConfig struct {
	Blackboard      string `yaml:"blackboard"`
	Achievements    string `yaml:"achievements"`
	Generation      string `yaml:"generation"`
	NPCManager      string `yaml:"npc_manager"`
	UpgradesManager string `yaml:"upgrades_manager"`
	Interactable    string `yaml:"interactable"`
	ButtonsBar      string `yaml:"buttons_bar"`
}

// KeysConfig binds console keys to reports.
type KeysConfig struct {
	Blackboard   string `yaml:"blackboard"`
	Achievements string `yaml:"achievements"`
	NPC          string `yaml:"npc"`
	Skills       string `yaml:"skills"`
	UI           string `yaml:"ui"`
	All          string `yaml:"all"`
}

// GateConfig configures the employee-extras check.
type GateConfig struct {
	CacheTTL string `yaml:"cache_ttl"`
	// Employees above this count mean the extras are unlocked when no
	// upgrade names could be matched.
	BaseEmployees int `yaml:"base_employees"`
}

type WebConfig struct {
	Addr string `yaml:"addr"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
	File   string `yaml:"file"`   // empty logs to stderr
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ToolTag:        "SMTQoL",
		DiagnosticsDir: ".",
		ChunkSize:      800,

		Limits: LimitsConfig{
			SceneNodes:          300,
			CandidateComponents: 100,
			GenerationItems:     50,
			LimitArrayItems:     50,
			IndexSample:         20,
			SkillItems:          80,
			UINodes:             300,
			UIDepth:             4,
			CollectionItems:     25,
		},

		Roots: RootsConfig{
			Blackboard:      "ManagerBlackboard",
			Achievements:    "AchievementsManager",
			Generation:      "EmployeesDataGeneration",
			NPCManager:      "NPC_Manager",
			UpgradesManager: "UpgradesManager",
			Interactable:    "InteractableData",
			ButtonsBar:      "Buttons_Bar",
		},

		Keys: KeysConfig{
			Blackboard:   "1",
			Achievements: "2",
			NPC:          "3",
			Skills:       "4",
			UI:           "5",
			All:          "a",
		},

		Gate: GateConfig{
			CacheTTL:      "2s",
			BaseEmployees: 10,
		},

		Web: WebConfig{
			Addr: "localhost:8080",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Override with environment variables
	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if dir := os.Getenv("SMTDUMP_DIAG_DIR"); dir != "" {
		c.DiagnosticsDir = dir
	}
	if tag := os.Getenv("SMTDUMP_TOOL_TAG"); tag != "" {
		c.ToolTag = tag
	}
	if level := os.Getenv("SMTDUMP_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// GetGateTTL returns the gate cache lifetime as a duration.
func (c *Config) GetGateTTL() time.Duration {
	d, err := time.ParseDuration(c.Gate.CacheTTL)
	if err != nil {
		return 2 * time.Second
	}
	return d
}

// ValidLogLevels lists the accepted logging levels.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.ToolTag == "" {
		return fmt.Errorf("tool_tag must not be empty")
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", c.ChunkSize)
	}

	limits := map[string]int{
		"scene_nodes":          c.Limits.SceneNodes,
		"candidate_components": c.Limits.CandidateComponents,
		"generation_items":     c.Limits.GenerationItems,
		"limit_array_items":    c.Limits.LimitArrayItems,
		"index_sample":         c.Limits.IndexSample,
		"skill_items":          c.Limits.SkillItems,
		"ui_nodes":             c.Limits.UINodes,
		"ui_depth":             c.Limits.UIDepth,
		"collection_items":     c.Limits.CollectionItems,
	}
	for _, name := range []string{
		"scene_nodes", "candidate_components", "generation_items", "limit_array_items",
		"index_sample", "skill_items", "ui_nodes", "ui_depth", "collection_items",
	} {
		if limits[name] < 0 {
			return fmt.Errorf("limits.%s must not be negative, got %d", name, limits[name])
		}
	}

	validLevel := false
	for _, l := range ValidLogLevels {
		if c.Logging.Level == l {
			validLevel = true
			break
		}
	}
	if !validLevel {
		return fmt.Errorf("invalid logging level: %s (valid: %v)", c.Logging.Level, ValidLogLevels)
	}

	if _, err := time.ParseDuration(c.Gate.CacheTTL); err != nil {
		return fmt.Errorf("invalid gate.cache_ttl %q: %w", c.Gate.CacheTTL, err)
	}

	return nil
}

// DefaultPath returns ~/.config/smtdump/config.yaml, or config.yaml in the
// working directory when the home directory is unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".config", "smtdump", "config.yaml")
}
