package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads, merges, verifies and validates configuration from a file or a
// directory containing config.yaml. Included files are merged in order.
func Load(configPath string) (*Config, error) {
	cfg, err := LoadUnchecked(configPath)
	if err != nil {
		return nil, err
	}

	validator := &ConfigValidator{config: cfg}
	if err := validator.ValidateCrossReferences(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadUnchecked is Load without semantic validation, for tools that report
// every problem at once instead of stopping at the first.
func LoadUnchecked(configPath string) (*Config, error) {
	absPath, err := resolveConfigFile(configPath)
	if err != nil {
		return nil, err
	}

	cfg, err := loadConfigFile(absPath)
	if err != nil {
		return nil, err
	}
	cfg.ConfigDir = filepath.Dir(absPath)
	cfg.SourceFiles = make(map[string]*yaml.Node)
	recordSource(cfg, absPath)

	visited := map[string]bool{absPath: true}
	if len(cfg.Include) > 0 {
		if err := loadIncludes(cfg, cfg.Include, cfg.ConfigDir, visited); err != nil {
			return nil, err
		}
	}

	cfg = applyConfigDefaults(cfg)

	allPaths := make([]string, 0, len(visited))
	for p := range visited {
		allPaths = append(allPaths, p)
	}
	sort.Strings(allPaths)
	if err := verifyAllConfigHashes(allPaths); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DiscoverConfigDir finds the config by checking standard locations.
// Priority order: $RINGS_CONFIG_DIR, ~/.config/rings, /etc/rings, ./config.yaml.
func DiscoverConfigDir() (string, error) {
	if dir := os.Getenv("RINGS_CONFIG_DIR"); dir != "" {
		if _, err := os.Stat(dir); err == nil {
			return dir, nil
		}
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		userConfigDir := filepath.Join(homeDir, ".config", "rings")
		if _, err := os.Stat(userConfigDir); err == nil {
			return userConfigDir, nil
		}
	}

	systemConfigDir := "/etc/rings"
	if _, err := os.Stat(systemConfigDir); err == nil {
		return systemConfigDir, nil
	}

	if _, err := os.Stat("./config.yaml"); err == nil {
		return "./config.yaml", nil
	}

	return "", errors.New("no config found (checked: $RINGS_CONFIG_DIR, ~/.config/rings, /etc/rings, ./config.yaml)")
}

// DiscoverAllConfigFiles returns absolute paths to all files in the include tree.
func DiscoverAllConfigFiles(configPath string) ([]string, error) {
	absPath, err := resolveConfigFile(configPath)
	if err != nil {
		return nil, err
	}

	cfg, err := loadConfigFile(absPath)
	if err != nil {
		return nil, err
	}

	visited := map[string]bool{absPath: true}
	if len(cfg.Include) > 0 {
		if err := collectIncludes(cfg.Include, filepath.Dir(absPath), visited); err != nil {
			return nil, err
		}
	}

	files := make([]string, 0, len(visited))
	for f := range visited {
		files = append(files, f)
	}
	sort.Strings(files)
	return files, nil
}

func resolveConfigFile(configPath string) (string, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return "", fmt.Errorf("config file not found: %s\n"+
			"Hint: Check the path or run with --config flag", absPath)
	}

	if info.IsDir() {
		absPath = filepath.Join(absPath, "config.yaml")
		if _, err := os.Stat(absPath); err != nil {
			return "", fmt.Errorf("directory provided but config.yaml not found: %s", absPath)
		}
	}
	return absPath, nil
}

func resolveInclude(i int, includePath, baseDir string) (string, error) {
	includePath = interpolateEnv(includePath)
	resolved := includePath
	if !filepath.IsAbs(includePath) {
		resolved = filepath.Join(baseDir, includePath)
	}

	absPath, err := filepath.Abs(resolved)
	if err != nil {
		return "", fmt.Errorf("include[%d]: failed to resolve path %q: %w", i, includePath, err)
	}

	if _, err := os.Stat(absPath); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("include[%d]: file not found: %s\n"+
				"Referenced from: %s\n"+
				"Hint: Check the path is correct and the file exists", i, absPath, baseDir)
		}
		return "", fmt.Errorf("include[%d]: failed to access file %s: %w", i, absPath, err)
	}
	return absPath, nil
}

func collectIncludes(includes []string, baseDir string, visited map[string]bool) error {
	for i, includePath := range includes {
		absPath, err := resolveInclude(i, includePath, baseDir)
		if err != nil {
			return err
		}
		if visited[absPath] {
			continue
		}
		visited[absPath] = true

		included, err := loadConfigFile(absPath)
		if err != nil {
			return fmt.Errorf("include[%d] (%s): %w", i, includePath, err)
		}
		if len(included.Include) > 0 {
			if err := collectIncludes(included.Include, filepath.Dir(absPath), visited); err != nil {
				return err
			}
		}
	}
	return nil
}

// loadIncludes recursively loads and merges files from the include array.
// visited tracks loaded files to prevent cycles.
func loadIncludes(cfg *Config, includes []string, baseDir string, visited map[string]bool) error {
	for i, includePath := range includes {
		absPath, err := resolveInclude(i, includePath, baseDir)
		if err != nil {
			return err
		}

		if visited[absPath] {
			return fmt.Errorf("include[%d]: circular dependency detected: %s", i, absPath)
		}
		visited[absPath] = true
		recordSource(cfg, absPath)

		includedCfg, err := loadConfigFile(absPath)
		if err != nil {
			return fmt.Errorf("include[%d] (%s): %w", i, includePath, err)
		}

		deepMergeConfig(cfg, includedCfg)

		if len(includedCfg.Include) > 0 {
			if err := loadIncludes(cfg, includedCfg.Include, filepath.Dir(absPath), visited); err != nil {
				return err
			}
		}
	}

	return nil
}

func recordSource(cfg *Config, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err == nil {
		cfg.SourceFiles[path] = &node
	}
}

// loadConfigFile loads and parses a single config file without defaults.
func loadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	interpolated := interpolateEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(interpolated), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return &cfg, nil
}

// deepMergeConfig merges src into dst, with src taking precedence for non-zero values.
func deepMergeConfig(dst, src *Config) {
	if src.Service.Name != "" {
		dst.Service.Name = src.Service.Name
	}
	if src.Service.TickInterval != 0 {
		dst.Service.TickInterval = src.Service.TickInterval
	}
	if src.Service.LogLevel != "" {
		dst.Service.LogLevel = src.Service.LogLevel
	}
	if src.Service.LogFormat != "" {
		dst.Service.LogFormat = src.Service.LogFormat
	}
	if src.Service.PIDFile != "" {
		dst.Service.PIDFile = src.Service.PIDFile
	}

	if src.API.Enabled {
		dst.API.Enabled = true
	}
	if src.API.Listen != "" {
		dst.API.Listen = src.API.Listen
	}
	if src.API.Auth.APIKey != "" {
		dst.API.Auth.APIKey = src.API.Auth.APIKey
	}
	if len(src.API.Auth.Tokens) > 0 {
		dst.API.Auth.Tokens = append(dst.API.Auth.Tokens, src.API.Auth.Tokens...)
	}

	if src.Canvas.Size != 0 {
		dst.Canvas.Size = src.Canvas.Size
	}

	if src.Day.Window.Start != "" {
		dst.Day.Window.Start = src.Day.Window.Start
	}
	if src.Day.Window.End != "" {
		dst.Day.Window.End = src.Day.Window.End
	}
	if src.Day.MinutesPerSegment != 0 {
		dst.Day.MinutesPerSegment = src.Day.MinutesPerSegment
	}
	// A block table is only meaningful as a whole, so it replaces rather than appends.
	if len(src.Day.Blocks) > 0 {
		dst.Day.Blocks = src.Day.Blocks
	}
	if src.Day.Overnight.TotalAngleDeg != 0 {
		dst.Day.Overnight = src.Day.Overnight
	}

	mergeRing(&dst.Rings.Day, src.Rings.Day)
	mergeRing(&dst.Rings.Week, src.Rings.Week)
	mergeRing(&dst.Rings.Month, src.Rings.Month)
	mergeRing(&dst.Rings.Year, src.Rings.Year)
}

func mergeRing(dst *RingConfig, src RingConfig) {
	if src.Segments != 0 {
		dst.Segments = src.Segments
	}
	if src.Radius != 0 {
		dst.Radius = src.Radius
	}
	if src.StrokeWidth != 0 {
		dst.StrokeWidth = src.StrokeWidth
	}
	if src.StartAngleDeg != 0 {
		dst.StartAngleDeg = src.StartAngleDeg
	}
	if src.TotalAngleDeg != 0 {
		dst.TotalAngleDeg = src.TotalAngleDeg
	}
	if src.GapDeg != 0 {
		dst.GapDeg = src.GapDeg
	}
	if src.Decimals != 0 {
		dst.Decimals = src.Decimals
	}
	if len(src.ColorBands) > 0 {
		dst.ColorBands = src.ColorBands
	}
}

func verifyAllConfigHashes(paths []string) error {
	dirToFiles := make(map[string][]string)
	for _, path := range paths {
		dir := filepath.Dir(path)
		dirToFiles[dir] = append(dirToFiles[dir], path)
	}

	for dir, files := range dirToFiles {
		checksums, err := LoadChecksums(dir)
		if err != nil {
			// No manifest in this directory: nothing to verify.
			continue
		}

		for _, path := range files {
			basename := filepath.Base(path)
			expectedHash, ok := checksums.Hashes[basename]
			if !ok {
				return fmt.Errorf("config file %s has no hash in checksums at %s\n"+
					"Run: rings config lock --config %s", basename, dir, dir)
			}

			if err := VerifyFileHash(path, expectedHash); err != nil {
				return fmt.Errorf("config verification failed for %s: %w\n"+
					"If you edited this file intentionally, run: rings config lock --config %s", path, err, dir)
			}
		}
	}

	return nil
}

// applyConfigDefaults merges default values into config where not explicitly set.
func applyConfigDefaults(cfg *Config) *Config {
	defaults := Defaults()

	if cfg.Service.Name == "" {
		cfg.Service.Name = defaults.Service.Name
	}
	if cfg.Service.TickInterval == 0 {
		cfg.Service.TickInterval = defaults.Service.TickInterval
	}
	if cfg.Service.LogLevel == "" {
		cfg.Service.LogLevel = defaults.Service.LogLevel
	}
	if cfg.Service.LogFormat == "" {
		cfg.Service.LogFormat = defaults.Service.LogFormat
	}

	if cfg.API.Listen == "" {
		cfg.API.Listen = defaults.API.Listen
	}

	if cfg.Canvas.Size == 0 {
		cfg.Canvas.Size = defaults.Canvas.Size
	}

	if cfg.Day.Window.Start == "" {
		cfg.Day.Window.Start = defaults.Day.Window.Start
	}
	if cfg.Day.Window.End == "" {
		cfg.Day.Window.End = defaults.Day.Window.End
	}
	if cfg.Day.MinutesPerSegment == 0 {
		cfg.Day.MinutesPerSegment = defaults.Day.MinutesPerSegment
	}
	if len(cfg.Day.Blocks) == 0 {
		cfg.Day.Blocks = defaults.Day.Blocks
	}

	applyRingDefaults(&cfg.Rings.Day, defaults.Rings.Day)
	applyRingDefaults(&cfg.Rings.Week, defaults.Rings.Week)
	applyRingDefaults(&cfg.Rings.Month, defaults.Rings.Month)
	applyRingDefaults(&cfg.Rings.Year, defaults.Rings.Year)

	return cfg
}

// applyRingDefaults copies the whole default ring when none of it was
// configured. A partially configured ring keeps its gap (zero is a valid gap)
// and only gets sizes filled in.
func applyRingDefaults(ring *RingConfig, def RingConfig) {
	if isZeroRing(*ring) {
		*ring = def
		return
	}
	if ring.Segments == 0 {
		ring.Segments = def.Segments
	}
	if ring.Radius == 0 {
		ring.Radius = def.Radius
	}
	if ring.StrokeWidth == 0 {
		ring.StrokeWidth = def.StrokeWidth
	}
	if ring.TotalAngleDeg == 0 {
		ring.TotalAngleDeg = def.TotalAngleDeg
	}
	if ring.Decimals == 0 {
		ring.Decimals = def.Decimals
	}
}

func isZeroRing(r RingConfig) bool {
	return r.Segments == 0 && r.Radius == 0 && r.StrokeWidth == 0 &&
		r.StartAngleDeg == 0 && r.TotalAngleDeg == 0 && r.GapDeg == 0 &&
		r.Decimals == 0 && len(r.ColorBands) == 0
}

// interpolateEnv replaces ${VAR} with environment variable values.
// Undefined variables are left as-is (not expanded).
func interpolateEnv(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		return match
	})
}

// validate performs validation on the merged configuration.
func validate(cfg *Config) error {
	if cfg.Service.TickInterval <= 0 {
		return fmt.Errorf("service.tick_interval must be positive")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(cfg.Service.LogLevel)] {
		return fmt.Errorf("service.log_level must be one of: debug, info, warn, error (got %q)", cfg.Service.LogLevel)
	}
	if cfg.Service.LogFormat != "json" && cfg.Service.LogFormat != "text" {
		return fmt.Errorf("service.log_format must be json or text (got %q)", cfg.Service.LogFormat)
	}

	if cfg.API.Enabled {
		if err := unresolved("api.auth.api_key", cfg.API.Auth.APIKey); err != nil {
			return err
		}
		for i, tok := range cfg.API.Auth.Tokens {
			field := fmt.Sprintf("api.auth.tokens[%d].token", i)
			if tok.Token == "" {
				return fmt.Errorf("%s is required", field)
			}
			if err := unresolved(field, tok.Token); err != nil {
				return err
			}
			if len(tok.Scopes) == 0 {
				return fmt.Errorf("api.auth.tokens[%d].scopes must be non-empty", i)
			}
		}
	}

	if cfg.Canvas.Size <= 0 {
		return fmt.Errorf("canvas.size must be positive")
	}

	if _, err := cfg.Catalogue(); err != nil {
		return fmt.Errorf("day.blocks: %w", err)
	}
	if _, err := cfg.Window(); err != nil {
		return fmt.Errorf("day.window: %w", err)
	}
	day, err := cfg.DayRing()
	if err != nil {
		return fmt.Errorf("rings.day: %w", err)
	}
	if err := day.Validate(); err != nil {
		return fmt.Errorf("rings.day: %w", err)
	}

	for _, r := range []struct {
		name string
		ring RingConfig
	}{
		{"week", cfg.Rings.Week},
		{"month", cfg.Rings.Month},
		{"year", cfg.Rings.Year},
	} {
		if err := r.ring.Segment().Validate(); err != nil {
			return fmt.Errorf("rings.%s: %w", r.name, err)
		}
		if err := CheckCalendarSegments(r.name, r.ring.Segments); err != nil {
			return err
		}
	}

	for name, ring := range cfg.RingsByName() {
		if ring.Decimals < 0 || ring.Decimals > 4 {
			return fmt.Errorf("rings.%s.decimals must be between 0 and 4", name)
		}
	}

	return nil
}

// RingsByName returns the four rings keyed by name.
func (c *Config) RingsByName() map[string]RingConfig {
	return map[string]RingConfig{
		"day":   c.Rings.Day,
		"week":  c.Rings.Week,
		"month": c.Rings.Month,
		"year":  c.Rings.Year,
	}
}

func unresolved(field, value string) error {
	if !envVarPattern.MatchString(value) {
		return nil
	}
	matches := envVarPattern.FindStringSubmatch(value)
	if len(matches) > 1 {
		return fmt.Errorf("%s: environment variable ${%s} is not set", field, matches[1])
	}
	return fmt.Errorf("%s: unresolved environment variable", field)
}
