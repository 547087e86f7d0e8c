package config

import (
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete rings configuration.
type Config struct {
	Include []string      `yaml:"include,omitempty"`
	Service ServiceConfig `yaml:"service"`
	API     APIConfig     `yaml:"api,omitempty"`
	Canvas  CanvasConfig  `yaml:"canvas"`
	Day     DayConfig     `yaml:"day"`
	Rings   RingsConfig   `yaml:"rings"`

	// SourceFiles holds the parsed YAML of every loaded file, keyed by absolute path.
	SourceFiles map[string]*yaml.Node `yaml:"-" json:"-"`
	// ConfigDir is the directory of the root config file.
	ConfigDir string `yaml:"-" json:"-"`
}

// ServiceConfig defines core service settings.
type ServiceConfig struct {
	Name         string        `yaml:"name"`
	TickInterval time.Duration `yaml:"tick_interval"`
	LogLevel     string        `yaml:"log_level"`
	LogFormat    string        `yaml:"log_format"`
	// PIDFile guards against a second driver. Empty means
	// $XDG_RUNTIME_DIR/<name>.pid.
	PIDFile string `yaml:"pid_file,omitempty"`
}

// APIConfig defines HTTP API server settings.
type APIConfig struct {
	Enabled bool          `yaml:"enabled"`
	Listen  string        `yaml:"listen"`
	Auth    APIAuthConfig `yaml:"auth"`
}

// APIAuthConfig defines API authentication settings.
// With neither APIKey nor Tokens set, read endpoints are open.
type APIAuthConfig struct {
	// APIKey is a single bearer token with full access.
	APIKey string     `yaml:"api_key"`
	Tokens []APIToken `yaml:"tokens,omitempty"`
}

// APIToken defines a bearer token and its scopes.
type APIToken struct {
	Token  string   `yaml:"token"`
	Scopes []string `yaml:"scopes"`
}

// CanvasConfig sizes the square SVG viewport. Rings are centred in it.
type CanvasConfig struct {
	Size float64 `yaml:"size"`
}

// DayConfig describes the day cycle.
type DayConfig struct {
	Window            WindowConfig  `yaml:"window"`
	MinutesPerSegment int           `yaml:"minutes_per_segment"`
	Blocks            []BlockConfig `yaml:"blocks"`
	Overnight         ArcConfig     `yaml:"overnight"`
}

// WindowConfig is the waking-hours window, e.g. "07:00" to "23:00".
type WindowConfig struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// BlockConfig is one named block of the day. EndHour may be omitted, in
// which case the block ends where the next one starts.
type BlockConfig struct {
	Name      string `yaml:"name"`
	StartHour int    `yaml:"start_hour"`
	EndHour   *int   `yaml:"end_hour,omitempty"`
	Color     string `yaml:"color,omitempty"`
}

// ArcConfig places the overnight segment of the day ring.
type ArcConfig struct {
	StartAngleDeg float64 `yaml:"start_angle_deg"`
	TotalAngleDeg float64 `yaml:"total_angle_deg"`
}

// RingsConfig holds the four rings.
type RingsConfig struct {
	Day   RingConfig `yaml:"day"`
	Week  RingConfig `yaml:"week"`
	Month RingConfig `yaml:"month"`
	Year  RingConfig `yaml:"year"`
}

// RingConfig is the static geometry of a ring.
type RingConfig struct {
	Segments      int               `yaml:"segments"`
	Radius        float64           `yaml:"radius"`
	StrokeWidth   float64           `yaml:"stroke_width"`
	StartAngleDeg float64           `yaml:"start_angle_deg"`
	TotalAngleDeg float64           `yaml:"total_angle_deg"`
	GapDeg        float64           `yaml:"gap_deg"`
	Decimals      int               `yaml:"decimals"`
	ColorBands    []ColorBandConfig `yaml:"color_bands,omitempty"`
}

// ColorBandConfig tags the segment range From..To (inclusive).
type ColorBandConfig struct {
	From int    `yaml:"from"`
	To   int    `yaml:"to"`
	Tag  string `yaml:"tag"`
}

// Defaults returns a Config reproducing the classic widget: five blocks,
// a 07:00–23:00 window in 10-minute segments and four concentric rings.
func Defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:         "rings",
			TickInterval: time.Second,
			LogLevel:     "info",
			LogFormat:    "json",
		},
		API: APIConfig{
			Enabled: false,
			Listen:  "127.0.0.1:8080",
		},
		Canvas: CanvasConfig{Size: 400},
		Day: DayConfig{
			Window:            WindowConfig{Start: "07:00", End: "23:00"},
			MinutesPerSegment: 10,
			Blocks: []BlockConfig{
				{Name: "ichi", StartHour: 7, EndHour: intPtr(11), Color: "#ff6347"},
				{Name: "ni", StartHour: 11, EndHour: intPtr(15), Color: "#ffaf47"},
				{Name: "san", StartHour: 15, EndHour: intPtr(19), Color: "#ffd700"},
				{Name: "shi", StartHour: 19, EndHour: intPtr(23), Color: "#63aeff"},
				{Name: "go", StartHour: 23, EndHour: intPtr(7), Color: "#9370db"},
			},
		},
		Rings: RingsConfig{
			Day:   RingConfig{Radius: 180, StrokeWidth: 18, GapDeg: 0.5, Decimals: 2},
			Week:  RingConfig{Segments: 7, Radius: 150, StrokeWidth: 18, TotalAngleDeg: 360, GapDeg: 2, Decimals: 2},
			Month: RingConfig{Segments: 5, Radius: 120, StrokeWidth: 18, TotalAngleDeg: 360, GapDeg: 2, Decimals: 2},
			Year:  RingConfig{Segments: 12, Radius: 90, StrokeWidth: 18, TotalAngleDeg: 360, GapDeg: 2, Decimals: 1},
		},
	}
}

func intPtr(v int) *int { return &v }
