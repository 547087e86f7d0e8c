package doctor

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mattjoyce/rings/internal/config"
)

func validConfig() *config.Config {
	return config.Defaults()
}

func intPtr(v int) *int { return &v }

func TestValidate_ValidConfig(t *testing.T) {
	t.Parallel()
	r := New(validConfig()).Validate()
	if !r.Valid {
		t.Fatalf("expected valid, got errors: %v", r.Errors)
	}
	if len(r.Warnings) != 0 {
		t.Fatalf("expected no warnings, got: %v", r.Warnings)
	}
}

func TestValidate_Service(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Service.TickInterval = 0
	cfg.Service.LogLevel = "loud"
	cfg.Service.LogFormat = "xml"

	r := New(cfg).Validate()
	if r.Valid {
		t.Fatal("expected invalid")
	}
	assertHasError(t, r, "service", "tick_interval")
	assertHasError(t, r, "service", "loud")
	assertHasError(t, r, "service", "xml")
}

func TestValidate_SlowTickWarns(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Service.TickInterval = 5 * time.Minute

	r := New(cfg).Validate()
	if !r.Valid {
		t.Fatalf("expected valid, got errors: %v", r.Errors)
	}
	assertHasWarning(t, r, "service", "countdown")
}

func TestValidate_BlockGapsAndOverlaps(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Day.Blocks = []config.BlockConfig{
		{Name: "early", StartHour: 7, EndHour: intPtr(10), Color: "#fff"},
		{Name: "late", StartHour: 9, EndHour: intPtr(23), Color: "#000"},
		{Name: "night", StartHour: 23, EndHour: intPtr(6), Color: "#123456"},
	}

	r := New(cfg).Validate()
	if r.Valid {
		t.Fatal("expected invalid")
	}
	assertHasError(t, r, "blocks", "no block covers hour(s) 06")
	assertHasError(t, r, "blocks", "several blocks cover hour(s) 09")
}

func TestValidate_BlockNamesAndColours(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Day.Blocks[1].Name = "ichi"
	cfg.Day.Blocks[2].Color = "gold"
	cfg.Day.Blocks[3].Color = ""

	r := New(cfg).Validate()
	if r.Valid {
		t.Fatal("expected invalid")
	}
	assertHasError(t, r, "blocks", `duplicate block name "ichi"`)
	assertHasError(t, r, "blocks", `"gold"`)
	assertHasWarning(t, r, "blocks", "has no colour")
}

func TestValidate_NoWrappingBlock(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Day.Blocks = []config.BlockConfig{
		{Name: "all", StartHour: 0, EndHour: intPtr(23), Color: "#fff"},
	}

	r := New(cfg).Validate()
	assertHasError(t, r, "blocks", "exactly one block must wrap")
	assertHasError(t, r, "blocks", "23")
}

func TestValidate_Rings(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Rings.Week.GapDeg = 60
	cfg.Rings.Year.Segments = 0
	cfg.Rings.Month.Decimals = 9

	r := New(cfg).Validate()
	if r.Valid {
		t.Fatal("expected invalid")
	}
	assertHasError(t, r, "rings", "consume the whole")
	assertHasError(t, r, "rings", "segment count must be positive")
	assertHasError(t, r, "rings", "decimals")
}

func TestValidate_ShortCalendarRings(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Rings.Week.Segments = 4
	cfg.Rings.Year.Segments = 4

	r := New(cfg).Validate()
	if r.Valid {
		t.Fatal("expected invalid")
	}
	assertHasError(t, r, "rings", "rings.week.segments is 4")
	assertHasError(t, r, "rings", "rings.year.segments is 4")
}

func TestValidate_WindowSegmentMismatch(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Day.MinutesPerSegment = 7

	r := New(cfg).Validate()
	assertHasError(t, r, "day", "minutes_per_segment")
}

func TestValidate_BadWindow(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Day.Window.End = "25:00"

	r := New(cfg).Validate()
	assertHasError(t, r, "day", "25:00")
}

func TestValidate_BandTags(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Rings.Week.ColorBands = []config.ColorBandConfig{
		{From: 0, To: 4, Tag: "weekday"},
		{From: 5, To: 5, Tag: "#zzz"},
	}

	r := New(cfg).Validate()
	assertHasError(t, r, "rings", `tag "weekday"`)
	assertHasError(t, r, "rings", `"#zzz"`)
	assertHasWarning(t, r, "rings", "1 of 7 segments have no colour band")
}

func TestValidate_Layout(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Rings.Week.Radius = 185
	cfg.Rings.Day.Radius = 199

	r := New(cfg).Validate()
	if !r.Valid {
		t.Fatalf("layout problems are warnings, got errors: %v", r.Errors)
	}
	assertHasWarning(t, r, "layout", "ring week overlaps ring day")
	assertHasWarning(t, r, "layout", "ring day extends past")
}

func TestValidate_API(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.API.Enabled = true
	cfg.API.Listen = ""

	r := New(cfg).Validate()
	assertHasError(t, r, "api", "api.listen is required")
	assertHasWarning(t, r, "api", "no authentication configured")
}

func TestValidate_TokenScopes(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.API.Enabled = true
	cfg.API.Auth.Tokens = []config.APIToken{
		{Token: "a", Scopes: []string{"frame:ro", "jobs:rw"}},
		{Token: "${RINGS_TOKEN}"},
	}

	r := New(cfg).Validate()
	if r.Valid {
		t.Fatal("expected invalid")
	}
	assertHasError(t, r, "token_scopes", `unknown scope "jobs:rw"`)
	assertHasError(t, r, "token_scopes", "token has no scopes")
	assertHasWarning(t, r, "env", "${RINGS_TOKEN}")
}

func TestFormatHuman_Valid(t *testing.T) {
	t.Parallel()
	out := FormatHuman(&Result{Valid: true})
	if !strings.Contains(out, "valid") {
		t.Fatalf("expected 'valid' in output, got: %s", out)
	}
}

func TestFormatHuman_Errors(t *testing.T) {
	t.Parallel()
	r := &Result{
		Valid:    false,
		Errors:   []Issue{{Category: "rings", Field: "rings.week", Message: "broken"}},
		Warnings: []Issue{{Category: "layout", Message: "tight"}},
	}
	out := FormatHuman(r)
	if !strings.Contains(out, "ERROR [rings] rings.week: broken") {
		t.Fatalf("expected error in output, got: %s", out)
	}
	if !strings.Contains(out, "WARN  [layout] tight") {
		t.Fatalf("expected warning in output, got: %s", out)
	}
}

func TestFormatJSON(t *testing.T) {
	t.Parallel()
	out, err := FormatJSON(New(validConfig()).Validate())
	if err != nil {
		t.Fatalf("FormatJSON() error = %v", err)
	}
	var decoded Result
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if !decoded.Valid {
		t.Fatal("expected valid result")
	}
}

// --- helpers ---

func assertHasError(t *testing.T, r *Result, category, substring string) {
	t.Helper()
	for _, e := range r.Errors {
		if e.Category == category && strings.Contains(e.Message, substring) {
			return
		}
	}
	t.Fatalf("expected error with category=%q containing %q, got: %v", category, substring, r.Errors)
}

func assertHasWarning(t *testing.T, r *Result, category, substring string) {
	t.Helper()
	for _, w := range r.Warnings {
		if w.Category == category && strings.Contains(w.Message, substring) {
			return
		}
	}
	t.Fatalf("expected warning with category=%q containing %q, got: %v", category, substring, r.Warnings)
}
