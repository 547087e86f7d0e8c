// Package doctor reports every problem in a rings configuration at once.
package doctor

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/mattjoyce/rings/internal/auth"
	"github.com/mattjoyce/rings/internal/blocks"
	"github.com/mattjoyce/rings/internal/config"
)

var (
	envVarRe = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)
	colorRe  = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
)

// Result holds the outcome of a validation run.
type Result struct {
	Valid    bool    `json:"valid"`
	Errors   []Issue `json:"errors,omitempty"`
	Warnings []Issue `json:"warnings,omitempty"`
}

// Issue describes a single validation error or warning.
type Issue struct {
	Category string `json:"category"`
	Message  string `json:"message"`
	Field    string `json:"field,omitempty"`
}

// Doctor validates a loaded (but not yet validated) configuration.
type Doctor struct {
	cfg *config.Config
}

// New creates a Doctor for cfg.
func New(cfg *config.Config) *Doctor {
	return &Doctor{cfg: cfg}
}

// Validate runs all checks and returns a result.
func (d *Doctor) Validate() *Result {
	r := &Result{Valid: true}

	d.validateServiceConfig(r)
	d.validateWindow(r)
	d.validateBlocks(r)
	d.validateRings(r)
	d.validateBandTags(r)
	d.validateAPIConfig(r)
	d.validateTokenScopes(r)
	d.warnLayout(r)
	d.warnBandCoverage(r)
	d.warnMissingEnvVars(r)

	r.Valid = len(r.Errors) == 0
	return r
}

func (d *Doctor) addError(r *Result, category, field, msg string) {
	r.Errors = append(r.Errors, Issue{Category: category, Field: field, Message: msg})
}

func (d *Doctor) addWarning(r *Result, category, field, msg string) {
	r.Warnings = append(r.Warnings, Issue{Category: category, Field: field, Message: msg})
}

// validateServiceConfig checks service fields.
func (d *Doctor) validateServiceConfig(r *Result) {
	svc := d.cfg.Service
	if svc.TickInterval <= 0 {
		d.addError(r, "service", "service.tick_interval", "tick_interval must be positive")
	} else if svc.TickInterval > time.Minute {
		d.addWarning(r, "service", "service.tick_interval",
			fmt.Sprintf("tick_interval %s is longer than the countdown resolution of one minute", svc.TickInterval))
	}
	switch strings.ToLower(svc.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		d.addError(r, "service", "service.log_level",
			fmt.Sprintf("log_level %q is not one of debug, info, warn, error", svc.LogLevel))
	}
	if svc.LogFormat != "json" && svc.LogFormat != "text" {
		d.addError(r, "service", "service.log_format",
			fmt.Sprintf("log_format %q is not json or text", svc.LogFormat))
	}
	if d.cfg.Canvas.Size <= 0 {
		d.addError(r, "service", "canvas.size", "canvas size must be positive")
	}
}

// validateWindow checks the waking-hours window and its segment size.
func (d *Doctor) validateWindow(r *Result) {
	if _, err := d.cfg.Window(); err != nil {
		d.addError(r, "day", "day.window", err.Error())
		return
	}
	if _, err := d.cfg.DaySegmentCount(); err != nil {
		d.addError(r, "day", "day.minutes_per_segment", err.Error())
	}
}

// validateBlocks reports every hour that no block or several blocks cover,
// instead of the first catalogue error only.
func (d *Doctor) validateBlocks(r *Result) {
	dayBlocks := d.cfg.Day.DayBlocks()
	if len(dayBlocks) == 0 {
		d.addError(r, "blocks", "day.blocks", "no blocks defined")
		return
	}

	seen := map[string]bool{}
	wrapping := 0
	for i, b := range dayBlocks {
		field := fmt.Sprintf("day.blocks[%d]", i)
		switch {
		case b.Name == "":
			d.addError(r, "blocks", field, "block name is required")
		case seen[b.Name]:
			d.addError(r, "blocks", field, fmt.Sprintf("duplicate block name %q", b.Name))
		}
		seen[b.Name] = true

		if b.StartHour < 0 || b.StartHour >= blocks.HoursPerDay || b.EndHour < 0 || b.EndHour >= blocks.HoursPerDay {
			d.addError(r, "blocks", field, fmt.Sprintf("block %q hours must be in 0..23", b.Name))
			return
		}
		if b.StartHour == b.EndHour {
			d.addError(r, "blocks", field, fmt.Sprintf("block %q is empty", b.Name))
		}
		if b.Wraps() {
			wrapping++
		}
		if b.Color == "" {
			d.addWarning(r, "blocks", field+".color", fmt.Sprintf("block %q has no colour", b.Name))
		} else if !colorRe.MatchString(b.Color) {
			d.addError(r, "blocks", field+".color", fmt.Sprintf("colour %q is not #rgb or #rrggbb", b.Color))
		}
	}
	if wrapping != 1 {
		d.addError(r, "blocks", "day.blocks",
			fmt.Sprintf("exactly one block must wrap past midnight, found %d", wrapping))
	}

	var gaps, overlaps []string
	for h := 0; h < blocks.HoursPerDay; h++ {
		n := 0
		for _, b := range dayBlocks {
			if b.StartHour != b.EndHour && b.Contains(h) {
				n++
			}
		}
		switch {
		case n == 0:
			gaps = append(gaps, fmt.Sprintf("%02d", h))
		case n > 1:
			overlaps = append(overlaps, fmt.Sprintf("%02d", h))
		}
	}
	if len(gaps) > 0 {
		d.addError(r, "blocks", "day.blocks", "no block covers hour(s) "+strings.Join(gaps, ", "))
	}
	if len(overlaps) > 0 {
		d.addError(r, "blocks", "day.blocks", "several blocks cover hour(s) "+strings.Join(overlaps, ", "))
	}
}

// validateRings checks the geometry invariants of every ring.
func (d *Doctor) validateRings(r *Result) {
	if _, err := d.cfg.Catalogue(); err == nil {
		if _, err := d.cfg.DaySegmentCount(); err == nil {
			day, err := d.cfg.DayRing()
			if err == nil {
				err = day.Validate()
			}
			if err != nil {
				d.addError(r, "rings", "rings.day", err.Error())
			}
		}
	}

	for _, name := range ringNames(d.cfg) {
		ring := d.cfg.RingsByName()[name]
		if name != "day" {
			if err := ring.Segment().Validate(); err != nil {
				d.addError(r, "rings", "rings."+name, err.Error())
			} else if err := config.CheckCalendarSegments(name, ring.Segments); err != nil {
				d.addError(r, "rings", "rings."+name+".segments", err.Error())
			}
		}
		if ring.Decimals < 0 || ring.Decimals > 4 {
			d.addError(r, "rings", "rings."+name+".decimals", "decimals must be between 0 and 4")
		}
	}
}

// validateBandTags checks colour band tags name a block or a literal colour.
func (d *Doctor) validateBandTags(r *Result) {
	known := map[string]bool{}
	for _, b := range d.cfg.Day.Blocks {
		known[b.Name] = true
	}
	for _, name := range ringNames(d.cfg) {
		for i, band := range d.cfg.RingsByName()[name].ColorBands {
			field := fmt.Sprintf("rings.%s.color_bands[%d]", name, i)
			if strings.HasPrefix(band.Tag, "#") {
				if !colorRe.MatchString(band.Tag) {
					d.addError(r, "rings", field, fmt.Sprintf("colour %q is not #rgb or #rrggbb", band.Tag))
				}
				continue
			}
			if !known[band.Tag] {
				d.addError(r, "rings", field, fmt.Sprintf("tag %q does not name a day block", band.Tag))
			}
		}
	}
}

// validateAPIConfig checks API server settings.
func (d *Doctor) validateAPIConfig(r *Result) {
	if !d.cfg.API.Enabled {
		return
	}
	if d.cfg.API.Listen == "" {
		d.addError(r, "api", "api.listen", "api.listen is required when API is enabled")
	}
	if d.cfg.API.Auth.APIKey == "" && len(d.cfg.API.Auth.Tokens) == 0 {
		d.addWarning(r, "api", "api.auth", "API enabled but no authentication configured; frames and events are public")
	}
	for i, tok := range d.cfg.API.Auth.Tokens {
		if tok.Token == "" {
			d.addError(r, "api", fmt.Sprintf("api.auth.tokens[%d].token", i), "token is required")
		}
	}
}

// validateTokenScopes checks that scopes are ones the API understands.
func (d *Doctor) validateTokenScopes(r *Result) {
	for i, token := range d.cfg.API.Auth.Tokens {
		if len(token.Scopes) == 0 {
			d.addError(r, "token_scopes", fmt.Sprintf("api.auth.tokens[%d].scopes", i), "token has no scopes")
		}
		for j, scope := range token.Scopes {
			if !auth.KnownScope(strings.TrimSpace(scope)) {
				d.addError(r, "token_scopes", fmt.Sprintf("api.auth.tokens[%d].scopes[%d]", i, j),
					fmt.Sprintf("unknown scope %q (expected one of *, frame:ro, events:ro, metrics:ro)", scope))
			}
		}
	}
}

// warnLayout flags rings that overlap each other or spill off the canvas.
func (d *Doctor) warnLayout(r *Result) {
	type band struct {
		name       string
		inner, out float64
	}
	var bands []band
	for _, name := range ringNames(d.cfg) {
		ring := d.cfg.RingsByName()[name]
		if ring.Radius <= 0 {
			continue
		}
		half := ring.StrokeWidth / 2
		bands = append(bands, band{name: name, inner: ring.Radius - half, out: ring.Radius + half})
		if d.cfg.Canvas.Size > 0 && ring.Radius+half > d.cfg.Canvas.Size/2 {
			d.addWarning(r, "layout", "rings."+name+".radius",
				fmt.Sprintf("ring %s extends past the %g canvas", name, d.cfg.Canvas.Size))
		}
	}
	sort.Slice(bands, func(i, j int) bool { return bands[i].out > bands[j].out })
	for i := 1; i < len(bands); i++ {
		if bands[i].out > bands[i-1].inner {
			d.addWarning(r, "layout", "rings."+bands[i].name+".radius",
				fmt.Sprintf("ring %s overlaps ring %s", bands[i].name, bands[i-1].name))
		}
	}
}

// warnBandCoverage flags rings whose colour bands leave segments untagged.
func (d *Doctor) warnBandCoverage(r *Result) {
	for _, name := range ringNames(d.cfg) {
		ring := d.cfg.RingsByName()[name]
		if len(ring.ColorBands) == 0 || ring.Segments <= 0 {
			continue
		}
		rc := ring.Segment()
		untagged := 0
		for i := 0; i < rc.SegmentCount; i++ {
			if rc.BandTag(i) == "" {
				untagged++
			}
		}
		if untagged > 0 {
			d.addWarning(r, "rings", "rings."+name+".color_bands",
				fmt.Sprintf("%d of %d segments have no colour band", untagged, rc.SegmentCount))
		}
	}
}

// warnMissingEnvVars flags ${VAR} references that were not resolved at load.
func (d *Doctor) warnMissingEnvVars(r *Result) {
	check := func(field, value string) {
		for _, m := range envVarRe.FindAllStringSubmatch(value, -1) {
			d.addWarning(r, "env", field, fmt.Sprintf("environment variable ${%s} is not set", m[1]))
		}
	}
	check("api.listen", d.cfg.API.Listen)
	check("api.auth.api_key", d.cfg.API.Auth.APIKey)
	for i, tok := range d.cfg.API.Auth.Tokens {
		check(fmt.Sprintf("api.auth.tokens[%d].token", i), tok.Token)
	}
}

func ringNames(cfg *config.Config) []string {
	names := make([]string, 0, 4)
	for name := range cfg.RingsByName() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FormatHuman returns a human-readable validation report.
func FormatHuman(r *Result) string {
	var b strings.Builder

	if r.Valid && len(r.Warnings) == 0 {
		b.WriteString("Configuration valid.\n")
		return b.String()
	}

	if r.Valid && len(r.Warnings) > 0 {
		b.WriteString("Configuration valid")
		fmt.Fprintf(&b, " (%d warning(s))\n", len(r.Warnings))
	}

	if !r.Valid {
		fmt.Fprintf(&b, "Configuration invalid (%d error(s), %d warning(s))\n", len(r.Errors), len(r.Warnings))
	}

	for _, e := range r.Errors {
		if e.Field != "" {
			fmt.Fprintf(&b, "  ERROR [%s] %s: %s\n", e.Category, e.Field, e.Message)
		} else {
			fmt.Fprintf(&b, "  ERROR [%s] %s\n", e.Category, e.Message)
		}
	}
	for _, w := range r.Warnings {
		if w.Field != "" {
			fmt.Fprintf(&b, "  WARN  [%s] %s: %s\n", w.Category, w.Field, w.Message)
		} else {
			fmt.Fprintf(&b, "  WARN  [%s] %s\n", w.Category, w.Message)
		}
	}

	return b.String()
}

// FormatJSON returns the result as indented JSON.
func FormatJSON(r *Result) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
