package config

import (
	"fmt"
	"strings"
)

// ConfigValidator checks references between config sections that may come
// from different included files.
type ConfigValidator struct {
	config *Config
}

// ValidateCrossReferences checks that all cross-section references are valid.
func (v *ConfigValidator) ValidateCrossReferences() error {
	if err := v.validateBlockNames(); err != nil {
		return err
	}
	if err := v.validateBandTags(); err != nil {
		return err
	}
	return nil
}

// validateBlockNames checks block names are usable as colour tags.
func (v *ConfigValidator) validateBlockNames() error {
	for i, b := range v.config.Day.Blocks {
		if strings.TrimSpace(b.Name) != b.Name {
			return fmt.Errorf("day.blocks[%d]: name %q has surrounding whitespace", i, b.Name)
		}
		if strings.HasPrefix(b.Name, "#") {
			return fmt.Errorf("day.blocks[%d]: name %q must not start with '#'", i, b.Name)
		}
	}
	return nil
}

// validateBandTags checks every colour band tag names a block or is a literal
// colour ("#rrggbb").
func (v *ConfigValidator) validateBandTags() error {
	known := make(map[string]bool, len(v.config.Day.Blocks))
	for _, b := range v.config.Day.Blocks {
		known[b.Name] = true
	}

	for name, ring := range v.config.RingsByName() {
		for i, band := range ring.ColorBands {
			if strings.HasPrefix(band.Tag, "#") {
				continue
			}
			if !known[band.Tag] {
				return fmt.Errorf("rings.%s.color_bands[%d]: tag %q does not name a day block", name, i, band.Tag)
			}
		}
	}
	return nil
}
