package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetPath(t *testing.T) {
	cfg := applyConfigDefaults(&Config{})

	tests := []struct {
		name    string
		path    string
		want    any
		wantErr bool
	}{
		{name: "service field", path: "service.name", want: "rings"},
		{name: "nested ring field", path: "rings.week.segments", want: 7},
		{name: "window", path: "day.window.start", want: "07:00"},
		{name: "list index", path: "day.blocks.1.name", want: "ni"},
		{name: "missing key", path: "rings.hour", wantErr: true},
		{name: "bad index", path: "day.blocks.9.name", wantErr: true},
		{name: "through scalar", path: "service.name.first", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cfg.GetPath(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
