package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{name: "valid", header: "Bearer test-key", want: "test-key"},
		{name: "trailing space", header: "Bearer test-key  ", want: "test-key"},
		{name: "missing", header: "", wantErr: true},
		{name: "basic", header: "Basic abc", wantErr: true},
		{name: "empty token", header: "Bearer   ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "http://example.test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			got, err := ExtractBearerToken(req)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAuthenticate(t *testing.T) {
	a := New("admin-key", []TokenConfig{
		{Token: "viewer", Scopes: []string{" frame:ro ", ""}},
		{Token: "streamer", Scopes: []string{ScopeEventsRead}},
	})
	require.True(t, a.Enabled())

	p, ok := a.Authenticate("admin-key")
	require.True(t, ok)
	assert.True(t, HasAnyScope(p, ScopeMetricsRead))

	p, ok = a.Authenticate("viewer")
	require.True(t, ok)
	assert.True(t, HasAnyScope(p, ScopeFrameRead))
	assert.False(t, HasAnyScope(p, ScopeEventsRead))
	assert.Len(t, p.Scopes, 1)

	p, ok = a.Authenticate("streamer")
	require.True(t, ok)
	assert.True(t, HasAnyScope(p, ScopeFrameRead, ScopeEventsRead))

	_, ok = a.Authenticate("nope")
	assert.False(t, ok)
	_, ok = a.Authenticate("")
	assert.False(t, ok)
}

func TestDisabledAuthenticator(t *testing.T) {
	assert.False(t, New("", nil).Enabled())
	var nilAuth *Authenticator
	assert.False(t, nilAuth.Enabled())
	assert.True(t, HasAnyScope(Anonymous, ScopeEventsRead))
}

func TestHasAnyScope_NoneRequired(t *testing.T) {
	assert.True(t, HasAnyScope(Principal{}))
}

func TestPrincipalContext(t *testing.T) {
	_, ok := PrincipalFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithPrincipal(context.Background(), Principal{Token: "x"})
	p, ok := PrincipalFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "x", p.Token)
}

func TestKnownScope(t *testing.T) {
	for _, s := range []string{ScopeAll, ScopeFrameRead, ScopeEventsRead, ScopeMetricsRead} {
		assert.True(t, KnownScope(s), s)
	}
	assert.False(t, KnownScope("jobs:rw"))
}
