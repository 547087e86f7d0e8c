package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/rings/internal/config"
	"github.com/mattjoyce/rings/internal/render"
)

func testFrame(t *testing.T) render.Frame {
	t.Helper()
	p, err := render.NewProjector(config.Defaults())
	require.NoError(t, err)
	return p.Tick(time.Date(2024, 3, 15, 11, 30, 0, 0, time.UTC))
}

func TestObserveTick(t *testing.T) {
	m := New()
	f := testFrame(t)

	m.ObserveTick(f, 200*time.Microsecond)
	m.ObserveTick(f, 100*time.Microsecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ticks))
	assert.InDelta(t, 0.71875, testutil.ToFloat64(m.remaining.WithLabelValues("day")), 1e-9)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.activeBlock.WithLabelValues("ni")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.activeBlock.WithLabelValues("ichi")))
	assert.Equal(t, 4, testutil.CollectAndCount(m.remaining))
}

func TestBlockChanged(t *testing.T) {
	m := New()
	m.BlockChanged("ni")
	m.BlockChanged("ni")
	m.BlockChanged("san")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.blockChanges.WithLabelValues("ni")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.blockChanges.WithLabelValues("san")))
}

func TestSSEConnected(t *testing.T) {
	m := New()
	done := m.SSEConnected()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sseClients))
	done()
	assert.Equal(t, 0.0, testutil.ToFloat64(m.sseClients))
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/rings/{name}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	req := httptest.NewRequest(http.MethodGet, "/rings/hour", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/rings/{name}", "404")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveTick(testFrame(t), time.Millisecond)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "rings_ticks_total 1"))
	assert.Contains(t, string(body), `rings_ring_remaining_ratio{ring="week"}`)
}
