package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteSVG(t *testing.T) {
	f := newTestProjector(t).Tick(at(11, 30))

	var buf bytes.Buffer
	require.NoError(t, WriteSVG(&buf, f))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 400 400"`))
	assert.True(t, strings.HasSuffix(out, "</svg>\n"))
	assert.Equal(t, 96+1+7+5+12, strings.Count(out, "<path "))
	assert.Equal(t, 1, strings.Count(out, `class="segment active" data-index="27" data-band="ni"`))
	assert.Contains(t, out, `class="segment future overnight" data-index="-1" data-band="go"`)
	assert.Contains(t, out, `<g class="ring ring-week" data-percent="36.01%" data-fraction="3/7 d">`)
	assert.Contains(t, out, `>ni</text>`)
	assert.Contains(t, out, `>03:30</text>`)
}

func TestWriteSVG_EscapesLabels(t *testing.T) {
	f := newTestProjector(t).Tick(at(11, 30))
	f.Block.Name = "<ni & co>"

	var buf bytes.Buffer
	require.NoError(t, WriteSVG(&buf, f))
	assert.Contains(t, buf.String(), "&lt;ni &amp; co&gt;")
}

func TestWriteText(t *testing.T) {
	f := newTestProjector(t).Tick(at(11, 30))

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, f))
	out := buf.String()

	assert.Contains(t, out, "2024-03-15 11:30:00  ni  (03:30 left")
	assert.Contains(t, out, "3/7 d")
	assert.Contains(t, out, "28/96")
	assert.Contains(t, out, "291 d left")
}
