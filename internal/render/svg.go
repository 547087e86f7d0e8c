package render

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"time"

	"github.com/mattjoyce/rings/internal/geometry"
)

const labelLineHeight = 16

// WriteSVG writes f as a standalone SVG document. Each segment is a path with
// class "segment past|active|future" and a data-band attribute holding its
// colour tag, so a stylesheet can restyle states without re-rendering.
func WriteSVG(w io.Writer, f Frame) error {
	var buf bytes.Buffer
	size := geometry.FormatNumber(f.Canvas.Size)

	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %s %s" width="%s" height="%s" data-at="%s">`+"\n",
		size, size, size, size, f.At.Format(time.RFC3339))

	writeRing(&buf, f.Day.RingFrame, &f.Day.Overnight)
	writeRing(&buf, f.Week, nil)
	writeRing(&buf, f.Month, nil)
	writeRing(&buf, f.Year, nil)

	y := f.Canvas.CenterY - labelLineHeight
	writeText(&buf, "block", f.Block.Color, f.Canvas.CenterX, y, f.Block.Name)
	writeText(&buf, "countdown", "", f.Canvas.CenterX, y+labelLineHeight, f.Block.Countdown)
	writeText(&buf, "percent", "", f.Canvas.CenterX, y+2*labelLineHeight, f.Day.Percent)

	buf.WriteString("</svg>\n")

	_, err := w.Write(buf.Bytes())
	return err
}

func writeRing(buf *bytes.Buffer, r RingFrame, overnight *SegmentFrame) {
	fmt.Fprintf(buf, `  <g class="ring ring-%s" data-percent="%s" data-fraction="%s">`+"\n",
		r.Name, escape(r.Percent), escape(r.Fraction))
	if overnight != nil {
		writeSegment(buf, *overnight, r.StrokeWidth, "overnight")
	}
	for _, s := range r.Segments {
		writeSegment(buf, s, r.StrokeWidth, "")
	}
	buf.WriteString("  </g>\n")
}

func writeSegment(buf *bytes.Buffer, s SegmentFrame, strokeWidth float64, extraClass string) {
	class := "segment " + s.State.String()
	if extraClass != "" {
		class += " " + extraClass
	}
	stroke := s.Color
	if stroke == "" {
		stroke = "currentColor"
	}
	fmt.Fprintf(buf, `    <path class="%s" data-index="%d" data-band="%s" d="%s" fill="none" stroke="%s" stroke-width="%s"/>`+"\n",
		class, s.Index, escape(s.ColorTag), s.Path, escape(stroke), geometry.FormatNumber(strokeWidth))
}

func writeText(buf *bytes.Buffer, class, fill string, x, y float64, text string) {
	if text == "" {
		return
	}
	fillAttr := ""
	if fill != "" {
		fillAttr = fmt.Sprintf(` fill="%s"`, escape(fill))
	}
	fmt.Fprintf(buf, `  <text class="%s" x="%s" y="%s" text-anchor="middle"%s>%s</text>`+"\n",
		class, geometry.FormatNumber(x), geometry.FormatNumber(y), fillAttr, escape(text))
}

func escape(s string) string {
	var b bytes.Buffer
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
