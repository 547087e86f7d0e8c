package render

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// WriteText writes a compact table of the frame's labels.
func WriteText(w io.Writer, f Frame) error {
	if _, err := fmt.Fprintf(w, "%s  %s  (%s left, %s of block remaining)\n\n",
		f.At.Format("2006-01-02 15:04:05"), f.Block.Name, f.Block.Countdown,
		f.Block.Progress.RemainingPercent(0)); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RING\tREMAINING\tFRACTION\tACTIVE\tDETAIL")
	for _, r := range f.Rings() {
		active := "-"
		if r.ActiveIndex >= 0 {
			active = fmt.Sprintf("%d/%d", r.ActiveIndex+1, len(r.Segments))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.Name, r.Percent, r.Fraction, active, r.Detail)
	}
	return tw.Flush()
}
