package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/limkeunhak/FlashX"
	"github.com/limkeunhak/FlashX/codec"
)

// writeReport writes r in format: "text" or a codec name.
func writeReport(w io.Writer, format string, r *flashx.Report) error {
	if format == "text" {
		return writeText(w, r)
	}
	c, ok := codec.ByName(format)
	if !ok {
		return fmt.Errorf("unknown format %q", format)
	}
	b, err := r.Encode(c)
	if err != nil {
		return err
	}
	if _, err := w.Write(b); err != nil {
		return err
	}
	_, err = io.WriteString(w, "\n")
	return err
}

func writeText(w io.Writer, r *flashx.Report) error {
	fmt.Fprintf(w, "%s\n", r.Summary)
	fmt.Fprintf(w, "duration    %s\n", r.Duration)
	fmt.Fprintf(w, "transferred %s (read %s, written %s, verified %s)\n",
		ibytes(r.Bytes), ibytes(r.ReadBytes), ibytes(r.WriteBytes), ibytes(r.VerifiedBytes))
	fmt.Fprintf(w, "requests    %s (%s IOPS)\n", humanize.Comma(r.Requests), humanize.Comma(int64(r.IOPS)))
	fmt.Fprintf(w, "throughput  %s/s\n", ibytes(int64(r.Throughput)))
	fmt.Fprintf(w, "buffers     %s peak", ibytes(r.Resources.PeakMemory))
	if r.Resources.MemoryLimit > 0 {
		fmt.Fprintf(w, " of %s", ibytes(r.Resources.MemoryLimit))
	}
	fmt.Fprintf(w, ", %d worker(s) at once\n\n", r.Resources.PeakWorkers)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WORKER\tREAD\tWRITTEN\tPAGES\tDURATION\tTHROUGHPUT")
	for _, wr := range r.Workers {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s/s\n",
			wr.Index, ibytes(wr.ReadBytes), ibytes(wr.WriteBytes),
			humanize.Comma(int64(wr.DistinctPages)), wr.Duration, ibytes(int64(wr.Throughput)))
	}
	return tw.Flush()
}

func ibytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}
