// Package cli holds the gridlayout command, a terminal view of the board layout rule.
package cli

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jo-hoe/galleryboard/internal/layout"
)

// gridOpts holds the command-line flags for the gridlayout command.
type gridOpts struct {
	maxCount int // capacity used for the side cap
	from     int // first count of a table run
	to       int // last count of a table run, -1 when unset
}

// NewGridLayoutCommand returns the root command writing its output to out.
//
//	gridlayout 3 10 100          one line per count
//	gridlayout --from 80 --to 95 a table with under-filled rows flagged
func NewGridLayoutCommand(out io.Writer) *cobra.Command {
	opts := gridOpts{maxCount: layout.DefaultMaxCount, to: -1}

	cmd := &cobra.Command{
		Use:           "gridlayout [count...]",
		Short:         "Print the board grid chosen for image counts",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.maxCount <= 0 {
				return fmt.Errorf("--max must be positive, got %d", opts.maxCount)
			}
			if opts.to >= 0 {
				if len(args) > 0 {
					return fmt.Errorf("counts and --from/--to cannot be combined")
				}
				return printTable(out, opts)
			}
			if len(args) == 0 {
				return fmt.Errorf("provide at least one count or a --from/--to range")
			}
			counts, err := parseCounts(args)
			if err != nil {
				return err
			}
			for _, count := range counts {
				l := layout.Compute(count, opts.maxCount)
				if _, err := fmt.Fprintf(out, "%d: %dx%d\n", count, l.Columns, l.Rows); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.maxCount, "max", opts.maxCount, "maximum number of images on the board")
	cmd.Flags().IntVar(&opts.from, "from", 0, "first count of the table")
	cmd.Flags().IntVar(&opts.to, "to", -1, "last count of the table")
	return cmd
}

func parseCounts(args []string) ([]int, error) {
	counts := make([]int, 0, len(args))
	for _, arg := range args {
		count, err := strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid count %q: %w", arg, err)
		}
		if count < 0 {
			return nil, fmt.Errorf("count must not be negative, got %d", count)
		}
		counts = append(counts, count)
	}
	return counts, nil
}

func printTable(out io.Writer, opts gridOpts) error {
	if opts.from < 0 || opts.to < opts.from {
		return fmt.Errorf("invalid range %d..%d", opts.from, opts.to)
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "COUNT\tCOLUMNS\tROWS\tCELLS\tNOTE")
	for count := opts.from; count <= opts.to; count++ {
		l := layout.Compute(count, opts.maxCount)
		note := ""
		if l.Underfilled(count, opts.maxCount) {
			note = "under-filled"
		}
		fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%s\n", count, l.Columns, l.Rows, l.Cells(), note)
	}
	return w.Flush()
}
