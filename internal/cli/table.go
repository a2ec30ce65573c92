package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	api "github.com/romanconv/romanconv/api/v1"
	"github.com/romanconv/romanconv/pkg/roman"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const maxTableRows = 1000

type TableOptions struct {
	GlobalOptions

	From int
	To   int
	Step int
}

func DefaultTableOptions() *TableOptions {
	return &TableOptions{
		GlobalOptions: DefaultGlobalOptions(),
		From:          1,
		To:            20,
		Step:          1,
	}
}

func NewCmdTable() *cobra.Command {
	o := DefaultTableOptions()
	cmd := &cobra.Command{
		Use:     "table",
		Short:   "Print a range of numbers next to their Roman numerals.",
		Example: "  romanctl table --from 1990 --to 2000\n  romanctl table --from 1000 --to 3999 --step 500 -o yaml",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Validate(args); err != nil {
				return err
			}
			return o.Run(cmd.Context(), cmd.OutOrStdout())
		},
		SilenceUsage: true,
	}
	o.Bind(cmd.Flags())
	return cmd
}

func (o *TableOptions) Bind(fs *pflag.FlagSet) {
	fs.StringVarP(&o.Output, "output", "o", o.Output, "Output format. One of: (json, yaml).")
	fs.IntVar(&o.From, "from", o.From, "First number of the range.")
	fs.IntVar(&o.To, "to", o.To, "Last number of the range (inclusive).")
	fs.IntVar(&o.Step, "step", o.Step, "Distance between consecutive rows.")
}

// Validate ignores the server setting; the table is always rendered locally.
func (o *TableOptions) Validate(args []string) error {
	if err := validateOutput(o.Output); err != nil {
		return err
	}
	if o.From < roman.MinValue || o.To > roman.MaxValue {
		return fmt.Errorf("range must lie between %d and %d", roman.MinValue, roman.MaxValue)
	}
	if o.From > o.To {
		return fmt.Errorf("from (%d) must not be greater than to (%d)", o.From, o.To)
	}
	if o.Step <= 0 {
		return fmt.Errorf("step must be greater than 0")
	}
	if rows := (o.To-o.From)/o.Step + 1; rows > maxTableRows {
		return fmt.Errorf("range produces %s rows, the limit is %s", humanize.Comma(int64(rows)), humanize.Comma(maxTableRows))
	}
	return nil
}

func (o *TableOptions) Run(_ context.Context, w io.Writer) error {
	rows := make([]api.ConversionResponse, 0, (o.To-o.From)/o.Step+1)
	for n := o.From; n <= o.To; n += o.Step {
		numeral, err := roman.ToRoman(n)
		if err != nil {
			return err
		}
		rows = append(rows, api.ConversionResponse{Input: fmt.Sprint(n), Output: numeral})
	}

	if o.Output != "" {
		return printStructured(w, o.Output, rows)
	}

	tw := tabwriter.NewWriter(w, 0, 8, 1, '\t', 0)
	fmt.Fprintln(tw, "ARABIC\tROMAN\tLENGTH")
	for n, i := o.From, 0; i < len(rows); n, i = n+o.Step, i+1 {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", humanize.Comma(int64(n)), rows[i].Output, len(rows[i].Output))
	}
	return tw.Flush()
}
