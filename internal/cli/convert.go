package cli

import (
	"context"
	"fmt"
	"io"

	api "github.com/romanconv/romanconv/api/v1"
	"github.com/romanconv/romanconv/internal/service"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type conversionFunc func(svc service.Service, ctx context.Context, query string) (*api.ConversionResponse, error)

type ConvertOptions struct {
	GlobalOptions

	convert conversionFunc
}

func DefaultConvertOptions(convert conversionFunc) *ConvertOptions {
	return &ConvertOptions{
		GlobalOptions: DefaultGlobalOptions(),
		convert:       convert,
	}
}

func NewCmdToRoman() *cobra.Command {
	o := DefaultConvertOptions(service.Service.ToRoman)
	cmd := &cobra.Command{
		Use:     "to-roman NUMBER",
		Short:   "Convert an integer between 1 and 3999 to a Roman numeral.",
		Example: "  romanctl to-roman 1994\n  romanctl to-roman 14 -o json",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Validate(args); err != nil {
				return err
			}
			return o.Run(cmd.Context(), cmd.OutOrStdout(), args)
		},
		SilenceUsage: true,
	}
	o.Bind(cmd.Flags())
	return cmd
}

func NewCmdFromRoman() *cobra.Command {
	o := DefaultConvertOptions(service.Service.FromRoman)
	cmd := &cobra.Command{
		Use:     "from-roman NUMERAL",
		Short:   "Convert a canonical upper-case Roman numeral to an integer.",
		Example: "  romanctl from-roman MCMXCIV",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Validate(args); err != nil {
				return err
			}
			return o.Run(cmd.Context(), cmd.OutOrStdout(), args)
		},
		SilenceUsage: true,
	}
	o.Bind(cmd.Flags())
	return cmd
}

func (o *ConvertOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)
}

func (o *ConvertOptions) Validate(args []string) error {
	return o.GlobalOptions.Validate(args)
}

func (o *ConvertOptions) Run(ctx context.Context, w io.Writer, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	svc, err := o.Converter()
	if err != nil {
		return err
	}
	ctx, cancel := o.WithTimeout(ctx)
	defer cancel()

	resp, err := o.convert(svc, ctx, args[0])
	if err != nil {
		return conversionMessage(args[0], err)
	}

	if o.Output == "" {
		_, err := fmt.Fprintln(w, resp.Output)
		return err
	}
	return printStructured(w, o.Output, []api.ConversionResponse{*resp})
}
