package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/romanconv/romanconv/pkg/roman"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type validationResult struct {
	Input string `json:"input"`
	Valid bool   `json:"valid"`
	Value int    `json:"value,omitempty"`
}

type ValidateOptions struct {
	GlobalOptions

	Strict bool
}

func DefaultValidateOptions() *ValidateOptions {
	return &ValidateOptions{
		GlobalOptions: DefaultGlobalOptions(),
		Strict:        false,
	}
}

func NewCmdValidate() *cobra.Command {
	o := DefaultValidateOptions()
	cmd := &cobra.Command{
		Use:   "validate NUMERAL [NUMERAL...]",
		Short: "Check Roman numerals against the repetition and subtraction rules.",
		Long: "Check Roman numerals against the repetition and subtraction rules.\n" +
			"With --strict the numeral must also be the canonical spelling of its value.\n" +
			"Exits non-zero when any numeral is invalid.",
		Args: cobra.MinimumNArgs(1),
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

func (o *ValidateOptions) Bind(fs *pflag.FlagSet) {
	fs.StringVarP(&o.Output, "output", "o", o.Output, "Output format. One of: (json, yaml).")
	fs.BoolVar(&o.Strict, "strict", o.Strict, "Also require the canonical spelling of the numeral's value.")
}

// Validate checks the output flag only; validation never contacts a server.
func (o *ValidateOptions) Validate(args []string) error {
	return validateOutput(o.Output)
}

func (o *ValidateOptions) Run(_ context.Context, w io.Writer, args []string) error {
	results := make([]validationResult, 0, len(args))
	invalid := 0
	for _, arg := range args {
		r := o.check(arg)
		if !r.Valid {
			invalid++
		}
		results = append(results, r)
	}

	if o.Output == "" {
		for _, r := range results {
			status := "valid"
			if !r.Valid {
				status = "invalid"
			}
			if _, err := fmt.Fprintf(w, "%s\t%s\n", r.Input, status); err != nil {
				return err
			}
		}
	} else if err := printStructured(w, o.Output, results); err != nil {
		return err
	}

	if invalid > 0 {
		return fmt.Errorf("%d of %d numerals invalid", invalid, len(args))
	}
	return nil
}

func (o *ValidateOptions) check(numeral string) validationResult {
	if !o.Strict {
		return validationResult{Input: numeral, Valid: roman.IsValidRomanNumeral(numeral)}
	}
	n, err := roman.FromRoman(numeral)
	if err != nil {
		return validationResult{Input: numeral, Valid: false}
	}
	return validationResult{Input: numeral, Valid: true, Value: n}
}
