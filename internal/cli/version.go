package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/romanconv/romanconv/internal/client"
	"github.com/romanconv/romanconv/pkg/version"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	cliVersionTitle   = "romanctl version"
	serverHealthTitle = "server health"

	errReadingHealth = "reading server health"

	healthTimeout = 5 * time.Second
)

type serverHealth struct {
	Status    string `json:"status,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Error     string `json:"error,omitempty"`
}

type VersionOptions struct {
	GlobalOptions
}

func DefaultVersionOptions() *VersionOptions {
	return &VersionOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdVersion() *cobra.Command {
	o := DefaultVersionOptions()
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print romanctl version information.",
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

func (o *VersionOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)
}

func (o *VersionOptions) Validate(args []string) error {
	return o.GlobalOptions.Validate(args)
}

// versionReport keys match the plain-text labels.
type versionReport struct {
	Client version.Info  `json:"romanctl version"`
	Server *serverHealth `json:"server health,omitempty"`
}

func (o *VersionOptions) health(ctx context.Context) *serverHealth {
	failed := func(err error) *serverHealth {
		return &serverHealth{Error: fmt.Sprintf("%s: %v", errReadingHealth, err)}
	}

	c, err := client.New(o.Server)
	if err != nil {
		return failed(err)
	}
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	resp, err := c.Health(ctx)
	if err != nil {
		return failed(err)
	}
	return &serverHealth{Status: resp.Status, Timestamp: resp.Timestamp}
}

func (o *VersionOptions) Run(ctx context.Context, w io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	report := versionReport{Client: version.Get()}
	if o.Server != "" {
		report.Server = o.health(ctx)
	}

	if o.Output != "" {
		return printStructured(w, o.Output, []versionReport{report})
	}

	fmt.Fprintf(w, "%s: %s\n", cliVersionTitle, report.Client)
	if h := report.Server; h != nil {
		state := h.Status
		if h.Error != "" {
			state = h.Error
		}
		fmt.Fprintf(w, "%s: %s\n", serverHealthTitle, state)
	}
	return nil
}
