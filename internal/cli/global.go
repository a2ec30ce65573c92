package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/romanconv/romanconv/internal/client"
	"github.com/romanconv/romanconv/internal/service"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	appName = "romanctl"

	jsonFormat = "json"
	yamlFormat = "yaml"

	serverEnvVar = "ROMANCTL_SERVER"
)

var legalOutputTypes = []string{jsonFormat, yamlFormat}

// GlobalOptions are shared by every subcommand that prints a result.
type GlobalOptions struct {
	Server         string
	Output         string
	RequestTimeout int
}

func DefaultGlobalOptions() GlobalOptions {
	return GlobalOptions{
		Server:         os.Getenv(serverEnvVar),
		Output:         "",
		RequestTimeout: 0,
	}
}

func (o *GlobalOptions) Bind(fs *pflag.FlagSet) {
	fs.StringVarP(&o.Server, "server", "s", o.Server, fmt.Sprintf("Convert through a running API server at this URL instead of locally (env %s).", serverEnvVar))
	fs.StringVarP(&o.Output, "output", "o", o.Output, fmt.Sprintf("Output format. One of: (%s).", strings.Join(legalOutputTypes, ", ")))
	fs.IntVar(&o.RequestTimeout, "request-timeout", o.RequestTimeout, "Request Timeout in seconds (0 - use default timeout)")
}

func (o *GlobalOptions) Validate(args []string) error {
	if err := validateOutput(o.Output); err != nil {
		return err
	}
	// 0 means the client default
	if o.RequestTimeout < 0 {
		return fmt.Errorf("request-timeout must be greater than 0")
	}
	if o.Server != "" {
		if _, err := client.New(o.Server); err != nil {
			return err
		}
	}
	return nil
}

func (o *GlobalOptions) WithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.RequestTimeout != 0 {
		return context.WithTimeout(ctx, time.Duration(o.RequestTimeout)*time.Second)
	}
	return ctx, func() {}
}

// Converter returns the remote client when a server is configured, otherwise an
// in-process service handler.
func (o *GlobalOptions) Converter() (service.Service, error) {
	if o.Server != "" {
		return client.New(o.Server)
	}
	log := logrus.New()
	log.SetOutput(io.Discard)
	return service.NewServiceHandler(log, nil), nil
}

// NewRomanctlCommand builds the root command with every subcommand attached.
func NewRomanctlCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   appName,
		Short: appName + " converts between Arabic numbers and Roman numerals.",
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return fmt.Errorf("a subcommand is required")
		},
		SilenceUsage: true,
	}
	cmd.AddCommand(NewCmdToRoman())
	cmd.AddCommand(NewCmdFromRoman())
	cmd.AddCommand(NewCmdValidate())
	cmd.AddCommand(NewCmdTable())
	cmd.AddCommand(NewCmdVersion())
	return cmd
}
