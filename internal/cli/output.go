package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/romanconv/romanconv/internal/client"
	"github.com/romanconv/romanconv/internal/transport"
	"github.com/samber/lo"
	"sigs.k8s.io/yaml"
)

// printStructured writes items as JSON or YAML. A single item is printed on its
// own rather than as a one-element list.
func printStructured[T any](w io.Writer, output string, items []T) error {
	var v any = items
	if len(items) == 1 {
		v = items[0]
	}

	switch output {
	case yamlFormat:
		marshalled, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshalling output: %w", err)
		}
		_, err = fmt.Fprint(w, string(marshalled))
		return err
	case jsonFormat:
		marshalled, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("marshalling output: %w", err)
		}
		_, err = fmt.Fprintln(w, string(marshalled))
		return err
	default:
		return fmt.Errorf("unsupported output format %q", output)
	}
}

func validateOutput(output string) error {
	if len(output) > 0 && !lo.Contains(legalOutputTypes, output) {
		return fmt.Errorf("output format must be one of (%s)", strings.Join(legalOutputTypes, ", "))
	}
	return nil
}

// conversionMessage renders a failed conversion with the same text the API
// server would answer with.
func conversionMessage(input string, err error) error {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s: %s", input, apiErr.Message)
	}
	if _, msg := transport.StatusFromError(err); msg != transport.InternalServerError {
		return fmt.Errorf("%s: %s", input, msg)
	}
	return fmt.Errorf("%s: %w", input, err)
}
