package cli

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	api "github.com/romanconv/romanconv/api/v1"
	"github.com/romanconv/romanconv/internal/service"
	"github.com/romanconv/romanconv/internal/transport"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sigs.k8s.io/yaml"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv(serverEnvVar, "")

	var out bytes.Buffer
	cmd := NewRomanctlCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	log, _ := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	r := chi.NewRouter()
	transport.NewTransportHandler(service.NewServiceHandler(log, nil), log).RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestToRomanLocal(t *testing.T) {
	out, err := execute(t, "to-roman", "1994")
	require.NoError(t, err)
	assert.Equal(t, "MCMXCIV\n", out)

	_, err = execute(t, "to-roman", "1994", "4")
	require.Error(t, err)
}

func TestToRomanJSON(t *testing.T) {
	out, err := execute(t, "to-roman", "42", "-o", "json")
	require.NoError(t, err)

	var resp api.ConversionResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, api.ConversionResponse{Input: "42", Output: "XLII"}, resp)
}

func TestToRomanYAML(t *testing.T) {
	out, err := execute(t, "to-roman", "2", "-o", "yaml")
	require.NoError(t, err)
	assert.Equal(t, "input: \"2\"\noutput: II\n", out)

	var resp api.ConversionResponse
	require.NoError(t, yaml.Unmarshal([]byte(out), &resp))
	assert.Equal(t, api.ConversionResponse{Input: "2", Output: "II"}, resp)
}

func TestToRomanErrors(t *testing.T) {
	tests := []struct {
		arg     string
		message string
	}{
		{arg: "0", message: "0: Number must be between 1 and 3999"},
		{arg: "4000", message: "4000: Number must be between 1 and 3999"},
		{arg: "abc", message: "abc: Invalid number format"},
		{arg: "1.5", message: "1.5: Invalid number format"},
	}
	for _, tt := range tests {
		_, err := execute(t, "to-roman", tt.arg)
		require.Error(t, err, tt.arg)
		assert.Equal(t, tt.message, err.Error())
	}
}

func TestFromRomanLocal(t *testing.T) {
	out, err := execute(t, "from-roman", "MMMCMXCIX")
	require.NoError(t, err)
	assert.Equal(t, "3999\n", out)

	_, err = execute(t, "from-roman", "IIII")
	require.Error(t, err)
	assert.Equal(t, "IIII: Invalid Roman numeral: IIII", err.Error())
}

func TestRemoteConversion(t *testing.T) {
	srv := newTestServer(t)

	out, err := execute(t, "to-roman", "--server", srv.URL, "2024")
	require.NoError(t, err)
	assert.Equal(t, "MMXXIV\n", out)

	out, err = execute(t, "from-roman", "-s", srv.URL, "MMXXIV")
	require.NoError(t, err)
	assert.Equal(t, "2024\n", out)

	_, err = execute(t, "to-roman", "-s", srv.URL, "5000")
	require.Error(t, err)
	assert.Equal(t, "5000: Number must be between 1 and 3999", err.Error())
}

func TestInvalidFlags(t *testing.T) {
	_, err := execute(t, "to-roman", "1", "-o", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output format must be one of")

	_, err = execute(t, "to-roman", "1", "--server", "localhost")
	require.Error(t, err)

	_, err = execute(t, "to-roman", "1", "--request-timeout", "-1")
	require.Error(t, err)

	_, err = execute(t, "to-roman")
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	out, err := execute(t, "validate", "XIV", "MCMXCIV")
	require.NoError(t, err)
	assert.Equal(t, "XIV\tvalid\nMCMXCIV\tvalid\n", out)

	out, err = execute(t, "validate", "XIV", "IIII", "IC")
	require.Error(t, err)
	assert.Equal(t, "2 of 3 numerals invalid", err.Error())
	assert.Contains(t, out, "IIII\tinvalid")
}

func TestValidateStrict(t *testing.T) {
	// IIV passes the syntactic rules but is not a canonical spelling.
	_, err := execute(t, "validate", "IIV")
	require.NoError(t, err)

	out, err := execute(t, "validate", "--strict", "IIV", "-o", "json")
	require.Error(t, err)
	var result validationResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.False(t, result.Valid)

	out, err = execute(t, "validate", "--strict", "XLII", "-o", "json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, validationResult{Input: "XLII", Valid: true, Value: 42}, result)
}

func TestTable(t *testing.T) {
	out, err := execute(t, "table", "--from", "1998", "--to", "2000")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, []string{"ARABIC", "ROMAN", "LENGTH"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"1,998", "MCMXCVIII", "9"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"2,000", "MM", "2"}, strings.Fields(lines[3]))
}

func TestTableStructured(t *testing.T) {
	out, err := execute(t, "table", "--from", "1000", "--to", "3999", "--step", "1000", "-o", "json")
	require.NoError(t, err)

	var rows []api.ConversionResponse
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	assert.Equal(t, []api.ConversionResponse{
		{Input: "1000", Output: "M"},
		{Input: "2000", Output: "MM"},
		{Input: "3000", Output: "MMM"},
	}, rows)
}

func TestTableValidation(t *testing.T) {
	for _, args := range [][]string{
		{"--from", "0"},
		{"--to", "4000"},
		{"--from", "10", "--to", "5"},
		{"--step", "0"},
		{"--from", "1", "--to", "3999"},
	} {
		_, err := execute(t, append([]string{"table"}, args...)...)
		assert.Error(t, err, "args %v", args)
	}
}

func TestTableIgnoresServerEnv(t *testing.T) {
	t.Setenv(serverEnvVar, "ftp://not-an-api")

	var out bytes.Buffer
	cmd := NewRomanctlCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"table", "--from", "4", "--to", "4"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "IV")

	cmd = NewRomanctlCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"to-roman", "4"})
	assert.Error(t, cmd.Execute())
}

func TestRootRequiresSubcommand(t *testing.T) {
	_, err := execute(t)
	require.Error(t, err)
}
