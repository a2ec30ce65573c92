package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	api "github.com/romanconv/romanconv/api/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsBadServer(t *testing.T) {
	for _, server := range []string{"", "localhost:8080", "ftp://example.com", "http://", "://bad"} {
		_, err := New(server)
		assert.Error(t, err, "server %q", server)
	}
}

func TestToRoman(t *testing.T) {
	var gotPath, gotQuery, gotReqID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("query")
		gotReqID = r.Header.Get(middleware.RequestIDHeader)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"input":"1994","output":"MCMXCIV"}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL + "/")
	require.NoError(t, err)

	resp, err := c.ToRoman(context.Background(), "1994")
	require.NoError(t, err)
	assert.Equal(t, &api.ConversionResponse{Input: "1994", Output: "MCMXCIV"}, resp)
	assert.Equal(t, "/romannumeral", gotPath)
	assert.Equal(t, "1994", gotQuery)
	assert.NotEmpty(t, gotReqID)
}

func TestFromRomanErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/arabicnumeral", r.URL.Path)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("Invalid Roman numeral: IIII"))
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	_, err = c.FromRoman(context.Background(), "IIII")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Invalid Roman numeral: IIII", apiErr.Message)
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"OK","timestamp":"2024-01-01T00:00:00.000Z"}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL, WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	h, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, api.HealthStatusOK, h.Status)
}

func TestMalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	_, err = c.ToRoman(context.Background(), "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding response")
}
