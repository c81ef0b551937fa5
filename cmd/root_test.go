package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/damon-houk/anvil-basic-tx/internal/application/service"
	"github.com/damon-houk/anvil-basic-tx/internal/config"
	"github.com/damon-houk/anvil-basic-tx/internal/domain/entity"
	"github.com/damon-houk/anvil-basic-tx/internal/infrastructure/logger"
)

// run executes the command tree from a clean working directory
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	chdir(t, t.TempDir())

	original := logger.GetDefaultLogger()
	t.Cleanup(func() { logger.SetDefaultLogger(original) })

	var stdout, stderr bytes.Buffer
	root := NewRootCommand(&stdout, &stderr)
	root.SetArgs(append([]string{"--log-pretty=false"}, args...))

	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestBuildWithDefaults(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/transactions/build", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, config.DefaultAPIKey, r.Header.Get("x-api-key"))

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.JSONEq(t, `{
			"changeAddress": "`+config.DefaultChangeAddress+`",
			"outputs": [{"address": "`+config.DefaultReceiverAddress+`", "lovelace": 10000000}]
		}`, string(body))

		w.Write([]byte(`{"type":"Tx","cborHex":"abcd"}`))
	}))
	defer mockServer.Close()

	for _, args := range [][]string{
		{"--api-url", mockServer.URL},
		{"build", "--api-url", mockServer.URL},
	} {
		stdout, stderr, err := run(t, args...)

		require.NoError(t, err, stderr)
		assert.Equal(t, "{\n  \"cborHex\": \"abcd\",\n  \"type\": \"Tx\"\n}\n", stdout)
		assert.Contains(t, stderr, "Requesting transaction build")
	}
}

func TestBuildErrorStatusIsPrinted(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Invalid API key"}`))
	}))
	defer mockServer.Close()

	stdout, stderr, err := run(t, "--api-url", mockServer.URL, "--api-key", "wrong")

	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"Invalid API key"}`, stdout)
	assert.Contains(t, stderr, "non-success status")
}

func TestBuildUnreachable(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := mockServer.URL
	mockServer.Close()

	stdout, _, err := run(t, "--api-url", url)

	assert.Error(t, err)
	assert.Empty(t, stdout)
}

func TestExecuteReportsFailure(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := mockServer.URL
	mockServer.Close()

	chdir(t, t.TempDir())
	original := logger.GetDefaultLogger()
	t.Cleanup(func() { logger.SetDefaultLogger(original) })

	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), []string{"--log-pretty=false", "--api-url", url}, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Empty(t, stdout.String())

	lines := strings.Split(strings.TrimSpace(stderr.String()), "\n")
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "Failed to execute command", entry["message"])
	assert.Contains(t, entry["error"], "build transaction")
	assert.Contains(t, entry["caller"], "cmd/root.go")
}

func TestExecuteSuccess(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"type":"Tx","cborHex":"abcd"}`))
	}))
	defer mockServer.Close()

	chdir(t, t.TempDir())
	original := logger.GetDefaultLogger()
	t.Cleanup(func() { logger.SetDefaultLogger(original) })

	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), []string{"--log-pretty=false", "--api-url", mockServer.URL}, &stdout, &stderr)

	assert.Equal(t, 0, code, stderr.String())
	assert.JSONEq(t, `{"type":"Tx","cborHex":"abcd"}`, stdout.String())
}

func TestBuildNonJSONBody(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>502 Bad Gateway</html>"))
	}))
	defer mockServer.Close()

	stdout, stderr, err := run(t, "--api-url", mockServer.URL)

	assert.Error(t, err)
	assert.Empty(t, stdout)
	assert.NotContains(t, stderr, "502 Bad Gateway")
}

func TestBuildFlagsOverrideTransfer(t *testing.T) {
	var got entity.BuildRequest
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{}`))
	}))
	defer mockServer.Close()

	_, stderr, err := run(t, "build", "--api-url", mockServer.URL,
		"--change-address", "addr_change",
		"--output", "addr_a:1000000",
		"--output", "addr_b:2500000",
	)
	require.NoError(t, err, stderr)

	assert.Equal(t, "addr_change", got.ChangeAddress)
	assert.Equal(t, []entity.Output{
		{Address: "addr_a", Lovelace: 1000000},
		{Address: "addr_b", Lovelace: 2500000},
	}, got.Outputs)

	_, _, err = run(t, "build", "--api-url", mockServer.URL, "--lovelace", "5", "--receiver-address", "addr_r")
	require.NoError(t, err)
	assert.Equal(t, config.DefaultChangeAddress, got.ChangeAddress)
	assert.Equal(t, []entity.Output{{Address: "addr_r", Lovelace: 5}}, got.Outputs)
}

func TestBuildMessageAndUtxos(t *testing.T) {
	var body map[string]interface{}
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body = map[string]interface{}{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Write([]byte(`{}`))
	}))
	defer mockServer.Close()

	_, stderr, err := run(t, "--api-url", mockServer.URL)
	require.NoError(t, err, stderr)
	assert.NotContains(t, body, "message")
	assert.NotContains(t, body, "utxos")

	_, stderr, err = run(t, "build", "--api-url", mockServer.URL,
		"--message", "Locking my fortune",
		"--utxo", "8282582018",
		"--utxo", "8282582019",
	)
	require.NoError(t, err, stderr)
	assert.Equal(t, "Locking my fortune", body["message"])
	assert.Equal(t, []interface{}{"8282582018", "8282582019"}, body["utxos"])
	assert.Equal(t, config.DefaultChangeAddress, body["changeAddress"])
}

func TestBuildOutputConflicts(t *testing.T) {
	_, _, err := run(t, "build", "--output", "addr_a:1", "--lovelace", "5")
	assert.Error(t, err)

	_, _, err = run(t, "build", "--output", "addr_a")
	assert.Error(t, err)
}

func TestParseOutput(t *testing.T) {
	o, err := parseOutput("addr_test1qr0tk:10000000")
	require.NoError(t, err)
	assert.Equal(t, entity.Output{Address: "addr_test1qr0tk", Lovelace: 10000000}, o)

	for _, raw := range []string{"", "addr", ":5", "addr:", "addr:-1", "addr:1.5"} {
		_, err := parseOutput(raw)
		assert.Error(t, err, raw)
	}
}

func TestHealth(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer mockServer.Close()

	stdout, _, err := run(t, "health", "--api-url", mockServer.URL)

	require.NoError(t, err)
	assert.Equal(t, "{\"status\":\"ok\"}\n", stdout)
}

func TestHistory(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"type":"Tx","cborHex":"abcd"}`))
	}))
	defer mockServer.Close()

	historyDir := t.TempDir()

	for _, lovelace := range []string{"1000000", "2000000"} {
		_, stderr, err := run(t, "--api-url", mockServer.URL, "--history-path", historyDir, "--lovelace", lovelace)
		require.NoError(t, err, stderr)
	}

	stdout, _, err := run(t, "history", "list", "--history-path", historyDir)
	require.NoError(t, err)

	var records []entity.BuildRecord
	require.NoError(t, json.Unmarshal([]byte(stdout), &records))
	require.Len(t, records, 2)
	assert.Equal(t, uint64(2000000), records[0].Request.Outputs[0].Lovelace)
	assert.Equal(t, uint64(1000000), records[1].Request.Outputs[0].Lovelace)
	assert.JSONEq(t, `{"type":"Tx","cborHex":"abcd"}`, string(records[0].Response))

	stdout, _, err = run(t, "history", "show", records[1].ID, "--history-path", historyDir)
	require.NoError(t, err)

	var record entity.BuildRecord
	require.NoError(t, json.Unmarshal([]byte(stdout), &record))
	assert.Equal(t, records[1].ID, record.ID)
	assert.Equal(t, http.StatusOK, record.StatusCode)
}

func TestHistoryDisabled(t *testing.T) {
	_, _, err := run(t, "history", "list")

	assert.True(t, errors.Is(err, service.ErrHistoryDisabled), "got %v", err)
}

func TestBuildAgainstSandbox(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	a := &app{log: logger.NewJSONLogger(io.Discard, logger.DebugLevel)}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- a.serveSandbox(ctx, listener) }()

	stdout, stderr, err := run(t, "--api-url", "http://"+listener.Addr().String())
	require.NoError(t, err, stderr)

	var body map[string]string
	require.NoError(t, json.Unmarshal([]byte(stdout), &body))
	assert.Equal(t, "Tx", body["type"])
	assert.Len(t, body["cborHex"], 64)

	cancel()
	assert.NoError(t, <-done)
}
