package cmd

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/hourly-hadith/hadith-inspect/config"
	"github.com/hourly-hadith/hadith-inspect/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleBody = `{"status": 200, "hadiths": {"data": [{"id": 9, "hadithEnglish": "Actions are judged by intentions.", "englishNarrator": "Narrated Umar:", "book": {"bookName": "Sahih Bukhari"}, "chapter": {"chapterEnglish": "Revelation"}}]}}`

// isolateEnv clears the inspector settings from the environment for one test
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"HADITH_API_KEY", "HADITH_API_URL", "HADITH_TIMEOUT", "HADITH_RECORD_DIR", "LOG_LEVEL"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

// newHadithServer answers every request with status and body and keeps the last query it saw.
func newHadithServer(t *testing.T, status int, body string) (*httptest.Server, *url.Values) {
	t.Helper()
	last := &url.Values{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*last = r.URL.Query()
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, last
}

func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd("test")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestNewInspectCmd(t *testing.T) {
	cmd := NewInspectCmd()

	assert.Equal(t, "inspect", cmd.Use)
	assert.Equal(t, "Fetch one hadith and print the shape of the response", cmd.Short)
	assert.NotNil(t, cmd.RunE)
	for _, flag := range []string{"env-file", "api-key", "base-url", "number", "timeout", "record", "metrics-file", "from-file"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %s", flag)
	}
}

func TestNewRootCmd(t *testing.T) {
	root := NewRootCmd("test")

	assert.Equal(t, "hadith-inspect", root.Use)
	assert.NotNil(t, root.PersistentFlags().Lookup("log-level"))
	assert.NotNil(t, root.Flags().Lookup("api-key"))
	assert.Len(t, root.Commands(), 3)
}

func TestInspect_LiveRequest(t *testing.T) {
	isolateEnv(t)
	server, last := newHadithServer(t, http.StatusOK, sampleBody)
	envFile := filepath.Join(t.TempDir(), ".env")

	output, err := executeRoot(t, "inspect", "--env-file", envFile, "--api-key", "secret-key", "--base-url", server.URL+"/api/hadiths")
	require.NoError(t, err)

	assert.Equal(t, "secret-key", last.Get("apiKey"))
	assert.Equal(t, "1", last.Get("random"))
	assert.Contains(t, output, "Success! Status code: 200")
	assert.Contains(t, output, "Number of hadiths fetched: 1")
	assert.Contains(t, output, "Source:\nSahih Bukhari - Revelation")
	assert.NotContains(t, output, "secret-key")
}

func TestInspect_RootRunsInspect(t *testing.T) {
	isolateEnv(t)
	server, _ := newHadithServer(t, http.StatusNotFound, "")
	envFile := filepath.Join(t.TempDir(), ".env")

	output, err := executeRoot(t, "--env-file", envFile, "--api-key", "k", "--base-url", server.URL)
	require.NoError(t, err)
	assert.Contains(t, output, "Request failed with status code: 404")
}

func TestInspect_ByNumber(t *testing.T) {
	isolateEnv(t)
	server, last := newHadithServer(t, http.StatusOK, sampleBody)
	envFile := filepath.Join(t.TempDir(), ".env")

	_, err := executeRoot(t, "inspect", "--env-file", envFile, "--api-key", "k", "--base-url", server.URL, "--number", "77")
	require.NoError(t, err)

	assert.Equal(t, "77", last.Get("hadithNumber"))
	assert.Equal(t, "", last.Get("random"))
}

func TestInspect_EnvFileSettings(t *testing.T) {
	isolateEnv(t)
	server, last := newHadithServer(t, http.StatusOK, sampleBody)
	envFile := filepath.Join(t.TempDir(), ".env")
	content := "HADITH_API_KEY=from-file\nHADITH_API_URL=" + server.URL + "/api/hadiths\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0644))

	output, err := executeRoot(t, "inspect", "--env-file", envFile)
	require.NoError(t, err)

	assert.Equal(t, "from-file", last.Get("apiKey"))
	assert.Contains(t, output, "Success! Status code: 200")
}

func TestInspect_MissingAPIKey(t *testing.T) {
	isolateEnv(t)
	envFile := filepath.Join(t.TempDir(), ".env")

	output, err := executeRoot(t, "inspect", "--env-file", envFile)
	assert.ErrorIs(t, err, config.ErrMissingAPIKey)
	assert.NotContains(t, output, "Sending request to")
}

func TestInspect_TransportErrorExitsCleanly(t *testing.T) {
	isolateEnv(t)
	server, _ := newHadithServer(t, http.StatusOK, sampleBody)
	closedURL := server.URL
	server.Close()
	envFile := filepath.Join(t.TempDir(), ".env")

	output, err := executeRoot(t, "inspect", "--env-file", envFile, "--api-key", "k", "--base-url", closedURL)
	assert.NoError(t, err)
	assert.Contains(t, output, "An error occurred: ")
}

func TestInspect_RecordAndReplay(t *testing.T) {
	isolateEnv(t)
	server, _ := newHadithServer(t, http.StatusOK, sampleBody)
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	recordDir := filepath.Join(dir, "recordings")

	live, err := executeRoot(t, "inspect", "--env-file", envFile, "--api-key", "k", "--base-url", server.URL, "--record", recordDir)
	require.NoError(t, err)

	names, err := store.NewFileStore(recordDir).List()
	require.NoError(t, err)
	require.Len(t, names, 1)
	assert.Contains(t, names[0], "-200.json")

	recorded, err := os.ReadFile(filepath.Join(recordDir, names[0]))
	require.NoError(t, err)
	assert.Equal(t, sampleBody, string(recorded))

	replayed, err := executeRoot(t, "inspect", "--env-file", envFile, "--from-file", filepath.Join(recordDir, names[0]))
	require.NoError(t, err)
	assert.Contains(t, replayed, "Replaying recorded response:")
	assert.Contains(t, replayed, "Number of hadiths fetched: 1")
	assert.Contains(t, live, "Number of hadiths fetched: 1")
}

func TestInspect_ReplayMissingFile(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()

	_, err := executeRoot(t, "inspect", "--env-file", filepath.Join(dir, ".env"), "--from-file", filepath.Join(dir, "nope.json"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read recording")
}

func TestSetLogLevel(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "", "bogus"} {
		assert.NotPanics(t, func() { SetLogLevel(level) })
	}
	SetLogLevel("info")
}

func TestInspect_MetricsFile(t *testing.T) {
	isolateEnv(t)
	server, _ := newHadithServer(t, http.StatusOK, sampleBody)
	dir := t.TempDir()
	metricsFile := filepath.Join(dir, "hadith.prom")

	_, err := executeRoot(t, "inspect", "--env-file", filepath.Join(dir, ".env"), "--api-key", "k", "--base-url", server.URL, "--metrics-file", metricsFile)
	require.NoError(t, err)

	data, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `hadith_inspect_runs_total{outcome="ok"} 1`)
	assert.Contains(t, string(data), "hadith_inspect_records 1")
}

func TestInspect_MetricsFileUnwritable(t *testing.T) {
	isolateEnv(t)
	server, _ := newHadithServer(t, http.StatusOK, sampleBody)
	dir := t.TempDir()

	output, err := executeRoot(t, "inspect", "--env-file", filepath.Join(dir, ".env"), "--api-key", "k", "--base-url", server.URL, "--metrics-file", filepath.Join(dir, "missing", "hadith.prom"))
	assert.NoError(t, err)
	assert.Contains(t, output, "Success! Status code: 200")
}
