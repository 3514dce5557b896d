// File: cmd/helpers_test.go
package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	json "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/muuktest/selector-feedback/api/schemas"
	"github.com/muuktest/selector-feedback/internal/config"
	"github.com/muuktest/selector-feedback/internal/fetch"
	"github.com/muuktest/selector-feedback/internal/observability"
	"github.com/muuktest/selector-feedback/internal/store"
)

const (
	testClass   = "LoginTest"
	testBrowser = "chrome"
)

const loginSnapshot = `<html><body><form id="login">
	<button class="btn" type="button">Cancel</button>
	<button class="btn" type="submit">Submit</button>
</form></body></html>`

// resetForTest silences and resets the global logger around a test.
func resetForTest(t *testing.T) {
	t.Helper()
	observability.ResetForTest()
	t.Cleanup(observability.ResetForTest)
}

// testEnv is a temporary working area with a config file and recorder output.
type testEnv struct {
	dir        string
	configPath string
	reportDir  string
	domDir     string
}

func newTestEnv(t *testing.T, extraYAML string) *testEnv {
	t.Helper()
	resetForTest(t)

	dir := t.TempDir()
	env := &testEnv{
		dir:        dir,
		configPath: filepath.Join(dir, "muuk.yaml"),
		reportDir:  filepath.Join(dir, "reports"),
		domDir:     filepath.Join(dir, "reports", "dom"),
	}
	require.NoError(t, os.MkdirAll(env.domDir, 0o755))

	content := fmt.Sprintf(`
logger:
  level: fatal
report:
  dir: %q
  dom_dir: %q
  browser: %s
  trace_marker: %q
%s`, env.reportDir, env.domDir, testBrowser, filepath.Join(dir, "no-trace"), extraYAML)
	require.NoError(t, os.WriteFile(env.configPath, []byte(content), 0o644))
	return env
}

// writeLoginReport records one analyzable step plus a pass-through entry.
func (e *testEnv) writeLoginReport(t *testing.T) {
	t.Helper()
	encode := func(v interface{}) string {
		data, err := json.Marshal(v)
		require.NoError(t, err)
		return string(data)
	}
	step := map[string]interface{}{
		"id":            "1",
		"type":          "step",
		"tag":           "button",
		"action":        "click",
		"selectorToUse": 0,
		"selectors": encode([]map[string]interface{}{
			{"selector": "button.btn", "index": 0},
			{"selector": "", "index": nil},
			{"selector": "button[type='submit']", "index": 0},
			{"selector": "//BUTTON[contains(text(),'Submit')]", "index": 0},
		}),
		"value":      encode(map[string]string{"searchType": "text", "value": "Submit"}),
		"attributes": encode(map[string]string{"id": "undef", "name": "undef", "type": "submit", "text": "Submit"}),
	}
	data, err := json.Marshal(map[string]interface{}{
		"stepsFeedback": []map[string]interface{}{{"type": "wait", "duration": 3}, step},
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(e.reportDir, testClass+".json"), data, 0o644))

	snapshot := filepath.Join(e.domDir, fmt.Sprintf("%s_%s_%s.html", testClass, "1", testBrowser))
	require.NoError(t, os.WriteFile(snapshot, []byte(loginSnapshot), 0o644))
}

// executeCommand runs a fresh command tree and returns what it printed.
func executeCommand(t *testing.T, root *cobra.Command, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return buf.String(), err
}

// -- Mocks --

type mockStore struct {
	mock.Mock
}

func (m *mockStore) PersistReport(ctx context.Context, className, browser string, report *schemas.MuukReport) (string, error) {
	args := m.Called(ctx, className, browser, report)
	return args.String(0), args.Error(1)
}

func (m *mockStore) GetFeedbackByRunID(ctx context.Context, runID string) ([]store.FeedbackRow, error) {
	args := m.Called(ctx, runID)
	var rows []store.FeedbackRow
	if v := args.Get(0); v != nil {
		rows = v.([]store.FeedbackRow)
	}
	return rows, args.Error(1)
}

type mockStoreProvider struct {
	mock.Mock
}

func (m *mockStoreProvider) Create(ctx context.Context, cfg config.Interface) (reportStore, func(), error) {
	args := m.Called(ctx, cfg)
	var s reportStore
	if v := args.Get(0); v != nil {
		s = v.(reportStore)
	}
	var cleanup func()
	if v := args.Get(1); v != nil {
		cleanup = v.(func())
	}
	return s, cleanup, args.Error(2)
}

func newTestRoot(provider storeProvider, fetchOpts ...fetch.Option) *cobra.Command {
	if provider == nil {
		provider = &mockStoreProvider{}
	}
	return newRootCommand(provider, fetchOpts...)
}
