package results

import (
	"os"
	"path/filepath"
	"testing"

	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/require"

	"github.com/muuktest/selector-feedback/internal/config"
)

const (
	testClass   = "LoginTest"
	testBrowser = "chrome"
)

const loginSnapshot = `<html><body><form id="login">
	<button class="btn" type="button">Cancel</button>
	<button class="btn" type="submit">Submit</button>
</form></body></html>`

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.NewDefaultConfig()
	cfg.ReportCfg.Dir = dir
	cfg.ReportCfg.DOMDir = filepath.Join(dir, "dom")
	cfg.ReportCfg.Browser = testBrowser
	cfg.ReportCfg.TraceMarker = filepath.Join(dir, "TOUCH_TRACE_REPORT")
	require.NoError(t, os.MkdirAll(cfg.ReportCfg.DOMDir, 0o755))
	return cfg
}

// encoded renders v as the JSON string the recorder nests in its report.
func encoded(t *testing.T, v interface{}) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

func writeReport(t *testing.T, cfg *config.Config, className string, entries []map[string]interface{}) {
	t.Helper()
	data, err := json.Marshal(map[string]interface{}{"stepsFeedback": entries})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.ReportCfg.Dir, className+".json"), data, 0o644))
}

func writeSnapshot(t *testing.T, cfg *config.Config, className, stepID, html string) {
	t.Helper()
	path := filepath.Join(cfg.ReportCfg.DOMDir, snapshotFileName(className, stepID, testBrowser))
	require.NoError(t, os.WriteFile(path, []byte(html), 0o644))
}

func sel(selector string, index interface{}) map[string]interface{} {
	return map[string]interface{}{"selector": selector, "index": index}
}

// recordedStep builds a step entry in the recorder's format.
func recordedStep(t *testing.T, id, action string, selectors []map[string]interface{}, searchType, value string, attrs map[string]string) map[string]interface{} {
	t.Helper()
	return map[string]interface{}{
		"id":            id,
		"type":          "step",
		"tag":           "button",
		"objectType":    "button",
		"action":        action,
		"selectorToUse": 0,
		"selectors":     encoded(t, selectors),
		"value":         encoded(t, map[string]string{"searchType": searchType, "value": value}),
		"attributes":    encoded(t, attrs),
	}
}

func loginSelectors() []map[string]interface{} {
	return []map[string]interface{}{
		sel("button.btn", 0),
		sel("", nil),
		sel("button[type='submit']", 0),
		sel("//BUTTON[contains(text(),'Submit')]", 0),
	}
}

func loginAttributes() map[string]string {
	return map[string]string{"id": "undef", "name": "undef", "type": "submit", "text": "Submit"}
}
