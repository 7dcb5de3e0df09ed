package cli

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prd-manager/internal/domain/entities"
	"prd-manager/internal/domain/services"
)

func decodePRD(t *testing.T, out string) entities.PRD {
	t.Helper()
	var prd entities.PRD
	require.NoError(t, json.Unmarshal([]byte(out), &prd))
	return prd
}

func decodeList(t *testing.T, out string) []entities.PRD {
	t.Helper()
	var list struct {
		PRDs  []entities.PRD `json:"prds"`
		Count int            `json:"count"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list.PRDs, list.Count)
	return list.PRDs
}

func assertCLIError(t *testing.T, err error, code string) *CLIError {
	t.Helper()
	var cliErr *CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, code, cliErr.Code)
	return cliErr
}

// seedManager adds three PRDs in distinct states and returns their ids
func seedManager(m *services.PRDManager) (auth, api, theme string) {
	auth = m.CreatePRD("User Authentication System", "Implement secure login", "Dev Team",
		services.WithPriority(entities.PriorityHigh), services.WithTags("security", "authentication"))
	m.UpdatePRDStatus(auth, entities.StatusInDevelopment)
	m.UpdatePRDCompletion(auth, 30)

	api = m.CreatePRD("API Rate Limiting", "Protect the public API", "Backend Team",
		services.WithPriority(entities.PriorityCritical), services.WithTags("api", "security"))

	theme = m.CreatePRD("Dark Mode Theme", "Add dark theme option", "UX Team",
		services.WithPriority(entities.PriorityLow), services.WithTags("ui"))
	m.UpdatePRDStatus(theme, entities.StatusImplemented)
	m.UpdatePRDCompletion(theme, 100)

	return auth, api, theme
}

func TestCreateCommand(t *testing.T) {
	env := newTestEnv(t)

	res := env.run("create", "API", "Rate", "Limiting",
		"--description", "Implement API rate limiting for security",
		"-a", "Backend Team", "-p", "critical", "-t", "API, Security", "-t", "api",
		"-o", "json")
	require.NoError(t, res.err)

	prd := decodePRD(t, res.stdout)
	assert.Equal(t, "API Rate Limiting", prd.Title)
	assert.Equal(t, "Implement API rate limiting for security", prd.Description)
	assert.Equal(t, "Backend Team", prd.Author)
	assert.Equal(t, entities.PriorityCritical, prd.Priority)
	assert.Equal(t, entities.StatusDraft, prd.Status)
	assert.Equal(t, 0, prd.CompletionPercentage)
	assert.Equal(t, []string{"api", "security"}, prd.Tags)

	stored, found := env.deps.Manager.GetPRD(prd.ID)
	require.True(t, found)
	assert.Equal(t, prd.Title, stored.Title)
}

func TestCreateCommand_ConfigDefaults(t *testing.T) {
	env := newTestEnv(t)
	cfg := testConfig()
	cfg.Defaults.Priority = entities.PriorityHigh
	cfg.Defaults.Author = "Product Team"
	env.deps.ConfigMgr = newConfigMock(cfg)

	res := env.run("create", "Payment Gateway Integration", "-o", "json")
	require.NoError(t, res.err)

	prd := decodePRD(t, res.stdout)
	assert.Equal(t, entities.PriorityHigh, prd.Priority)
	assert.Equal(t, "Product Team", prd.Author)

	res = env.run("create", "Search Enhancement", "-p", "low", "-a", "Search Team", "-o", "json")
	require.NoError(t, res.err)

	prd = decodePRD(t, res.stdout)
	assert.Equal(t, entities.PriorityLow, prd.Priority)
	assert.Equal(t, "Search Team", prd.Author)
}

func TestCreateCommand_InvalidPriority(t *testing.T) {
	env := newTestEnv(t)

	res := env.run("create", "Analytics Dashboard", "-p", "urgent")

	assertCLIError(t, res.err, "INVALID_ARGUMENT")
	assert.Zero(t, env.deps.Manager.Count())
	assert.Contains(t, res.stderr, "Critical")
}

func TestCreateCommand_RequiresTitle(t *testing.T) {
	res := newTestEnv(t).run("create")
	assert.Error(t, res.err)
}

func TestShowCommand(t *testing.T) {
	env := newTestEnv(t)
	auth, _, _ := seedManager(env.deps.Manager)

	res := env.run("show", auth, "-o", "plain")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "["+auth+"] User Authentication System")
	assert.Contains(t, res.stdout, "Status: In Development | Priority: High | 30% complete")
	assert.Contains(t, res.stdout, "Tags: security, authentication")

	res = env.run("show", auth)
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "User Authentication System")
	assert.Contains(t, res.stdout, "needs attention")
}

func TestNotFound(t *testing.T) {
	tests := [][]string{
		{"show", "PRD-missing"},
		{"status", "PRD-missing", "approved"},
		{"progress", "PRD-missing", "50"},
		{"priority", "PRD-missing", "high"},
		{"tag", "PRD-missing", "ui"},
		{"edit", "PRD-missing", "--title", "x"},
	}

	for _, args := range tests {
		t.Run(args[0], func(t *testing.T) {
			env := newTestEnv(t)
			seedManager(env.deps.Manager)
			before, err := env.deps.Manager.ExportToJSON()
			require.NoError(t, err)

			res := env.run(append(args, "-o", "json")...)

			assertCLIError(t, res.err, "PRD_NOT_FOUND")
			assert.True(t, errors.Is(res.err, entities.ErrPRDNotFound))
			assert.Contains(t, res.stderr, `"code": "PRD_NOT_FOUND"`)
			assert.Empty(t, res.stdout)

			after, err := env.deps.Manager.ExportToJSON()
			require.NoError(t, err)
			assert.Equal(t, before, after)
		})
	}
}

func TestStatusCommand(t *testing.T) {
	env := newTestEnv(t)
	_, api, _ := seedManager(env.deps.Manager)

	for _, input := range []string{"in_review", "Approved", "in-development", "4"} {
		res := env.run("status", api, input)
		require.NoError(t, res.err, input)
	}

	prd, _ := env.deps.Manager.GetPRD(api)
	assert.Equal(t, entities.StatusTesting, prd.Status)

	res := env.run("status", api, "shipped")
	assertCLIError(t, res.err, "INVALID_ARGUMENT")
	assert.Equal(t, entities.StatusTesting, prd.Status)
}

func TestProgressCommand(t *testing.T) {
	env := newTestEnv(t)
	auth, _, _ := seedManager(env.deps.Manager)

	tests := []struct {
		input string
		want  int
	}{
		{"65", 65},
		{"80%", 80},
		{"150", 100},
		{"-10", 0},
	}

	for _, tt := range tests {
		res := env.run("progress", "-o", "plain", "--", auth, tt.input)
		require.NoError(t, res.err, tt.input)

		prd, _ := env.deps.Manager.GetPRD(auth)
		assert.Equal(t, tt.want, prd.CompletionPercentage, tt.input)
	}

	res := env.run("progress", auth, "half")
	assertCLIError(t, res.err, "INVALID_ARGUMENT")
}

func TestPriorityCommand(t *testing.T) {
	env := newTestEnv(t)
	_, _, theme := seedManager(env.deps.Manager)

	res := env.run("priority", theme, "crit", "-o", "plain")
	require.NoError(t, res.err)
	assert.Equal(t, theme+" priority set to Critical\n", res.stdout)

	prd, _ := env.deps.Manager.GetPRD(theme)
	assert.Equal(t, entities.PriorityCritical, prd.Priority)
}

func TestTagCommand(t *testing.T) {
	env := newTestEnv(t)
	_, _, theme := seedManager(env.deps.Manager)

	res := env.run("tag", theme, "  Theme ", "UI", "design", "-o", "plain")
	require.NoError(t, res.err)
	assert.Equal(t, theme+" tags: ui, theme, design\n", res.stdout)
}

func TestEditCommand(t *testing.T) {
	env := newTestEnv(t)
	auth, _, _ := seedManager(env.deps.Manager)

	res := env.run("edit", auth, "--title", "SSO Login", "-o", "json")
	require.NoError(t, res.err)

	prd := decodePRD(t, res.stdout)
	assert.Equal(t, "SSO Login", prd.Title)
	assert.Equal(t, "Implement secure login", prd.Description)
	assert.Equal(t, "Dev Team", prd.Author)

	res = env.run("edit", auth, "--description", "", "-a", "Identity Team", "-o", "json")
	require.NoError(t, res.err)

	prd = decodePRD(t, res.stdout)
	assert.Equal(t, "SSO Login", prd.Title)
	assert.Empty(t, prd.Description)
	assert.Equal(t, "Identity Team", prd.Author)

	res = env.run("edit", auth)
	assert.Error(t, res.err)
}

func TestListCommand(t *testing.T) {
	env := newTestEnv(t)
	auth, api, theme := seedManager(env.deps.Manager)

	ids := func(prds []entities.PRD) []string {
		result := make([]string, 0, len(prds))
		for _, prd := range prds {
			result = append(result, prd.ID)
		}
		return result
	}

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"all", nil, []string{auth, api, theme}},
		{"by status", []string{"--status", "implemented"}, []string{theme}},
		{"by priority", []string{"-p", "critical"}, []string{api}},
		{"by tag", []string{"-t", "SECURITY"}, []string{auth, api}},
		{"combined", []string{"-t", "security", "-s", "draft"}, []string{api}},
		{"no match", []string{"-s", "archived"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"list", "-o", "json"}, tt.args...)
			res := env.run(args...)
			require.NoError(t, res.err)
			assert.Equal(t, tt.want, ids(decodeList(t, res.stdout)))
		})
	}

	res := env.run("list", "--status", "unknown")
	assertCLIError(t, res.err, "INVALID_ARGUMENT")
}

func TestListCommand_Table(t *testing.T) {
	env := newTestEnv(t)

	res := env.run("list")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "No PRDs found.")

	seedManager(env.deps.Manager)
	res = env.run("list")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Dark Mode Theme")
	assert.Contains(t, res.stdout, "Total: 3 PRDs")
}

func TestSearchCommand(t *testing.T) {
	env := newTestEnv(t)
	auth, api, _ := seedManager(env.deps.Manager)

	res := env.run("search", "SECURE", "-o", "json")
	require.NoError(t, res.err)
	found := decodeList(t, res.stdout)
	require.Len(t, found, 1)
	assert.Equal(t, auth, found[0].ID)

	res = env.run("search", "security", "-o", "json")
	require.NoError(t, res.err)
	found = decodeList(t, res.stdout)
	require.Len(t, found, 2)
	assert.Equal(t, api, found[1].ID)

	res = env.run("search", "-o", "json")
	require.NoError(t, res.err)
	assert.Len(t, decodeList(t, res.stdout), 3)
}

func TestAttentionCommand(t *testing.T) {
	env := newTestEnv(t)
	auth, api, _ := seedManager(env.deps.Manager)

	res := env.run("attention", "-o", "json")
	require.NoError(t, res.err)

	found := decodeList(t, res.stdout)
	require.Len(t, found, 2)
	assert.Equal(t, auth, found[0].ID)
	assert.Equal(t, api, found[1].ID)
}

func TestStatsCommand(t *testing.T) {
	env := newTestEnv(t)
	seedManager(env.deps.Manager)

	res := env.run("stats", "-o", "json")
	require.NoError(t, res.err)

	var out struct {
		Analytics       entities.Analytics       `json:"analytics"`
		CompletionStats entities.CompletionStats `json:"completion_stats"`
		MostUsedTags    []entities.CountEntry    `json:"most_used_tags"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &out))

	assert.Equal(t, 3, out.Analytics.TotalPRDs)
	assert.Equal(t, 1, out.Analytics.StatusCounts["In Development"])
	assert.Equal(t, 1, out.Analytics.PriorityCounts["Critical"])
	assert.InDelta(t, 130.0/3, out.Analytics.AverageCompletion, 1e-9)
	assert.Equal(t, entities.CompletionStats{Min: 0, Max: 100, Average: 130.0 / 3}, out.CompletionStats)
	require.NotEmpty(t, out.MostUsedTags)
	assert.Equal(t, entities.CountEntry{Key: "security", Count: 2}, out.MostUsedTags[0])

	res = env.run("stats")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Status Distribution")
	assert.Contains(t, res.stdout, "Priority Distribution")
}

func TestReportCommand(t *testing.T) {
	env := newTestEnv(t)
	seedManager(env.deps.Manager)

	res := env.run("report", "-o", "json")
	require.NoError(t, res.err)

	var progress map[string]float64
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &progress))
	assert.Len(t, progress, len(entities.AllStatuses()))
	assert.InDelta(t, 30.0, progress["InDevelopment"], 1e-9)
	assert.InDelta(t, 100.0, progress["Implemented"], 1e-9)
	assert.InDelta(t, 0.0, progress["Archived"], 1e-9)

	res = env.run("report", "-o", "plain")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "In Development: 30.0%\n")
}

func TestDashboardCommand(t *testing.T) {
	env := newTestEnv(t)
	_, _, theme := seedManager(env.deps.Manager)
	time.Sleep(2 * time.Millisecond)
	env.deps.Manager.UpdatePRDCompletion(theme, 100)

	res := env.run("dashboard")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "PRD MANAGEMENT SYSTEM - DASHBOARD")
	assert.Contains(t, res.stdout, "Total PRDs: 3")
	assert.Contains(t, res.stdout, "Needs Attention")
	assert.Contains(t, res.stdout, "Recent PRDs")
	assert.Contains(t, res.stdout, "Top Authors")

	res = env.run("dashboard", "-l", "1", "-o", "json")
	require.NoError(t, res.err)

	var dashboard struct {
		Recent    []entities.PRD `json:"recent"`
		Attention []entities.PRD `json:"needs_attention"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &dashboard))
	require.Len(t, dashboard.Recent, 1)
	assert.Equal(t, theme, dashboard.Recent[0].ID)
	assert.Len(t, dashboard.Attention, 2)
}

func TestExportImportRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	seedManager(env.deps.Manager)
	path := filepath.Join(t.TempDir(), "out", "prds.json")

	res := env.run("export", "--file", path, "-o", "plain")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Exported 3 PRDs to "+path)

	target := newTestEnv(t)
	res = target.run("import", path, "-o", "plain")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Imported 3 PRDs")

	want, err := env.deps.Manager.ExportToJSON()
	require.NoError(t, err)
	got, err := target.deps.Manager.ExportToJSON()
	require.NoError(t, err)
	assert.JSONEq(t, want, got)
}

func TestExportCommand_Stdout(t *testing.T) {
	env := newTestEnv(t)
	seedManager(env.deps.Manager)

	res := env.run("export")
	require.NoError(t, res.err)

	var records []map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &records))
	require.Len(t, records, 3)
	assert.Equal(t, "InDevelopment", records[0]["status"])
	assert.Equal(t, "High", records[0]["priority"])

	res = env.run("export", "--format", "csv")
	require.NoError(t, res.err)
	rows, err := csv.NewReader(strings.NewReader(res.stdout)).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 4)

	res = env.run("export", "-f", "md", "--title", "Quarterly PRDs")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "# Quarterly PRDs")

	res = env.run("export", "-f", "pdf")
	assertCLIError(t, res.err, "INVALID_ARGUMENT")
}

func TestImportCommand_Malformed(t *testing.T) {
	env := newTestEnv(t)
	seedManager(env.deps.Manager)
	before, err := env.deps.Manager.ExportToJSON()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id": "PRD-1", "status": "Shipped"}]`), 0o600))

	res := env.run("import", path)

	assertCLIError(t, res.err, "IMPORT_FAILED")
	assert.ErrorIs(t, res.err, entities.ErrMalformedImport)

	after, err := env.deps.Manager.ExportToJSON()
	require.NoError(t, err)
	assert.Equal(t, before, after)

	res = env.run("import", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, res.err)
}

func TestSeedCommand(t *testing.T) {
	env := newTestEnv(t)

	res := env.run("seed", "-o", "plain")
	require.NoError(t, res.err)
	assert.Equal(t, "Added 10 sample PRDs (10 total)\n", res.stdout)

	path := filepath.Join(t.TempDir(), "samples.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
- title: Offline Mode
  author: Mobile Team
  tags: [mobile]
  status: testing
  completion: 70
`), 0o600))

	res = env.run("seed", path, "-o", "plain")
	require.NoError(t, res.err)
	assert.Equal(t, 11, env.deps.Manager.Count())

	offline := env.deps.Manager.GetPRDsByTag("mobile")
	require.NotEmpty(t, offline)
	last := offline[len(offline)-1]
	assert.Equal(t, "Offline Mode", last.Title)
	assert.Equal(t, entities.StatusTesting, last.Status)
	assert.Equal(t, 70, last.CompletionPercentage)
}

func TestDemoCommand(t *testing.T) {
	env := newTestEnv(t)

	res := env.run("demo")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "PRD MANAGEMENT SYSTEM - DASHBOARD")
	assert.Contains(t, res.stdout, "Total PRDs: 10")
	assert.Contains(t, res.stdout, `Search results for "security"`)
	assert.Equal(t, 10, env.deps.Manager.Count())
}

func TestConfigCommands(t *testing.T) {
	env := newTestEnv(t)
	configMgr := newConfigMock(testConfig())
	configMgr.On("Get", "cli.output_format").Return("table", nil)
	configMgr.On("Set", "storage.backup_count", "5").Return(nil)
	configMgr.On("Set", "cli.recent_limit", "many").Return(errors.New("invalid value for cli.recent_limit"))
	env.deps.ConfigMgr = configMgr

	res := env.run("config", "get", "cli.output_format")
	require.NoError(t, res.err)
	assert.Equal(t, "cli.output_format: table\n", res.stdout)

	res = env.run("config", "set", "storage.backup_count", "5")
	require.NoError(t, res.err)
	assert.Equal(t, "Configuration updated: storage.backup_count = 5\n", res.stdout)

	res = env.run("config", "set", "cli.recent_limit", "many")
	require.Error(t, res.err)
	assert.Contains(t, res.stderr, "invalid value")

	res = env.run("config", "list")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Data File:     (in memory)")
	assert.Contains(t, res.stdout, "Priority:  Medium")

	configMgr.AssertExpectations(t)
}

func TestConfigResetCommand(t *testing.T) {
	env := newTestEnv(t)
	configMgr := newConfigMock(testConfig())
	configMgr.On("Reset").Return(nil).Twice()
	env.deps.ConfigMgr = configMgr

	res := env.runWithInput("n\n", "config", "reset")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Cancelled")
	configMgr.AssertNotCalled(t, "Reset")

	res = env.runWithInput("y\n", "config", "reset")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Configuration reset to defaults")

	res = env.run("config", "reset", "--force")
	require.NoError(t, res.err)
	assert.NotContains(t, res.stdout, "[y/N]")
	configMgr.AssertNumberOfCalls(t, "Reset", 2)
}
