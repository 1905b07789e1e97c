package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"glance/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, dataDir string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--backend", "file", "--data-dir", dataDir}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestGalleryListsEveryType(t *testing.T) {
	out, err := run(t, t.TempDir(), "gallery")
	require.NoError(t, err)

	for _, typ := range domain.WidgetTypes {
		assert.Contains(t, out, string(typ))
	}
}

func TestWidgetsAddListRemove(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, dir, "widgets", "add", "bookmark")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "ok: added widget-"))
	id := strings.Fields(out)[2]

	out, err = run(t, dir, "widgets", "list")
	require.NoError(t, err)
	assert.Contains(t, out, id)
	assert.Contains(t, out, "Bookmark")

	_, err = run(t, dir, "widgets", "remove", id)
	require.NoError(t, err)

	out, err = run(t, dir, "widgets", "list")
	require.NoError(t, err)
	assert.NotContains(t, out, id)
}

func TestWidgetsAddRejectsUnknownType(t *testing.T) {
	_, err := run(t, t.TempDir(), "widgets", "add", "weather")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownWidgetType)
}

func TestWidgetsExportImportRoundTrip(t *testing.T) {
	src := t.TempDir()
	_, err := run(t, src, "widgets", "add", "github-prs")
	require.NoError(t, err)
	_, err = run(t, src, "widgets", "add", "tab-groups")
	require.NoError(t, err)

	exported := filepath.Join(t.TempDir(), "widgets.yaml")
	_, err = run(t, src, "widgets", "export", "--out", exported)
	require.NoError(t, err)

	dst := t.TempDir()
	out, err := run(t, dst, "widgets", "import", exported)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "ok: imported"))

	f, err := os.Open(exported)
	require.NoError(t, err)
	defer f.Close()
	widgets, err := readWidgets(f)
	require.NoError(t, err)
	require.Len(t, widgets, 2)

	prs, ok := widgets[0].GitHubPRSettings()
	require.True(t, ok)
	assert.Equal(t, domain.PRFilterModeForm, prs.FilterMode)
	assert.Equal(t, []domain.PRType{domain.PRTypeReviewRequested}, prs.FormFilters.PRTypes)
	assert.True(t, prs.ShowBuildStatus)

	// importing the same ids twice is rejected
	_, err = run(t, dst, "widgets", "import", exported)
	assert.ErrorIs(t, err, domain.ErrInvalidWidget)

	_, err = run(t, dst, "widgets", "import", "--replace", exported)
	assert.NoError(t, err)
}

func TestReadWidgetsFillsDefaults(t *testing.T) {
	doc := `widgets:
  - type: bookmark
    name: Docs
    position: {x: 0, y: 0}
    size: {width: 1, height: 1}
    enabled: true
    settings:
      url: https://go.dev/doc
  - type: tab-groups
    name: Tabs
    position: {x: 0, y: 1}
    size: {width: 2, height: 2}
    enabled: true
    settings:
      showBookmarks: false
`
	widgets, err := readWidgets(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, widgets, 2)

	bm, ok := widgets[0].BookmarkSettings()
	require.True(t, ok)
	assert.Equal(t, "https://go.dev/doc", bm.URL)
	assert.Empty(t, widgets[0].ID)

	tabs, ok := widgets[1].TabGroupsSettings()
	require.True(t, ok)
	assert.False(t, tabs.ShowBookmarks)
	assert.True(t, tabs.GroupByDomain)
}

func TestReadWidgetsRejectsUnknownType(t *testing.T) {
	_, err := readWidgets(strings.NewReader("widgets:\n  - type: weather\n    name: Rain\n"))
	assert.ErrorIs(t, err, domain.ErrUnknownWidgetType)
}

func TestAccountsAddRequiresFlags(t *testing.T) {
	_, err := run(t, t.TempDir(), "accounts", "add", "--name", "Work")
	assert.Error(t, err)
}

func TestAccountsListEmpty(t *testing.T) {
	out, err := run(t, t.TempDir(), "accounts", "list")
	require.NoError(t, err)
	assert.Equal(t, "ID  NAME  USER  API  ENABLED  STATUS\n", out)
}
