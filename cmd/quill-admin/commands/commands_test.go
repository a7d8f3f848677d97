// ABOUTME: Tests for the quill-admin command tree
// ABOUTME: Runs commands against an httptest content API and a temp SQLite session store

package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/2389/quill/internal/articles"
	"github.com/2389/quill/internal/session"
)

type seenRequest struct {
	Method string
	Path   string
	Query  string
	APIKey string
	Body   string
}

// contentAPI is a tiny in-memory stand-in for the content service.
type contentAPI struct {
	mu       sync.Mutex
	requests []seenRequest
	articles map[string]*articles.Article
}

func newContentAPI(t *testing.T) (*contentAPI, *httptest.Server) {
	t.Helper()
	api := &contentAPI{articles: map[string]*articles.Article{
		"hello-world": {ID: "hello-world", Title: "Hello World", Content: "<p>hi</p>", Tags: []string{"intro"}, Status: articles.StatusPublished, Date: "2026-10-01", ReadTime: 3},
		"draft-one":   {ID: "draft-one", Title: "Draft One", Tags: []string{}, Status: articles.StatusDraft, Date: "2026-10-14"},
	}}
	srv := httptest.NewServer(http.HandlerFunc(api.serve))
	t.Cleanup(srv.Close)
	return api, srv
}

func (c *contentAPI) serve(w http.ResponseWriter, r *http.Request) {
	body := new(bytes.Buffer)
	_, _ = body.ReadFrom(r.Body)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, seenRequest{
		Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery,
		APIKey: r.Header.Get("X-API-Key"), Body: body.String(),
	})

	w.Header().Set("Content-Type", "application/json")
	id := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, "/api/articles"), "/")

	switch {
	case r.Method == http.MethodGet && id == "":
		var list []*articles.Article
		for _, key := range []string{"hello-world", "draft-one"} {
			a, ok := c.articles[key]
			if !ok {
				continue
			}
			if s := r.URL.Query().Get("status"); s != "" && string(a.Status) != s {
				continue
			}
			list = append(list, a)
		}
		if list == nil {
			list = []*articles.Article{}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "articles": list, "total": len(list)})
	case c.articles[id] == nil:
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "Article not found"})
	case r.Method == http.MethodGet:
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "article": c.articles[id]})
	case r.Method == http.MethodPut:
		var u articles.Update
		_ = json.Unmarshal(body.Bytes(), &u)
		if u.Status != nil {
			c.articles[id].Status = *u.Status
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "article": c.articles[id]})
	case r.Method == http.MethodDelete:
		delete(c.articles, id)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "message": "Article deleted"})
	}
}

func (c *contentAPI) seen() []seenRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]seenRequest(nil), c.requests...)
}

// runAdmin executes quill-admin with args and returns stdout.
func runAdmin(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func noConfig(t *testing.T) {
	t.Helper()
	t.Setenv("QUILL_CONFIG", filepath.Join(t.TempDir(), "absent.toml"))
	t.Setenv("API_KEY", "")
}

func TestList(t *testing.T) {
	noConfig(t)
	api, srv := newContentAPI(t)

	out, err := runAdmin(t, "", "list", "--api-url", srv.URL+"/api/articles", "--api-key", "k1")
	require.NoError(t, err)
	assert.Contains(t, out, "hello-world")
	assert.Contains(t, out, "draft-one")
	assert.Contains(t, out, "2 of 2 shown")

	reqs := api.seen()
	require.Len(t, reqs, 1)
	assert.Equal(t, "k1", reqs[0].APIKey)
	assert.Empty(t, reqs[0].Query)
}

func TestList_StatusFilterAndYAML(t *testing.T) {
	noConfig(t)
	api, srv := newContentAPI(t)

	out, err := runAdmin(t, "", "list", "--status", "draft", "-o", "yaml", "--api-url", srv.URL+"/api/articles")
	require.NoError(t, err)

	var got []articles.Article
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "draft-one", got[0].ID)
	assert.Equal(t, "status=draft", api.seen()[0].Query)
	assert.Empty(t, api.seen()[0].APIKey)
}

func TestList_RejectsUnknownStatus(t *testing.T) {
	noConfig(t)
	api, srv := newContentAPI(t)

	_, err := runAdmin(t, "", "list", "--status", "archived", "--api-url", srv.URL+"/api/articles")
	assert.ErrorContains(t, err, "unknown status")
	assert.Empty(t, api.seen())
}

func TestShow(t *testing.T) {
	noConfig(t)
	_, srv := newContentAPI(t)

	out, err := runAdmin(t, "", "show", "hello-world", "--api-url", srv.URL+"/api/articles")
	require.NoError(t, err)
	assert.Contains(t, out, "Hello World")
	assert.Contains(t, out, "3 min")
	assert.NotContains(t, out, "<p>hi</p>")

	out, err = runAdmin(t, "", "show", "hello-world", "--content", "--api-url", srv.URL+"/api/articles")
	require.NoError(t, err)
	assert.Contains(t, out, "<p>hi</p>")
}

func TestShow_NotFound(t *testing.T) {
	noConfig(t)
	_, srv := newContentAPI(t)

	_, err := runAdmin(t, "", "show", "nope", "--api-url", srv.URL+"/api/articles")
	assert.EqualError(t, err, "Article not found")
}

func TestShow_RequiresOneArg(t *testing.T) {
	noConfig(t)
	api, srv := newContentAPI(t)

	_, err := runAdmin(t, "", "show", "--api-url", srv.URL+"/api/articles")
	assert.Error(t, err)
	assert.Empty(t, api.seen())
}

func TestPublish(t *testing.T) {
	noConfig(t)
	api, srv := newContentAPI(t)

	out, err := runAdmin(t, "", "publish", "draft-one", "--api-url", srv.URL+"/api/articles")
	require.NoError(t, err)
	assert.Contains(t, out, "Published draft-one")

	reqs := api.seen()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPut, reqs[0].Method)
	assert.Equal(t, "/api/articles/draft-one", reqs[0].Path)
	assert.JSONEq(t, `{"status":"published"}`, reqs[0].Body)
}

func TestDelete_ConfirmsFirst(t *testing.T) {
	noConfig(t)
	api, srv := newContentAPI(t)

	out, err := runAdmin(t, "n\n", "delete", "draft-one", "--api-url", srv.URL+"/api/articles")
	require.NoError(t, err)
	assert.Contains(t, out, "Aborted.")
	assert.Empty(t, api.seen())

	out, err = runAdmin(t, "y\n", "delete", "draft-one", "--api-url", srv.URL+"/api/articles")
	require.NoError(t, err)
	assert.Contains(t, out, "Article deleted")

	_, err = runAdmin(t, "", "delete", "hello-world", "--yes", "--api-url", srv.URL+"/api/articles")
	require.NoError(t, err)

	reqs := api.seen()
	require.Len(t, reqs, 2)
	assert.Equal(t, http.MethodDelete, reqs[1].Method)
	assert.Equal(t, "/api/articles/hello-world", reqs[1].Path)
}

func TestConfigFile(t *testing.T) {
	api, srv := newContentAPI(t)
	path := filepath.Join(t.TempDir(), "quill.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[api]
url = "`+srv.URL+`/api/articles"
api_key = "from-file"
`), 0600))

	_, err := runAdmin(t, "", "list", "--config", path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", api.seen()[0].APIKey)

	_, err = runAdmin(t, "", "list", "--config", path, "--api-key", "from-flag")
	require.NoError(t, err)
	assert.Equal(t, "from-flag", api.seen()[1].APIKey)
}

func TestMissingConfigWithoutURL(t *testing.T) {
	noConfig(t)
	_, err := runAdmin(t, "", "list")
	assert.ErrorContains(t, err, "reading config file")
}

func TestBadOutputFormat(t *testing.T) {
	noConfig(t)
	_, err := runAdmin(t, "", "list", "-o", "xml", "--api-url", "http://localhost:1")
	assert.ErrorContains(t, err, "unknown output format")
}

func writeSessionsConfig(t *testing.T, backend, dbPath string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "quill.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[api]
url = "http://localhost:3001/api/articles"

[sessions]
backend = "`+backend+`"
path = "`+dbPath+`"
`), 0600))
	return path
}

func TestSessions_ListAndClear(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "sessions.db")
	store, err := session.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	title := "Half written"
	require.NoError(t, store.Set(context.Background(), "@alice:example.org", &session.Session{
		State: session.StateAwaitingTags,
		Draft: session.Draft{Title: &title},
	}))
	require.NoError(t, store.Close())

	cfgPath := writeSessionsConfig(t, "sqlite", dbPath)

	out, err := runAdmin(t, "", "sessions", "list", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "@alice:example.org")
	assert.Contains(t, out, "awaiting_tags")
	assert.Contains(t, out, "Half written")

	out, err = runAdmin(t, "", "sessions", "list", "--config", cfgPath, "-o", "yaml")
	require.NoError(t, err)
	var listed []map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "@alice:example.org", listed[0]["user_id"])
	assert.Equal(t, "awaiting_tags", listed[0]["state"])

	_, err = runAdmin(t, "", "sessions", "clear", "@alice:example.org", "--config", cfgPath)
	require.NoError(t, err)

	out, err = runAdmin(t, "", "sessions", "list", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "(no active sessions)")
}

func TestSessions_MemoryBackendRefused(t *testing.T) {
	cfgPath := writeSessionsConfig(t, "memory", "")

	_, err := runAdmin(t, "", "sessions", "list", "--config", cfgPath)
	assert.ErrorContains(t, err, "only sqlite sessions")
}

func TestSessions_DBFlagWithoutConfigOrAPI(t *testing.T) {
	noConfig(t)
	dbPath := filepath.Join(t.TempDir(), "sessions.db")
	store, err := session.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Set(context.Background(), "@bob:example.org", &session.Session{
		State: session.StateAwaitingContent,
	}))
	require.NoError(t, store.Close())

	out, err := runAdmin(t, "", "sessions", "list", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "@bob:example.org")

	_, err = runAdmin(t, "", "sessions", "clear", "@bob:example.org", "--db", dbPath, "--api-url", "http://localhost:1")
	require.NoError(t, err)

	out, err = runAdmin(t, "", "sessions", "list", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "(no active sessions)")
}

func TestSessions_ConfigWithoutAPISection(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "sessions.db")
	path := filepath.Join(t.TempDir(), "quill.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[sessions]
backend = "sqlite"
path = "`+dbPath+`"
`), 0600))

	out, err := runAdmin(t, "", "sessions", "list", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "(no active sessions)")
}

func TestSessions_MissingConfigWithoutDB(t *testing.T) {
	noConfig(t)
	_, err := runAdmin(t, "", "sessions", "list", "--api-url", "http://localhost:1")
	assert.ErrorContains(t, err, "reading config file")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
