package main

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atelier/api/internal/app"
	"atelier/api/internal/auth"
	"atelier/api/internal/cmsclient"
	"atelier/api/internal/form"
	"atelier/api/internal/store"
)

const adminEmail = "editor@example.com"

func newAPI(t *testing.T) *httptest.Server {
	t.Helper()
	backend, err := store.OpenBadger(store.InMemoryDir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })

	svc := app.NewService(app.Options{Content: store.NewContentStore(backend)})
	srv := httptest.NewServer(app.NewHTTPServer(svc, auth.NewGate([]string{adminEmail}, false, ""), "*", nil).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func run(t *testing.T, srv *httptest.Server, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(strings.NewReader(stdin), &out)
	cmd.SetArgs(append([]string{"--api-url", srv.URL, "--identity", adminEmail}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestPutGetListDelete(t *testing.T) {
	srv := newAPI(t)

	out, err := run(t, srv, `{"title":"Poster","year":2024}`, "put", "works", "p1")
	require.NoError(t, err)
	assert.Equal(t, "saved works/p1\n", out)

	out, err = run(t, srv, "", "get", "works", "p1")
	require.NoError(t, err)
	assert.Contains(t, out, `"title": "Poster"`)
	assert.Contains(t, out, `"year": 2024`)
	assert.Contains(t, out, `"id": "p1"`)

	out, err = run(t, srv, "", "list", "works")
	require.NoError(t, err)
	assert.Contains(t, out, `"p1"`)

	out, err = run(t, srv, "", "delete", "works", "p1")
	require.NoError(t, err)
	assert.Equal(t, "deleted works/p1\n", out)

	_, err = run(t, srv, "", "get", "works", "p1")
	assert.ErrorIs(t, err, cmsclient.ErrNotFound)
}

func TestPutGeneratesIDForCollections(t *testing.T) {
	srv := newAPI(t)

	out, err := run(t, srv, `{"title":"Launch","content":"We are open."}`, "put", "news")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "saved news/"))
	id := strings.TrimSpace(strings.TrimPrefix(out, "saved news/"))
	assert.NotEmpty(t, id)

	_, err = run(t, srv, "", "get", "news", id)
	assert.NoError(t, err)
}

func TestPutSingletonFromFile(t *testing.T) {
	srv := newAPI(t)
	path := filepath.Join(t.TempDir(), "pricing.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"baseRates":[{"name":"Design"}],"basePrice":40000}`), 0o600))

	out, err := run(t, srv, "", "put", "pricing", "ignored", "--file", path)
	require.NoError(t, err)
	assert.Equal(t, "saved pricing/singleton\n", out)

	out, err = run(t, srv, "", "get", "pricing")
	require.NoError(t, err)
	assert.Contains(t, out, `"basePrice": 40000`)
}

func TestPutChecksRequiredFieldsBeforeSending(t *testing.T) {
	srv := newAPI(t)

	_, err := run(t, srv, `{"summary":"no title"}`, "put", "news", "n1")
	var verr *form.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"Title", "Body (Markdown)"}, verr.Missing)

	_, err = run(t, srv, "", "get", "news", "n1")
	assert.ErrorIs(t, err, cmsclient.ErrNotFound)
}

func TestPutRejectsNonObjects(t *testing.T) {
	srv := newAPI(t)
	_, err := run(t, srv, `[1,2]`, "put", "works", "x")
	assert.Error(t, err)
}

func TestCategoriesTable(t *testing.T) {
	srv := newAPI(t)

	out, err := run(t, srv, "", "categories")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[1], "works"))
	assert.Contains(t, lines[3], "singleton")
}

func TestWritesWithoutIdentityAreForbidden(t *testing.T) {
	srv := newAPI(t)
	var out bytes.Buffer
	cmd := newRootCmd(strings.NewReader(`{"title":"x"}`), &out)
	cmd.SetArgs([]string{"--api-url", srv.URL, "put", "works", "w1"})
	err := cmd.Execute()
	assert.ErrorIs(t, err, cmsclient.ErrForbidden)
}

func TestIdentityFromEnvironment(t *testing.T) {
	srv := newAPI(t)
	t.Setenv("CMSCTL_IDENTITY", adminEmail)
	t.Setenv("CMSCTL_API_URL", srv.URL)

	var out bytes.Buffer
	cmd := newRootCmd(strings.NewReader(`{"title":"From env"}`), &out)
	cmd.SetArgs([]string{"put", "works", "env1"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "saved works/env1\n", out.String())
}
