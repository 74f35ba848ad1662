package githubapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitmeta/internal/resilience/retry"
	"gitmeta/internal/usecase/extract"
)

// newTestClient points a client at the test server with a page size small
// enough to exercise pagination and a limiter that never throttles tests.
func newTestClient(server *httptest.Server, perPage int) *Client {
	return NewClient(Config{
		BaseURL:           server.URL,
		Token:             "ghp_testtoken1234567890",
		UserAgent:         "gitmeta-test",
		PerPage:           perPage,
		RequestsPerSecond: 1000,
	})
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestResolveRepositorySendsAuthHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/widget", r.URL.Path)
		assert.Equal(t, "Bearer ghp_testtoken1234567890", r.Header.Get("Authorization"))
		assert.Equal(t, "gitmeta-test", r.Header.Get("User-Agent"))
		assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))
		writeJSON(t, w, map[string]any{
			"full_name":        "acme/widget",
			"html_url":         "https://github.com/acme/widget",
			"language":         "Go",
			"stargazers_count": 42,
			"default_branch":   "main",
			"license":          map[string]string{"spdx_id": "MIT"},
		})
	}))
	defer server.Close()

	client := newTestClient(server, 30)
	handle, err := client.ResolveRepository(context.Background(), "acme/widget")
	require.NoError(t, err)

	facts, err := handle.Facts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "acme/widget", facts.FullName)
	assert.Equal(t, "Go", facts.PrimaryLanguage)
	assert.Equal(t, 42, facts.Stars)
	assert.Equal(t, "main", facts.DefaultBranch)
	assert.Equal(t, "MIT", facts.License)
}

func TestFactsReusesResolutionPayload(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		writeJSON(t, w, map[string]any{"full_name": "acme/widget"})
	}))
	defer server.Close()

	client := newTestClient(server, 30)
	handle, err := client.ResolveRepository(context.Background(), "acme/widget")
	require.NoError(t, err)

	_, err = handle.Facts(context.Background())
	require.NoError(t, err)
	_, err = handle.Facts(context.Background())
	require.NoError(t, err)

	// Facts is served from the resolution payload.
	assert.Equal(t, 1, requests)
}

func TestResolveRepositoryNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(server, 30)
	_, err := client.ResolveRepository(context.Background(), "acme/missing")
	require.Error(t, err)

	var httpErr *retry.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
}

func TestListCommitsPaginates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/repos/acme/widget" {
			writeJSON(t, w, map[string]any{"full_name": "acme/widget"})
			return
		}
		require.Equal(t, "/repos/acme/widget/commits", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("per_page"))

		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		var batch []map[string]any
		// Two full pages, then a short page ends the listing.
		if page <= 2 {
			for i := 0; i < 2; i++ {
				batch = append(batch, map[string]any{
					"sha": fmt.Sprintf("sha-%d-%d", page, i),
					"commit": map[string]any{
						"message": "change",
						"author":  map[string]any{"name": "alice"},
					},
				})
			}
		} else {
			batch = append(batch, map[string]any{
				"sha":    "sha-last",
				"commit": map[string]any{"author": map[string]any{}},
			})
		}
		writeJSON(t, w, batch)
	}))
	defer server.Close()

	client := newTestClient(server, 2)
	handle, err := client.ResolveRepository(context.Background(), "acme/widget")
	require.NoError(t, err)

	commits, err := handle.ListCommits(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, commits, 5)
	assert.Equal(t, "sha-1-0", commits[0].SHA)
	assert.Equal(t, "alice", commits[0].Author)
	assert.Equal(t, "sha-last", commits[4].SHA)
}

func TestListCommitsHonorsLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/repos/acme/widget" {
			writeJSON(t, w, map[string]any{"full_name": "acme/widget"})
			return
		}
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		var batch []map[string]any
		for i := 0; i < 2; i++ {
			batch = append(batch, map[string]any{"sha": fmt.Sprintf("sha-%d-%d", page, i)})
		}
		writeJSON(t, w, batch)
	}))
	defer server.Close()

	client := newTestClient(server, 2)
	handle, err := client.ResolveRepository(context.Background(), "acme/widget")
	require.NoError(t, err)

	commits, err := handle.ListCommits(context.Background(), 3)
	require.NoError(t, err)
	assert.Len(t, commits, 3)
}

func TestListIssuesFiltersPullRequests(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/repos/acme/widget" {
			writeJSON(t, w, map[string]any{"full_name": "acme/widget"})
			return
		}
		require.Equal(t, "/repos/acme/widget/issues", r.URL.Path)
		assert.Equal(t, "all", r.URL.Query().Get("state"))
		writeJSON(t, w, []map[string]any{
			{
				"number": 1,
				"title":  "real issue",
				"state":  "open",
				"user":   map[string]any{"login": "alice"},
				"labels": []map[string]any{{"name": "bug"}},
			},
			{
				"number":       2,
				"title":        "actually a PR",
				"state":        "open",
				"pull_request": map[string]any{},
			},
		})
	}))
	defer server.Close()

	client := newTestClient(server, 30)
	handle, err := client.ResolveRepository(context.Background(), "acme/widget")
	require.NoError(t, err)

	issues, err := handle.ListIssues(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, 1, issues[0].Number)
	assert.Equal(t, "alice", issues[0].Author)
	assert.Equal(t, []string{"bug"}, issues[0].Labels)
}

func TestListPullRequestsMergedFlag(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/repos/acme/widget" {
			writeJSON(t, w, map[string]any{"full_name": "acme/widget"})
			return
		}
		writeJSON(t, w, []map[string]any{
			{"number": 1, "state": "closed", "merged_at": "2025-03-01T12:00:00Z"},
			{"number": 2, "state": "closed"},
		})
	}))
	defer server.Close()

	client := newTestClient(server, 30)
	handle, err := client.ResolveRepository(context.Background(), "acme/widget")
	require.NoError(t, err)

	pulls, err := handle.ListPullRequests(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, pulls, 2)
	assert.True(t, pulls[0].Merged)
	assert.False(t, pulls[1].Merged)
}

func TestFileContentsDecodesBase64(t *testing.T) {
	content := base64.StdEncoding.EncodeToString([]byte(`{"name":"widget"}`))
	// GitHub wraps base64 payloads at 60 columns.
	wrapped := content[:8] + "\n" + content[8:]

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/repos/acme/widget" {
			writeJSON(t, w, map[string]any{"full_name": "acme/widget", "default_branch": "main"})
			return
		}
		require.Equal(t, "/repos/acme/widget/contents/package.json", r.URL.Path)
		assert.Equal(t, "main", r.URL.Query().Get("ref"))
		writeJSON(t, w, map[string]any{"content": wrapped, "encoding": "base64"})
	}))
	defer server.Close()

	client := newTestClient(server, 30)
	handle, err := client.ResolveRepository(context.Background(), "acme/widget")
	require.NoError(t, err)

	text, err := handle.FileContents(context.Background(), "package.json", "main")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"widget"}`, string(text))
}

func TestFileContentsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/repos/acme/widget" {
			writeJSON(t, w, map[string]any{"full_name": "acme/widget"})
			return
		}
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(server, 30)
	handle, err := client.ResolveRepository(context.Background(), "acme/widget")
	require.NoError(t, err)

	_, err = handle.FileContents(context.Background(), "Pipfile", "main")
	assert.ErrorIs(t, err, extract.ErrFileNotFound)
}

func TestCommitDetailParents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/repos/acme/widget" {
			writeJSON(t, w, map[string]any{"full_name": "acme/widget"})
			return
		}
		require.Equal(t, "/repos/acme/widget/commits/abc123", r.URL.Path)
		writeJSON(t, w, map[string]any{
			"sha":     "abc123",
			"parents": []map[string]any{{"sha": "p1"}, {"sha": "p2"}},
			"stats":   map[string]any{"additions": 10, "deletions": 3},
			"files": []map[string]any{
				{"filename": "main.go", "additions": 10, "deletions": 3},
			},
		})
	}))
	defer server.Close()

	client := newTestClient(server, 30)
	handle, err := client.ResolveRepository(context.Background(), "acme/widget")
	require.NoError(t, err)

	detail, err := handle.CommitDetail(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, detail.Parents)
	assert.Equal(t, 10, detail.Additions)
	require.Len(t, detail.Files, 1)
	assert.Equal(t, "main.go", detail.Files[0].Path)
}

func TestLicenseFallsBackToLicenseEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/acme/widget":
			// No license in the resolution payload.
			writeJSON(t, w, map[string]any{"full_name": "acme/widget"})
		case "/repos/acme/widget/license":
			writeJSON(t, w, map[string]any{"license": map[string]string{"spdx_id": "Apache-2.0"}})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := newTestClient(server, 30)
	handle, err := client.ResolveRepository(context.Background(), "acme/widget")
	require.NoError(t, err)

	license, err := handle.License(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Apache-2.0", license)
}

func TestLicenseNotDetectedIsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/repos/acme/widget" {
			writeJSON(t, w, map[string]any{"full_name": "acme/widget"})
			return
		}
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(server, 30)
	handle, err := client.ResolveRepository(context.Background(), "acme/widget")
	require.NoError(t, err)

	license, err := handle.License(context.Background())
	require.NoError(t, err)
	assert.Empty(t, license)
}

func TestServerErrorBecomesHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(server, 30)
	_, err := client.ResolveRepository(context.Background(), "acme/widget")

	var httpErr *retry.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadGateway, httpErr.StatusCode)
}

func TestListIssuesEmptyResultIsNonNilSlice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/repos/acme/widget" {
			writeJSON(t, w, map[string]any{"full_name": "acme/widget"})
			return
		}
		writeJSON(t, w, []map[string]any{})
	}))
	defer server.Close()

	client := newTestClient(server, 30)
	handle, err := client.ResolveRepository(context.Background(), "acme/widget")
	require.NoError(t, err)

	issues, err := handle.ListIssues(context.Background(), 10)
	require.NoError(t, err)
	require.NotNil(t, issues)
	assert.Empty(t, issues)
}
