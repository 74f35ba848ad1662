package orchestrate

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitmeta/internal/domain/entity"
)

// stubExtractor lets each operation be overridden per test; unset
// operations return well-formed empty results.
type stubExtractor struct {
	repositoryErr error
	commitsErr    error
	issuesErr     error

	commits []entity.Commit
	issues  []entity.Issue
	pulls   []entity.PullRequest

	upstreamCalls atomic.Int64
}

func (s *stubExtractor) Repository(ctx context.Context, target string) (*entity.RepositoryFacts, error) {
	s.upstreamCalls.Add(1)
	if s.repositoryErr != nil {
		return nil, s.repositoryErr
	}
	return &entity.RepositoryFacts{
		FullName:      "acme/widget",
		URL:           "https://github.com/acme/widget",
		Stars:         42,
		DefaultBranch: "main",
	}, nil
}

func (s *stubExtractor) Commits(ctx context.Context, target string, limit int) ([]entity.Commit, error) {
	s.upstreamCalls.Add(1)
	return s.commits, s.commitsErr
}

func (s *stubExtractor) Issues(ctx context.Context, target string, limit int) ([]entity.Issue, error) {
	s.upstreamCalls.Add(1)
	return s.issues, s.issuesErr
}

func (s *stubExtractor) PullRequests(ctx context.Context, target string, limit int) ([]entity.PullRequest, error) {
	s.upstreamCalls.Add(1)
	return s.pulls, nil
}

func (s *stubExtractor) Contributors(ctx context.Context, target string, limit int) ([]entity.Contributor, error) {
	s.upstreamCalls.Add(1)
	return []entity.Contributor{{Login: "alice", Contributions: 10}}, nil
}

func (s *stubExtractor) Dependencies(ctx context.Context, target string) ([]entity.Dependency, error) {
	s.upstreamCalls.Add(1)
	return nil, nil
}

func (s *stubExtractor) ForkLineage(ctx context.Context, target string) (*entity.ForkLineage, error) {
	s.upstreamCalls.Add(1)
	return &entity.ForkLineage{}, nil
}

func (s *stubExtractor) CommitLineage(ctx context.Context, target string, commits []entity.Commit) ([]entity.CommitLineage, error) {
	s.upstreamCalls.Add(1)
	lineage := make([]entity.CommitLineage, 0, len(commits))
	for _, c := range commits {
		lineage = append(lineage, entity.CommitLineage{SHA: c.SHA})
	}
	return lineage, nil
}

func (s *stubExtractor) ReleaseCadence(ctx context.Context, target string) (*entity.ReleaseCadence, error) {
	s.upstreamCalls.Add(1)
	return &entity.ReleaseCadence{}, nil
}

func (s *stubExtractor) BusFactor(commits []entity.Commit) *entity.BusFactor {
	return &entity.BusFactor{TotalCommits: len(commits)}
}

func (s *stubExtractor) PRMetrics(pulls []entity.PullRequest) *entity.PRMetrics {
	return &entity.PRMetrics{Total: len(pulls)}
}

func (s *stubExtractor) IssueMetrics(issues []entity.Issue) *entity.IssueMetrics {
	return &entity.IssueMetrics{Total: len(issues)}
}

func (s *stubExtractor) CommitActivity(commits []entity.Commit) *entity.CommitActivity {
	return &entity.CommitActivity{ByWeek: map[string]int{}, ByMonth: map[string]int{}}
}

type stubStore struct {
	saveErr   error
	saved     map[string]any
	saveCalls int
}

func (s *stubStore) Save(ctx context.Context, document map[string]any, target, extractionID string) (string, error) {
	s.saveCalls++
	if s.saveErr != nil {
		return "", s.saveErr
	}
	s.saved = document
	return "/tmp/acme_widget_metadata.json", nil
}

func fullRequest() entity.ExtractionRequest {
	return entity.ExtractionRequest{
		Target:     "acme/widget",
		Selections: entity.DefaultSelections(),
	}
}

func TestRunFullExtraction(t *testing.T) {
	extractor := &stubExtractor{
		commits: []entity.Commit{{SHA: "abc", Author: "alice"}},
		issues:  []entity.Issue{{Number: 1, State: "open"}},
		pulls:   []entity.PullRequest{{Number: 2, State: "closed"}},
	}
	store := &stubStore{}
	svc := NewService(extractor, store, "1", nil)

	result, err := svc.Run(context.Background(), fullRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, result.ExtractionID)
	assert.Empty(t, result.FailedOps)
	assert.Equal(t, "/tmp/acme_widget_metadata.json", result.Location)

	// Repository facts are flattened into top-level keys.
	assert.Equal(t, "acme/widget", result.Document["repository"])
	assert.Equal(t, float64(42), result.Document["stars"])

	commits, ok := result.Document[entity.FactCommits].([]entity.Commit)
	require.True(t, ok)
	assert.Len(t, commits, 1)

	busFactor, ok := result.Document[entity.FactBusFactor].(*entity.BusFactor)
	require.True(t, ok)
	assert.Equal(t, 1, busFactor.TotalCommits)

	provenance, ok := result.Document["extraction_provenance"].(entity.Provenance)
	require.True(t, ok)
	assert.Equal(t, result.ExtractionID, provenance.ExtractionID)
	assert.Equal(t, "1", provenance.SchemaVersion)
	assert.Equal(t, "github", provenance.Source)

	assert.Equal(t, store.saved, result.Document)
}

func TestRunValidationShortCircuits(t *testing.T) {
	extractor := &stubExtractor{}
	store := &stubStore{}
	svc := NewService(extractor, store, "1", nil)

	tests := []struct {
		name    string
		req     entity.ExtractionRequest
		wantErr error
	}{
		{
			name:    "empty target",
			req:     entity.ExtractionRequest{Selections: entity.DefaultSelections()},
			wantErr: entity.ErrEmptyTarget,
		},
		{
			name:    "no selections",
			req:     entity.ExtractionRequest{Target: "acme/widget"},
			wantErr: entity.ErrEmptySelection,
		},
		{
			name: "all selections false",
			req: entity.ExtractionRequest{
				Target:     "acme/widget",
				Selections: map[string]bool{entity.FactCommits: false},
			},
			wantErr: entity.ErrEmptySelection,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Run(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	// Validation failures never reach the extractor or the store.
	assert.Equal(t, int64(0), extractor.upstreamCalls.Load())
	assert.Equal(t, 0, store.saveCalls)
}

func TestRunRepositoryFailureIsFatal(t *testing.T) {
	extractor := &stubExtractor{repositoryErr: errors.New("boom")}
	store := &stubStore{}
	svc := NewService(extractor, store, "1", nil)

	_, err := svc.Run(context.Background(), fullRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "repository facts")
	assert.Equal(t, 0, store.saveCalls)
}

func TestRunFailedOperationGetsTypedEmptyDefault(t *testing.T) {
	extractor := &stubExtractor{
		commitsErr: errors.New("listing failed"),
		issues:     []entity.Issue{{Number: 1, State: "open"}},
	}
	store := &stubStore{}
	svc := NewService(extractor, store, "1", nil)

	result, err := svc.Run(context.Background(), fullRequest())
	require.NoError(t, err)

	assert.Contains(t, result.FailedOps, entity.FactCommits)
	assert.NotContains(t, result.FailedOps, entity.FactIssues)

	// The failed fact is present as a typed empty slice, not omitted.
	commits, ok := result.Document[entity.FactCommits].([]entity.Commit)
	require.True(t, ok)
	assert.Empty(t, commits)

	// Derived facts consuming the absent commits still settle.
	busFactor, ok := result.Document[entity.FactBusFactor].(*entity.BusFactor)
	require.True(t, ok)
	assert.Equal(t, 0, busFactor.TotalCommits)
}

func TestRunUnselectedFactsAreOmitted(t *testing.T) {
	extractor := &stubExtractor{commits: []entity.Commit{{SHA: "abc"}}}
	store := &stubStore{}
	svc := NewService(extractor, store, "1", nil)

	result, err := svc.Run(context.Background(), entity.ExtractionRequest{
		Target: "acme/widget",
		Selections: map[string]bool{
			entity.FactRepository: true,
			entity.FactCommits:    true,
		},
	})
	require.NoError(t, err)

	assert.Contains(t, result.Document, entity.FactCommits)
	assert.NotContains(t, result.Document, entity.FactIssues)
	assert.NotContains(t, result.Document, entity.FactBusFactor)
}

func TestRunWithoutRepositorySelection(t *testing.T) {
	extractor := &stubExtractor{commits: []entity.Commit{{SHA: "abc"}}}
	store := &stubStore{}
	svc := NewService(extractor, store, "1", nil)

	result, err := svc.Run(context.Background(), entity.ExtractionRequest{
		Target:     "acme/widget",
		Selections: map[string]bool{entity.FactCommits: true},
	})
	require.NoError(t, err)

	assert.NotContains(t, result.Document, "repository")
	assert.Contains(t, result.Document, entity.FactCommits)
}

func TestRunPersistFailureIsNonFatal(t *testing.T) {
	extractor := &stubExtractor{}
	store := &stubStore{saveErr: errors.New("disk full")}
	svc := NewService(extractor, store, "1", nil)

	result, err := svc.Run(context.Background(), fullRequest())
	require.NoError(t, err)

	assert.Empty(t, result.Location)
	assert.NotEmpty(t, result.Document)
}

func TestRunReusesProvidedExtractionID(t *testing.T) {
	extractor := &stubExtractor{}
	store := &stubStore{}
	svc := NewService(extractor, store, "1", nil)

	req := fullRequest()
	req.ExtractionID = "run-0042"

	result, err := svc.Run(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "run-0042", result.ExtractionID)
}

func TestRunSummary(t *testing.T) {
	extractor := &stubExtractor{
		commits: []entity.Commit{{SHA: "a"}, {SHA: "b"}},
		issues:  []entity.Issue{{Number: 1}},
	}
	store := &stubStore{}
	svc := NewService(extractor, store, "1", nil)

	result, err := svc.Run(context.Background(), fullRequest())
	require.NoError(t, err)

	assert.Equal(t, "acme/widget", result.Summary["repository"])
	assert.Equal(t, 2, result.Summary["commits_count"])
	assert.Equal(t, 1, result.Summary["issues_count"])
	assert.Equal(t, 1, result.Summary["contributors_count"])
	assert.NotEmpty(t, result.Summary["generated_at"])
	assert.Equal(t, float64(42), result.Summary["stars"])
}

func TestHumanTimespan(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{45, "45s"},
		{200, "3m20s"},
		{8100, "2h15m"},
		{372600, "4d7h"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, humanTimespan(tt.seconds))
	}
}

func TestRunEmptyListingRendersAsEmptyArray(t *testing.T) {
	extractor := &stubExtractor{
		commits: []entity.Commit{{SHA: "abc", Author: "alice"}},
		issues:  nil,
	}
	store := &stubStore{}
	svc := NewService(extractor, store, "1", nil)

	result, err := svc.Run(context.Background(), fullRequest())
	require.NoError(t, err)
	assert.Empty(t, result.FailedOps)

	// A successful listing with zero items keeps its typed empty value,
	// indistinguishable in shape from any other successful listing.
	issues, ok := result.Document[entity.FactIssues].([]entity.Issue)
	require.True(t, ok)
	require.NotNil(t, issues)
	assert.Empty(t, issues)

	data, err := json.Marshal(result.Document)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"issues":[]`)
	assert.NotContains(t, string(data), `"issues":null`)
}
