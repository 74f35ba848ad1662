// Package extract provides the extraction operations consumed by the
// two-phase orchestrator. Every operation follows the same template:
// check the cache, resolve the repository handle under retry, invoke the
// breaker-wrapped upstream call, transform the raw result into its record
// shape, populate the cache, and return.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"gitmeta/internal/domain/entity"
	"gitmeta/internal/observability/metrics"
	"gitmeta/internal/resilience/cache"
	"gitmeta/internal/resilience/circuitbreaker"
	"gitmeta/internal/resilience/retry"
)

// Result-size caps that bound upstream API cost regardless of requested
// limits.
const (
	// ContributorCap bounds contributor listing even when the caller asks
	// for more.
	ContributorCap = 100

	// LineageCap bounds the number of commits whose parents are resolved
	// individually.
	LineageCap = 300
)

// Cache TTL policy. Listing and repository results are cheap to refresh
// and expire at the configured base TTL; lineage and dependency results
// are expensive to rebuild and keep for a multiple of it.
const (
	// DefaultCacheTTL is the base result lifetime used when Defaults
	// carries no explicit CacheTTL.
	DefaultCacheTTL = 15 * time.Minute

	lineageTTLFactor      = 2
	dependenciesTTLFactor = 4
)

// ttlPolicy holds the per-operation-class cache lifetimes derived from
// the configured base TTL.
type ttlPolicy struct {
	listing      time.Duration
	repository   time.Duration
	lineage      time.Duration
	dependencies time.Duration
}

func newTTLPolicy(base time.Duration) ttlPolicy {
	if base <= 0 {
		base = DefaultCacheTTL
	}
	return ttlPolicy{
		listing:      base,
		repository:   base,
		lineage:      lineageTTLFactor * base,
		dependencies: dependenciesTTLFactor * base,
	}
}

// manifestFilenames is the fixed set of well-known dependency manifests
// probed against the default branch. A missing file is a silent skip.
var manifestFilenames = []string{
	"package.json",
	"requirements.txt",
	"pyproject.toml",
	"Pipfile",
	"pom.xml",
}

// Hub is the upstream hosting-API collaborator. Resolving a repository
// handle is the prerequisite for every other operation.
type Hub interface {
	ResolveRepository(ctx context.Context, fullName string) (RepoHandle, error)
}

// RepoHandle is an in-memory reference to a resolved remote repository.
type RepoHandle interface {
	Facts(ctx context.Context) (*entity.RepositoryFacts, error)
	ListCommits(ctx context.Context, limit int) ([]entity.Commit, error)
	ListIssues(ctx context.Context, limit int) ([]entity.Issue, error)
	ListPullRequests(ctx context.Context, limit int) ([]entity.PullRequest, error)
	ListContributors(ctx context.Context, limit int) ([]entity.Contributor, error)
	// FileContents returns the raw bytes of a file on the given ref, or
	// ErrFileNotFound when the path does not exist.
	FileContents(ctx context.Context, path, ref string) ([]byte, error)
	CommitDetail(ctx context.Context, sha string) (*entity.CommitDetail, error)
	Languages(ctx context.Context) (map[string]int64, error)
	License(ctx context.Context) (string, error)
	ListReleases(ctx context.Context) ([]entity.Release, error)
	ListTags(ctx context.Context) ([]string, error)
}

// ManifestParser turns raw manifest text into dependency records. It is
// best-effort: malformed input yields an empty slice, never an error.
type ManifestParser interface {
	Parse(filename string, text []byte) []entity.Dependency
}

// Defaults holds the per-fact-type item caps applied when a request does
// not specify a limit, plus the base cache TTL governing how long listing
// and repository results stay fresh.
type Defaults struct {
	CommitLimit int
	IssueLimit  int
	PRLimit     int
	CacheTTL    time.Duration
}

// Service implements the extraction operations against an upstream Hub,
// sharing one cache and one circuit breaker across all of them.
type Service struct {
	hub      Hub
	cache    *cache.Cache
	breaker  *circuitbreaker.CircuitBreaker
	parser   ManifestParser
	retryCfg retry.Config
	defaults Defaults
	ttl      ttlPolicy
	logger   *slog.Logger
}

// NewService creates an extraction service.
//
// The cache and breaker are process-wide singletons constructed at startup
// and injected here so tests can build fresh instances per test.
func NewService(
	hub Hub,
	c *cache.Cache,
	breaker *circuitbreaker.CircuitBreaker,
	parser ManifestParser,
	defaults Defaults,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if defaults.CommitLimit <= 0 {
		defaults.CommitLimit = 200
	}
	if defaults.IssueLimit <= 0 {
		defaults.IssueLimit = 200
	}
	if defaults.PRLimit <= 0 {
		defaults.PRLimit = 200
	}
	return &Service{
		hub:      hub,
		cache:    c,
		breaker:  breaker,
		parser:   parser,
		retryCfg: retry.HandleResolveConfig(),
		defaults: defaults,
		ttl:      newTTLPolicy(defaults.CacheTTL),
		logger:   logger,
	}
}

// resolveHandle resolves the repository handle under the retry policy.
// This is the only upstream call that bypasses the circuit breaker.
func (s *Service) resolveHandle(ctx context.Context, target string) (RepoHandle, error) {
	fullName, err := entity.FullName(target)
	if err != nil {
		return nil, err
	}

	var handle RepoHandle
	err = retry.WithBackoff(ctx, s.retryCfg, func() error {
		h, rerr := s.hub.ResolveRepository(ctx, fullName)
		if rerr != nil {
			return rerr
		}
		handle = h
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("resolve repository handle: %w", err)
	}
	return handle, nil
}

// fetchCached runs the shared operation template: cache check, handle
// resolution, breaker-wrapped upstream fetch, cache write. A cache hit
// returns immediately without touching the breaker.
func fetchCached[T any](
	ctx context.Context,
	s *Service,
	target, operation string,
	params map[string]string,
	ttl time.Duration,
	fetch func(ctx context.Context, h RepoHandle) (T, error),
) (T, error) {
	var zero T

	if cached, ok := s.cache.Get(target, operation, params); ok {
		if value, ok := cached.(T); ok {
			metrics.RecordCacheLookup(operation, true)
			return value, nil
		}
	}
	metrics.RecordCacheLookup(operation, false)

	handle, err := s.resolveHandle(ctx, target)
	if err != nil {
		metrics.RecordOperationError(operation)
		return zero, fmt.Errorf("%s: %w", operation, err)
	}

	start := time.Now()
	result, err := s.breaker.Execute(func() (any, error) {
		return fetch(ctx, handle)
	})
	outcome := metrics.OutcomeSuccess
	if errors.Is(err, circuitbreaker.ErrOpen) {
		outcome = metrics.OutcomeRejected
	} else if err != nil {
		outcome = metrics.OutcomeFailure
	}
	metrics.RecordUpstreamCall(operation, time.Since(start), outcome)
	if err != nil {
		metrics.RecordOperationError(operation)
		if errors.Is(err, circuitbreaker.ErrOpen) {
			s.logger.Warn("upstream call rejected, circuit open",
				slog.String("operation", operation),
				slog.String("target", target))
		}
		return zero, fmt.Errorf("%s: %w", operation, err)
	}

	value, ok := result.(T)
	if !ok {
		metrics.RecordOperationError(operation)
		return zero, fmt.Errorf("%s: unexpected result type %T", operation, result)
	}

	s.cache.Set(target, operation, params, value, ttl)
	return value, nil
}

// limitOrDefault applies the configured default cap when the caller does
// not specify a positive limit.
func limitOrDefault(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	return limit
}

func limitParams(limit int) map[string]string {
	return map[string]string{"limit": strconv.Itoa(limit)}
}

// Repository extracts the top-level repository facts, enriched with the
// language byte counts (plus an estimated-LOC heuristic) and the license
// identifier. Language and license lookups are best effort.
func (s *Service) Repository(ctx context.Context, target string) (*entity.RepositoryFacts, error) {
	return fetchCached(ctx, s, target, entity.FactRepository, nil, s.ttl.repository,
		func(ctx context.Context, h RepoHandle) (*entity.RepositoryFacts, error) {
			facts, err := h.Facts(ctx)
			if err != nil {
				return nil, err
			}

			if langs, lerr := h.Languages(ctx); lerr == nil && len(langs) > 0 {
				facts.Languages = langs
				facts.LanguageLOC = estimateLanguageLOC(langs)
			} else if lerr != nil {
				s.logger.Debug("language lookup failed",
					slog.String("target", target), slog.Any("error", lerr))
			}

			if license, lerr := h.License(ctx); lerr == nil {
				facts.License = license
			} else {
				s.logger.Debug("license lookup failed",
					slog.String("target", target), slog.Any("error", lerr))
			}

			return facts, nil
		})
}

// Commits extracts recent commits from the default branch, newest first,
// up to limit items.
func (s *Service) Commits(ctx context.Context, target string, limit int) ([]entity.Commit, error) {
	limit = limitOrDefault(limit, s.defaults.CommitLimit)
	return fetchCached(ctx, s, target, entity.FactCommits, limitParams(limit), s.ttl.listing,
		func(ctx context.Context, h RepoHandle) ([]entity.Commit, error) {
			return h.ListCommits(ctx, limit)
		})
}

// Issues extracts issues in all states, up to limit items.
func (s *Service) Issues(ctx context.Context, target string, limit int) ([]entity.Issue, error) {
	limit = limitOrDefault(limit, s.defaults.IssueLimit)
	return fetchCached(ctx, s, target, entity.FactIssues, limitParams(limit), s.ttl.listing,
		func(ctx context.Context, h RepoHandle) ([]entity.Issue, error) {
			return h.ListIssues(ctx, limit)
		})
}

// PullRequests extracts pull requests in all states, up to limit items.
func (s *Service) PullRequests(ctx context.Context, target string, limit int) ([]entity.PullRequest, error) {
	limit = limitOrDefault(limit, s.defaults.PRLimit)
	return fetchCached(ctx, s, target, entity.FactPullRequests, limitParams(limit), s.ttl.listing,
		func(ctx context.Context, h RepoHandle) ([]entity.PullRequest, error) {
			return h.ListPullRequests(ctx, limit)
		})
}

// Contributors extracts the contributor list. The listing is capped at
// ContributorCap regardless of the requested limit to bound API cost.
func (s *Service) Contributors(ctx context.Context, target string, limit int) ([]entity.Contributor, error) {
	limit = limitOrDefault(limit, ContributorCap)
	if limit > ContributorCap {
		limit = ContributorCap
	}
	return fetchCached(ctx, s, target, entity.FactContributors, limitParams(limit), s.ttl.listing,
		func(ctx context.Context, h RepoHandle) ([]entity.Contributor, error) {
			return h.ListContributors(ctx, limit)
		})
}

// Dependencies probes the well-known manifest filenames on the default
// branch and parses any that exist. A missing manifest is a silent skip;
// parse failures yield no records by the parser's fail-closed contract.
func (s *Service) Dependencies(ctx context.Context, target string) ([]entity.Dependency, error) {
	return fetchCached(ctx, s, target, entity.FactDependencies, nil, s.ttl.dependencies,
		func(ctx context.Context, h RepoHandle) ([]entity.Dependency, error) {
			facts, err := h.Facts(ctx)
			if err != nil {
				return nil, err
			}
			ref := facts.DefaultBranch

			deps := make([]entity.Dependency, 0)
			for _, filename := range manifestFilenames {
				text, ferr := h.FileContents(ctx, filename, ref)
				if errors.Is(ferr, ErrFileNotFound) {
					continue
				}
				if ferr != nil {
					return nil, fmt.Errorf("fetch %s: %w", filename, ferr)
				}
				deps = append(deps, s.parser.Parse(filename, text)...)
			}
			return deps, nil
		})
}

// ForkLineage reports whether the repository is a fork and its parent and
// source identifiers.
func (s *Service) ForkLineage(ctx context.Context, target string) (*entity.ForkLineage, error) {
	return fetchCached(ctx, s, target, entity.FactForkLineage, nil, s.ttl.lineage,
		func(ctx context.Context, h RepoHandle) (*entity.ForkLineage, error) {
			facts, err := h.Facts(ctx)
			if err != nil {
				return nil, err
			}
			return &entity.ForkLineage{
				IsFork: facts.IsFork,
				Parent: facts.Parent,
				Source: facts.Source,
			}, nil
		})
}

// CommitLineage resolves the parent hashes of the given commits and flags
// merge commits. At most LineageCap commits are examined.
func (s *Service) CommitLineage(ctx context.Context, target string, commits []entity.Commit) ([]entity.CommitLineage, error) {
	examined := len(commits)
	if examined > LineageCap {
		examined = LineageCap
	}
	params := map[string]string{"count": strconv.Itoa(examined)}

	return fetchCached(ctx, s, target, entity.FactCommitLineage, params, s.ttl.lineage,
		func(ctx context.Context, h RepoHandle) ([]entity.CommitLineage, error) {
			lineage := make([]entity.CommitLineage, 0, examined)
			for _, c := range commits[:examined] {
				detail, err := h.CommitDetail(ctx, c.SHA)
				if err != nil {
					return nil, fmt.Errorf("commit %s: %w", c.SHA, err)
				}
				lineage = append(lineage, entity.CommitLineage{
					SHA:     detail.SHA,
					Parents: detail.Parents,
					IsMerge: len(detail.Parents) >= 2,
				})
			}
			return lineage, nil
		})
}

// Releases extracts the published releases, newest first.
func (s *Service) Releases(ctx context.Context, target string) ([]entity.Release, error) {
	return fetchCached(ctx, s, target, "releases", nil, s.ttl.listing,
		func(ctx context.Context, h RepoHandle) ([]entity.Release, error) {
			return h.ListReleases(ctx)
		})
}

// ReleaseCadence summarizes how often the repository ships releases, using
// the release and tag listings.
func (s *Service) ReleaseCadence(ctx context.Context, target string) (*entity.ReleaseCadence, error) {
	return fetchCached(ctx, s, target, entity.FactReleaseCadence, nil, s.ttl.lineage,
		func(ctx context.Context, h RepoHandle) (*entity.ReleaseCadence, error) {
			releases, err := h.ListReleases(ctx)
			if err != nil {
				return nil, err
			}
			tags, err := h.ListTags(ctx)
			if err != nil {
				return nil, err
			}
			return releaseCadence(releases, tags), nil
		})
}

// estimateLanguageLOC converts the upstream byte counts per language into a
// rough lines-of-code estimate, using a 50-bytes-per-line heuristic.
func estimateLanguageLOC(languages map[string]int64) map[string]int64 {
	if len(languages) == 0 {
		return nil
	}
	estimates := make(map[string]int64, len(languages))
	for lang, byteCount := range languages {
		loc := byteCount / 50
		if loc < 1 {
			loc = 1
		}
		estimates[lang] = loc
	}
	return estimates
}
