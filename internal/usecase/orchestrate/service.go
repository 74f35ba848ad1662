// Package orchestrate runs metadata extractions as a two-phase fan-out:
// base facts are extracted from the upstream API in parallel, then derived
// metrics are computed from them in a second parallel phase. Failures are
// isolated per operation; only request validation and the mandatory
// repository-facts extraction can abort a run.
package orchestrate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"gitmeta/internal/domain/entity"
	"gitmeta/internal/observability/metrics"
	"gitmeta/internal/observability/tracing"
)

// Extractor is the set of extraction operations the orchestrator schedules.
// Operations taking a context call the upstream API (through the cache and
// breaker); the rest are pure computations over already-extracted records.
type Extractor interface {
	Repository(ctx context.Context, target string) (*entity.RepositoryFacts, error)
	Commits(ctx context.Context, target string, limit int) ([]entity.Commit, error)
	Issues(ctx context.Context, target string, limit int) ([]entity.Issue, error)
	PullRequests(ctx context.Context, target string, limit int) ([]entity.PullRequest, error)
	Contributors(ctx context.Context, target string, limit int) ([]entity.Contributor, error)
	Dependencies(ctx context.Context, target string) ([]entity.Dependency, error)
	ForkLineage(ctx context.Context, target string) (*entity.ForkLineage, error)
	CommitLineage(ctx context.Context, target string, commits []entity.Commit) ([]entity.CommitLineage, error)
	ReleaseCadence(ctx context.Context, target string) (*entity.ReleaseCadence, error)
	BusFactor(commits []entity.Commit) *entity.BusFactor
	PRMetrics(pulls []entity.PullRequest) *entity.PRMetrics
	IssueMetrics(issues []entity.Issue) *entity.IssueMetrics
	CommitActivity(commits []entity.Commit) *entity.CommitActivity
}

// Store persists the merged extraction document. A Save failure is logged
// but never fails the run; the extracted data already exists in memory.
type Store interface {
	Save(ctx context.Context, document map[string]any, target, extractionID string) (string, error)
}

// Service orchestrates a single extraction request to completion. Multiple
// requests may run concurrently; the extractor's cache and breaker are the
// only shared state between them.
type Service struct {
	extractor     Extractor
	store         Store
	schemaVersion string
	logger        *slog.Logger
}

// NewService creates an orchestrator.
func NewService(extractor Extractor, store Store, schemaVersion string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if schemaVersion == "" {
		schemaVersion = "1"
	}
	return &Service{
		extractor:     extractor,
		store:         store,
		schemaVersion: schemaVersion,
		logger:        logger,
	}
}

// RunResult is the outcome of a completed extraction run.
type RunResult struct {
	ExtractionID string
	Document     map[string]any
	Summary      map[string]any
	Location     string
	FailedOps    []string
}

// operation is a single schedulable unit within a phase.
type operation struct {
	fact string
	run  func(ctx context.Context) (any, error)
}

// outcome is the tagged result of a settled operation: a value or an error,
// never both meaningful at once. The fan-in substitutes typed empty
// defaults for failed outcomes instead of relying on sentinel nils.
type outcome struct {
	value any
	err   error
}

// Run executes the full extraction state machine:
// validate, repository facts, phase 1, phase 2, persist, summarize.
func (s *Service) Run(ctx context.Context, req entity.ExtractionRequest) (*RunResult, error) {
	start := time.Now()

	if err := req.Validate(); err != nil {
		metrics.RecordExtraction("failure", time.Since(start))
		return nil, err
	}

	if req.ExtractionID == "" {
		req.ExtractionID = newExtractionID()
	}
	logger := s.logger.With(
		slog.String("extraction_id", req.ExtractionID),
		slog.String("target", req.Target))

	ctx, span := tracing.GetTracer().Start(ctx, "extraction.run")
	defer span.End()

	logger.Info("extraction started")

	// Repository facts run first and alone: they establish identity and
	// provenance for everything else, so their failure is fatal.
	var facts *entity.RepositoryFacts
	if req.Selected(entity.FactRepository) {
		var err error
		facts, err = s.extractor.Repository(ctx, req.Target)
		if err != nil {
			logger.Error("repository facts extraction failed", slog.Any("error", err))
			metrics.RecordExtraction("failure", time.Since(start))
			return nil, fmt.Errorf("repository facts: %w", err)
		}
	}

	phase1 := s.runPhase(ctx, logger, "phase1", s.phase1Operations(req))

	// Unwrap phase-1 outputs for the derived operations: a failed base fact
	// is treated as absent downstream, without aborting the run.
	commits := unwrapSlice[entity.Commit](phase1[entity.FactCommits])
	issues := unwrapSlice[entity.Issue](phase1[entity.FactIssues])
	pulls := unwrapSlice[entity.PullRequest](phase1[entity.FactPullRequests])

	phase2 := s.runPhase(ctx, logger, "phase2", s.phase2Operations(req, commits, issues, pulls))

	document, failed := s.merge(req, facts, phase1, phase2)

	location := s.persist(ctx, logger, document, req)

	summary := buildSummary(req.Target, document)

	status := "success"
	if len(failed) > 0 {
		status = "partial"
	}
	metrics.RecordExtraction(status, time.Since(start))
	logger.Info("extraction completed",
		slog.String("status", status),
		slog.Int("failed_operations", len(failed)),
		slog.Duration("duration", time.Since(start)))

	return &RunResult{
		ExtractionID: req.ExtractionID,
		Document:     document,
		Summary:      summary,
		Location:     location,
		FailedOps:    failed,
	}, nil
}

// phase1Operations builds the base-fact operations for the selected types.
// Non-selected types are simply not launched.
func (s *Service) phase1Operations(req entity.ExtractionRequest) []operation {
	target := req.Target
	ops := make([]operation, 0, len(entity.BaseFacts))

	if req.Selected(entity.FactCommits) {
		ops = append(ops, operation{entity.FactCommits, func(ctx context.Context) (any, error) {
			return s.extractor.Commits(ctx, target, req.Limits.Commits)
		}})
	}
	if req.Selected(entity.FactIssues) {
		ops = append(ops, operation{entity.FactIssues, func(ctx context.Context) (any, error) {
			return s.extractor.Issues(ctx, target, req.Limits.Issues)
		}})
	}
	if req.Selected(entity.FactPullRequests) {
		ops = append(ops, operation{entity.FactPullRequests, func(ctx context.Context) (any, error) {
			return s.extractor.PullRequests(ctx, target, req.Limits.PullRequests)
		}})
	}
	if req.Selected(entity.FactContributors) {
		ops = append(ops, operation{entity.FactContributors, func(ctx context.Context) (any, error) {
			return s.extractor.Contributors(ctx, target, 0)
		}})
	}
	if req.Selected(entity.FactDependencies) {
		ops = append(ops, operation{entity.FactDependencies, func(ctx context.Context) (any, error) {
			return s.extractor.Dependencies(ctx, target)
		}})
	}
	return ops
}

// phase2Operations builds the derived-fact operations, each consuming the
// (possibly absent) phase-1 outputs it depends on.
func (s *Service) phase2Operations(
	req entity.ExtractionRequest,
	commits []entity.Commit,
	issues []entity.Issue,
	pulls []entity.PullRequest,
) []operation {
	target := req.Target
	ops := make([]operation, 0, len(entity.DerivedFacts))

	if req.Selected(entity.FactForkLineage) {
		ops = append(ops, operation{entity.FactForkLineage, func(ctx context.Context) (any, error) {
			return s.extractor.ForkLineage(ctx, target)
		}})
	}
	if req.Selected(entity.FactCommitLineage) {
		ops = append(ops, operation{entity.FactCommitLineage, func(ctx context.Context) (any, error) {
			return s.extractor.CommitLineage(ctx, target, commits)
		}})
	}
	if req.Selected(entity.FactBusFactor) {
		ops = append(ops, operation{entity.FactBusFactor, func(ctx context.Context) (any, error) {
			return s.extractor.BusFactor(commits), nil
		}})
	}
	if req.Selected(entity.FactPRMetrics) {
		ops = append(ops, operation{entity.FactPRMetrics, func(ctx context.Context) (any, error) {
			return s.extractor.PRMetrics(pulls), nil
		}})
	}
	if req.Selected(entity.FactIssueMetrics) {
		ops = append(ops, operation{entity.FactIssueMetrics, func(ctx context.Context) (any, error) {
			return s.extractor.IssueMetrics(issues), nil
		}})
	}
	if req.Selected(entity.FactCommitActivity) {
		ops = append(ops, operation{entity.FactCommitActivity, func(ctx context.Context) (any, error) {
			return s.extractor.CommitActivity(commits), nil
		}})
	}
	if req.Selected(entity.FactReleaseCadence) {
		ops = append(ops, operation{entity.FactReleaseCadence, func(ctx context.Context) (any, error) {
			return s.extractor.ReleaseCadence(ctx, target)
		}})
	}
	return ops
}

// runPhase launches every operation of a phase concurrently and waits for
// all of them to settle. This is a join barrier, not a race: a failure in
// one operation never cancels its siblings, so every goroutine records its
// outcome and returns nil.
func (s *Service) runPhase(ctx context.Context, logger *slog.Logger, phase string, ops []operation) map[string]outcome {
	ctx, span := tracing.GetTracer().Start(ctx, "extraction."+phase)
	defer span.End()

	results := make([]outcome, len(ops))
	var g errgroup.Group
	for i, op := range ops {
		i, op := i, op
		g.Go(func() error {
			value, err := op.run(ctx)
			if err != nil {
				logger.Error("extraction operation failed",
					slog.String("phase", phase),
					slog.String("operation", op.fact),
					slog.Any("error", err))
			}
			results[i] = outcome{value: value, err: err}
			return nil
		})
	}
	_ = g.Wait()

	settled := make(map[string]outcome, len(ops))
	for i, op := range ops {
		settled[op.fact] = results[i]
	}
	return settled
}

// persist hands the merged document to the store. Failure is non-fatal.
func (s *Service) persist(ctx context.Context, logger *slog.Logger, document map[string]any, req entity.ExtractionRequest) string {
	location, err := s.store.Save(ctx, document, req.Target, req.ExtractionID)
	if err != nil {
		logger.Error("failed to persist extraction document", slog.Any("error", err))
		metrics.RecordPersist(false)
		return ""
	}
	metrics.RecordPersist(true)
	logger.Info("extraction document persisted", slog.String("location", location))
	return location
}

// unwrapSlice converts a settled outcome to its typed slice, or nil when the
// operation failed or was not launched.
func unwrapSlice[T any](o outcome) []T {
	if o.err != nil {
		return nil
	}
	value, _ := o.value.([]T)
	return value
}

// newExtractionID returns a short unique run identifier.
func newExtractionID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
