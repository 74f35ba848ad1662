package orchestrate

import (
	"encoding/json"
	"reflect"
	"time"

	"gitmeta/internal/domain/entity"
)

// merge builds the final document from the settled phases. Only selected
// fact types appear; a selected type whose extraction failed (or whose base
// input was absent) is present as a typed empty value rather than omitted,
// so consumers can distinguish "not requested" from "requested but
// unavailable".
func (s *Service) merge(
	req entity.ExtractionRequest,
	facts *entity.RepositoryFacts,
	phase1, phase2 map[string]outcome,
) (map[string]any, []string) {
	document := make(map[string]any)
	var failed []string

	if req.Selected(entity.FactRepository) && facts != nil {
		flattenInto(document, facts)
	}

	settle := func(facts []string, outcomes map[string]outcome) {
		for _, fact := range facts {
			if !req.Selected(fact) {
				continue
			}
			o, launched := outcomes[fact]
			if !launched || o.err != nil || o.value == nil {
				document[fact] = emptyValue(fact)
				if launched && o.err != nil {
					failed = append(failed, fact)
				}
				continue
			}
			// A successful listing with zero items may arrive as a typed
			// nil slice. Substitute the typed empty value so it renders
			// as [] like any other successful result, never null.
			if v := reflect.ValueOf(o.value); v.Kind() == reflect.Slice && v.IsNil() {
				document[fact] = emptyValue(fact)
				continue
			}
			document[fact] = o.value
		}
	}
	settle(entity.BaseFacts, phase1)
	settle(entity.DerivedFacts, phase2)

	document["extraction_provenance"] = entity.Provenance{
		ExtractionID:  req.ExtractionID,
		ExtractedAt:   time.Now().UTC(),
		SchemaVersion: s.schemaVersion,
		Source:        "github",
	}

	return document, failed
}

// emptyValue returns the typed empty default for a fact type.
func emptyValue(fact string) any {
	switch fact {
	case entity.FactCommits:
		return []entity.Commit{}
	case entity.FactIssues:
		return []entity.Issue{}
	case entity.FactPullRequests:
		return []entity.PullRequest{}
	case entity.FactContributors:
		return []entity.Contributor{}
	case entity.FactDependencies:
		return []entity.Dependency{}
	case entity.FactCommitLineage:
		return []entity.CommitLineage{}
	case entity.FactForkLineage:
		return &entity.ForkLineage{}
	case entity.FactBusFactor:
		return &entity.BusFactor{}
	case entity.FactPRMetrics:
		return &entity.PRMetrics{}
	case entity.FactIssueMetrics:
		return &entity.IssueMetrics{}
	case entity.FactCommitActivity:
		return &entity.CommitActivity{
			ByWeek:  map[string]int{},
			ByMonth: map[string]int{},
		}
	case entity.FactReleaseCadence:
		return &entity.ReleaseCadence{}
	default:
		return map[string]any{}
	}
}

// flattenInto merges the repository facts as top-level document keys, using
// their JSON field names.
func flattenInto(document map[string]any, facts *entity.RepositoryFacts) {
	raw, err := json.Marshal(facts)
	if err != nil {
		return
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return
	}
	for key, value := range fields {
		document[key] = value
	}
}
