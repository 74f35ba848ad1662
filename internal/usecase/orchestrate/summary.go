package orchestrate

import (
	"fmt"
	"reflect"
	"time"

	"gitmeta/internal/domain/entity"
)

// buildSummary computes a best-effort rollup over the merged document.
// Any computation error is swallowed into an error summary rather than
// propagated: the summary is advisory, the document is the product.
func buildSummary(target string, document map[string]any) (summary map[string]any) {
	defer func() {
		if r := recover(); r != nil {
			summary = map[string]any{
				"repository": target,
				"error":      fmt.Sprintf("summary computation failed: %v", r),
			}
		}
	}()

	summary = map[string]any{
		"repository":   target,
		"generated_at": time.Now().UTC().Format(time.RFC3339),
	}
	if name, ok := document["repository"].(string); ok {
		summary["repository"] = name
	}

	for _, fact := range []string{
		entity.FactCommits,
		entity.FactIssues,
		entity.FactPullRequests,
		entity.FactContributors,
		entity.FactDependencies,
	} {
		if value, ok := document[fact]; ok {
			summary[fact+"_count"] = collectionLen(value)
		}
	}

	for _, key := range []string{"stars", "forks", "open_issues"} {
		if value, ok := document[key]; ok {
			summary[key] = value
		}
	}

	if m, ok := document[entity.FactPRMetrics].(*entity.PRMetrics); ok && m.MergeRate != nil {
		summary["merge_rate"] = *m.MergeRate
	}
	if m, ok := document[entity.FactIssueMetrics].(*entity.IssueMetrics); ok && m.MeanResolutionDays != nil {
		summary["avg_issue_resolution"] = humanTimespan(*m.MeanResolutionDays * 24 * 60 * 60)
	}

	return summary
}

// collectionLen returns the length of a slice-shaped document value, or 0
// for anything else.
func collectionLen(value any) int {
	v := reflect.ValueOf(value)
	if v.Kind() == reflect.Slice {
		return v.Len()
	}
	return 0
}

// humanTimespan renders a duration in seconds as a compact human-readable
// string, e.g. "45s", "3m20s", "2h15m", "4d7h".
func humanTimespan(seconds float64) string {
	total := int(seconds)
	if total < 60 {
		return fmt.Sprintf("%ds", total)
	}
	m, s := total/60, total%60
	if m < 60 {
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h, m := m/60, m%60
	if h < 24 {
		return fmt.Sprintf("%dh%dm", h, m)
	}
	d, h := h/24, h%24
	return fmt.Sprintf("%dd%dh", d, h)
}
