// Package main provides a one-shot CLI for extracting repository metadata.
// Usage: gitmeta-extract owner/repo [--commits N] [--issues N] [--prs N] [--select list] [--output json]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"gitmeta/internal/config"
	"gitmeta/internal/domain/entity"
	"gitmeta/internal/handler/http/respond"
	"gitmeta/internal/infra/githubapi"
	"gitmeta/internal/infra/manifest"
	"gitmeta/internal/infra/metastore"
	"gitmeta/internal/observability/logging"
	"gitmeta/internal/resilience/cache"
	"gitmeta/internal/resilience/circuitbreaker"
	"gitmeta/internal/usecase/extract"
	"gitmeta/internal/usecase/orchestrate"
)

func main() {
	var (
		commitLimit  int
		issueLimit   int
		prLimit      int
		selectList   string
		outputFormat string
	)

	flag.IntVar(&commitLimit, "commits", 0, "Maximum commits to fetch (0 = configured default)")
	flag.IntVar(&issueLimit, "issues", 0, "Maximum issues to fetch (0 = configured default)")
	flag.IntVar(&prLimit, "prs", 0, "Maximum pull requests to fetch (0 = configured default)")
	flag.StringVar(&selectList, "select", "", "Comma-separated fact types to extract (default: all)")
	flag.StringVar(&outputFormat, "output", "text", "Output format: text or json")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Error: Repository target is required")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Usage: gitmeta-extract <target> [--commits N] [--issues N] [--prs N] [--select list] [--output json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Examples:")
		fmt.Fprintln(os.Stderr, "  gitmeta-extract golang/go")
		fmt.Fprintln(os.Stderr, "  gitmeta-extract https://github.com/golang/go --commits 50")
		fmt.Fprintln(os.Stderr, "  gitmeta-extract golang/go --select repository,dependencies --output json")
		os.Exit(1)
	}
	target := args[0]

	selections, err := parseSelections(selectList)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if outputFormat != "text" && outputFormat != "json" {
		fmt.Fprintf(os.Stderr, "Error: invalid output format %q (must be text or json)\n", outputFormat)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := logging.NewTextLogger()

	extractorConfig, err := config.LoadExtractorConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: configuration: %v\n", err)
		os.Exit(1)
	}

	client := githubapi.NewClient(githubapi.LoadConfigFromEnv())
	breaker := circuitbreaker.New(circuitbreaker.Config{
		Name:             "github-api",
		FailureThreshold: extractorConfig.CircuitBreaker.FailureThreshold,
		RecoveryTimeout:  extractorConfig.CircuitBreaker.RecoveryTimeout,
	})
	extractService := extract.NewService(
		client,
		cache.New(),
		breaker,
		manifest.NewParser(logger),
		extract.Defaults{
			CommitLimit: extractorConfig.DefaultCommitLimit,
			IssueLimit:  extractorConfig.DefaultIssueLimit,
			PRLimit:     extractorConfig.DefaultPRLimit,
			CacheTTL:    extractorConfig.CacheTTL,
		},
		logger,
	)
	store := metastore.NewFileStore(extractorConfig.MetadataDir, logger)
	orchestrator := orchestrate.NewService(extractService, store, extractorConfig.SchemaVersion, logger)

	result, err := orchestrator.Run(ctx, entity.ExtractionRequest{
		Target:     target,
		Selections: selections,
		Limits: entity.Limits{
			Commits:      commitLimit,
			Issues:       issueLimit,
			PullRequests: prLimit,
		},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", respond.SanitizeError(err))
		os.Exit(1)
	}

	if outputFormat == "json" {
		printJSON(result)
	} else {
		printText(result)
	}
	if len(result.FailedOps) > 0 {
		os.Exit(2)
	}
}

// parseSelections turns a comma-separated fact type list into a selection
// set. An empty list selects everything.
func parseSelections(list string) (map[string]bool, error) {
	if strings.TrimSpace(list) == "" {
		return entity.DefaultSelections(), nil
	}
	known := entity.DefaultSelections()
	selections := make(map[string]bool, len(known))
	for _, raw := range strings.Split(list, ",") {
		fact := strings.TrimSpace(strings.ToLower(raw))
		if fact == "" {
			continue
		}
		if !known[fact] {
			return nil, fmt.Errorf("unknown fact type %q", fact)
		}
		selections[fact] = true
	}
	if len(selections) == 0 {
		return nil, fmt.Errorf("no fact types selected")
	}
	return selections, nil
}

func printJSON(result *orchestrate.RunResult) {
	out := map[string]any{
		"extraction_id": result.ExtractionID,
		"location":      result.Location,
		"summary":       result.Summary,
		"document":      result.Document,
	}
	if len(result.FailedOps) > 0 {
		out["failed_operations"] = result.FailedOps
	}
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "Error: encoding output: %v\n", err)
		os.Exit(1)
	}
}

func printText(result *orchestrate.RunResult) {
	fmt.Printf("Extraction %s complete\n", result.ExtractionID)
	if result.Location != "" {
		fmt.Printf("Saved to: %s\n", result.Location)
	}

	fmt.Println()
	fmt.Println("Summary:")
	keys := make([]string, 0, len(result.Summary))
	for k := range result.Summary {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %-20s %v\n", k, result.Summary[k])
	}

	if len(result.FailedOps) > 0 {
		fmt.Println()
		fmt.Printf("Failed operations (%d):\n", len(result.FailedOps))
		for _, op := range result.FailedOps {
			fmt.Printf("  - %s\n", op)
		}
	}
}
