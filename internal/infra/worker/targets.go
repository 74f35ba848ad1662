package worker

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"gitmeta/internal/domain/entity"
)

// TargetSpec is one entry of the targets file: a repository plus optional
// per-repository selections and limits.
type TargetSpec struct {
	Target     string          `yaml:"target"`
	Selections map[string]bool `yaml:"selections,omitempty"`
	Limits     entity.Limits   `yaml:"limits,omitempty"`
}

// targetsFile is the on-disk shape of the targets YAML file:
//
//	targets:
//	  - target: golang/go
//	  - target: https://github.com/prometheus/prometheus
//	    selections:
//	      commits: true
//	      bus_factor: true
//	    limits:
//	      commit: 100
type targetsFile struct {
	Targets []TargetSpec `yaml:"targets"`
}

// LoadTargets reads and validates the targets file. Entries with no
// selections get the default selection set.
func LoadTargets(path string) ([]TargetSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read targets file: %w", err)
	}

	var parsed targetsFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse targets file %s: %w", path, err)
	}
	if len(parsed.Targets) == 0 {
		return nil, fmt.Errorf("targets file %s lists no targets", path)
	}

	for i, spec := range parsed.Targets {
		if _, _, err := entity.ParseTarget(spec.Target); err != nil {
			return nil, fmt.Errorf("targets file entry %d: %w", i, err)
		}
		if len(spec.Selections) == 0 {
			parsed.Targets[i].Selections = entity.DefaultSelections()
		}
	}
	return parsed.Targets, nil
}

// Request builds the extraction request for this target.
func (t TargetSpec) Request() entity.ExtractionRequest {
	selections := t.Selections
	if len(selections) == 0 {
		selections = entity.DefaultSelections()
	}
	return entity.ExtractionRequest{
		Target:     t.Target,
		Selections: selections,
		Limits:     t.Limits,
	}
}
