// Package manifest parses well-known dependency manifest files into
// dependency records. Parsing is fail-closed: malformed input yields an
// empty result, never an error, so one bad manifest cannot fail a whole
// extraction.
package manifest

import (
	"bufio"
	"encoding/json"
	"encoding/xml"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"gitmeta/internal/domain/entity"
)

// requirementRE extracts the package name from a requirements.txt line,
// dropping version specifiers, extras, and environment markers.
var requirementRE = regexp.MustCompile(`^([a-zA-Z0-9][-a-zA-Z0-9._]*)\s*(?:\[[^\]]*\])?\s*([=<>!~].*)?$`)

// Parser parses dependency manifests by filename.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a manifest parser.
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// Parse dispatches on the manifest filename. Unknown filenames and
// malformed content both yield an empty slice.
func (p *Parser) Parse(filename string, text []byte) []entity.Dependency {
	var deps []entity.Dependency
	switch filename {
	case "package.json":
		deps = p.parsePackageJSON(text)
	case "requirements.txt":
		deps = p.parseRequirements(text)
	case "pyproject.toml":
		deps = p.parsePyproject(text)
	case "Pipfile":
		deps = p.parsePipfile(text)
	case "pom.xml":
		deps = p.parsePOM(text)
	default:
		p.logger.Debug("unknown manifest filename", slog.String("filename", filename))
		return nil
	}

	for i := range deps {
		deps[i].Manifest = filename
	}
	return deps
}

func (p *Parser) parsePackageJSON(text []byte) []entity.Dependency {
	var pkg struct {
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	if err := json.Unmarshal(text, &pkg); err != nil {
		p.logger.Debug("malformed package.json", slog.Any("error", err))
		return nil
	}
	deps := fromVersionMap(pkg.Dependencies)
	deps = append(deps, fromVersionMap(pkg.DevDependencies)...)
	return deps
}

func (p *Parser) parseRequirements(text []byte) []entity.Dependency {
	var deps []entity.Dependency
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(strings.NewReader(string(text)))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' || line[0] == '-' {
			continue
		}
		// URL and VCS requirements carry no usable package name.
		if strings.Contains(line, "://") || strings.HasPrefix(line, "git+") {
			continue
		}
		if idx := strings.IndexByte(line, ';'); idx >= 0 {
			line = strings.TrimSpace(line[:idx])
		}
		m := requirementRE.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name := strings.ToLower(m[1])
		if seen[name] {
			continue
		}
		seen[name] = true
		deps = append(deps, entity.Dependency{
			Name:    name,
			Version: strings.TrimSpace(m[2]),
		})
	}
	return deps
}

// parsePyproject reads PEP 621 project dependencies plus the poetry
// dependency table, whichever the manifest carries.
func (p *Parser) parsePyproject(text []byte) []entity.Dependency {
	var pyproject struct {
		Project struct {
			Dependencies []string `toml:"dependencies"`
		} `toml:"project"`
		Tool struct {
			Poetry struct {
				Dependencies map[string]any `toml:"dependencies"`
			} `toml:"poetry"`
		} `toml:"tool"`
	}
	if err := toml.Unmarshal(text, &pyproject); err != nil {
		p.logger.Debug("malformed pyproject.toml", slog.Any("error", err))
		return nil
	}

	var deps []entity.Dependency
	for _, requirement := range pyproject.Project.Dependencies {
		m := requirementRE.FindStringSubmatch(strings.TrimSpace(requirement))
		if m == nil {
			continue
		}
		deps = append(deps, entity.Dependency{
			Name:    strings.ToLower(m[1]),
			Version: strings.TrimSpace(m[2]),
		})
	}
	for name, spec := range pyproject.Tool.Poetry.Dependencies {
		if strings.EqualFold(name, "python") {
			continue
		}
		deps = append(deps, entity.Dependency{
			Name:    strings.ToLower(name),
			Version: versionSpec(spec),
		})
	}
	sortDeps(deps)
	return deps
}

func (p *Parser) parsePipfile(text []byte) []entity.Dependency {
	var pipfile struct {
		Packages    map[string]any `toml:"packages"`
		DevPackages map[string]any `toml:"dev-packages"`
	}
	if err := toml.Unmarshal(text, &pipfile); err != nil {
		p.logger.Debug("malformed Pipfile", slog.Any("error", err))
		return nil
	}

	var deps []entity.Dependency
	for name, spec := range pipfile.Packages {
		deps = append(deps, entity.Dependency{
			Name:    strings.ToLower(name),
			Version: versionSpec(spec),
		})
	}
	for name, spec := range pipfile.DevPackages {
		deps = append(deps, entity.Dependency{
			Name:    strings.ToLower(name),
			Version: versionSpec(spec),
		})
	}
	sortDeps(deps)
	return deps
}

func (p *Parser) parsePOM(text []byte) []entity.Dependency {
	var pom struct {
		Dependencies []struct {
			GroupID    string `xml:"groupId"`
			ArtifactID string `xml:"artifactId"`
			Version    string `xml:"version"`
			Scope      string `xml:"scope"`
		} `xml:"dependencies>dependency"`
	}
	if err := xml.Unmarshal(text, &pom); err != nil {
		p.logger.Debug("malformed pom.xml", slog.Any("error", err))
		return nil
	}

	var deps []entity.Dependency
	for _, d := range pom.Dependencies {
		if d.GroupID == "" || d.ArtifactID == "" {
			continue
		}
		// Unresolved Maven property placeholders are not real coordinates.
		if strings.HasPrefix(d.GroupID, "${") || strings.HasPrefix(d.ArtifactID, "${") {
			continue
		}
		version := d.Version
		if strings.HasPrefix(version, "${") {
			version = ""
		}
		deps = append(deps, entity.Dependency{
			Name:    d.GroupID + ":" + d.ArtifactID,
			Version: version,
		})
	}
	return deps
}

// versionSpec renders a TOML dependency value as a version string. Tables
// like {version = "^1.0", extras = [...]} keep only the version field.
func versionSpec(spec any) string {
	switch v := spec.(type) {
	case string:
		if v == "*" {
			return ""
		}
		return v
	case map[string]any:
		if version, ok := v["version"].(string); ok && version != "*" {
			return version
		}
	}
	return ""
}

func fromVersionMap(m map[string]string) []entity.Dependency {
	deps := make([]entity.Dependency, 0, len(m))
	for name, version := range m {
		deps = append(deps, entity.Dependency{Name: name, Version: version})
	}
	sortDeps(deps)
	return deps
}

func sortDeps(deps []entity.Dependency) {
	sort.Slice(deps, func(i, j int) bool { return deps[i].Name < deps[j].Name })
}
