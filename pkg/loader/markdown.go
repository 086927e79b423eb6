package loader

import (
	"bytes"
	"strings"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"
	"gopkg.in/yaml.v3"
)

// InstructionsFrontmatter is the YAML frontmatter of *.instructions.md
// files. ApplyTo is the glob pattern the source matches against and is
// required; everything else is optional.
type InstructionsFrontmatter struct {
	Description    string   `yaml:"description" json:"description,omitempty" jsonschema:"description=Human-readable summary of the instructions"`
	ApplyTo        string   `yaml:"applyTo" json:"applyTo" jsonschema:"description=Glob pattern selecting the files these instructions apply to"`
	Tier           string   `yaml:"tier" json:"tier,omitempty" jsonschema:"enum=personal,enum=repository,enum=organization"`
	ExcludedAgents []string `yaml:"excludedAgents" json:"excludedAgents,omitempty" jsonschema:"description=Agent ids these instructions must not apply to"`
}

// parseInstructions splits an instructions file into its typed
// frontmatter and body.
func parseInstructions(content string) (*InstructionsFrontmatter, string, error) {
	front, body, ok := splitFrontmatter(content)
	if !ok {
		return nil, "", errors.New("missing frontmatter")
	}

	var fm InstructionsFrontmatter
	if err := yaml.Unmarshal([]byte(front), &fm); err != nil {
		return nil, "", errors.Wrap(err, "invalid frontmatter")
	}
	if fm.ApplyTo == "" {
		return nil, "", errors.New("applyTo is required in frontmatter")
	}

	return &fm, body, nil
}

// parseSkill extracts name, description, and body from a SKILL.md file.
func parseSkill(content []byte) (name, description, body string, err error) {
	md := goldmark.New(goldmark.WithExtensions(meta.Meta))

	var buf bytes.Buffer
	pctx := parser.NewContext()
	if err := md.Convert(content, &buf, parser.WithContext(pctx)); err != nil {
		return "", "", "", errors.Wrap(err, "failed to parse markdown")
	}

	metaData := meta.Get(pctx)
	if metaData == nil {
		return "", "", "", errors.New("missing frontmatter")
	}

	name, _ = metaData["name"].(string)
	description, _ = metaData["description"].(string)
	if name == "" {
		return "", "", "", errors.New("skill name is required in frontmatter")
	}
	if description == "" {
		return "", "", "", errors.New("skill description is required in frontmatter")
	}

	_, body, ok := splitFrontmatter(string(content))
	if !ok {
		body = string(content)
	}
	return name, description, body, nil
}

// splitFrontmatter separates a leading YAML frontmatter block from the
// markdown body. ok is false when the content carries no frontmatter.
func splitFrontmatter(content string) (front, body string, ok bool) {
	if !strings.HasPrefix(content, "---") {
		return "", content, false
	}

	rest := content[3:]
	rest = strings.TrimPrefix(rest, "\r\n")
	rest = strings.TrimPrefix(rest, "\n")

	for _, delim := range []string{"\n---\n", "\n---\r\n"} {
		if idx := strings.Index(rest, delim); idx >= 0 {
			return rest[:idx], strings.TrimLeft(rest[idx+len(delim):], "\n"), true
		}
	}
	if trimmed := strings.TrimRight(rest, "\r\n"); strings.HasSuffix(trimmed, "\n---") {
		return strings.TrimSuffix(trimmed, "\n---"), "", true
	}
	return "", content, false
}
