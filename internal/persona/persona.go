// Package persona loads the assistant's system-prompt profile.
package persona

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPrompt is used when no profile file is configured.
const DefaultPrompt = "You are the operations assistant for Hungry Times, a restaurant " +
	"running online ordering, POS sales and WhatsApp offer campaigns. " +
	"Answer briefly and concretely. When analytics JSON is included in a " +
	"message, ground your answer in those numbers instead of guessing."

const defaultName = "Hungry Times Assistant"

type Profile struct {
	Name       string `yaml:"name"`
	Restaurant string `yaml:"restaurant"`
	Tone       string `yaml:"tone"`

	Prompt string `yaml:"-"`
}

// Load reads a markdown profile whose YAML frontmatter names the
// persona and whose body becomes the system prompt. An empty path
// yields the built-in default.
func Load(path string) (Profile, error) {
	if strings.TrimSpace(path) == "" {
		return Profile{Name: defaultName, Prompt: DefaultPrompt}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read persona: %w", err)
	}
	return Parse(string(raw))
}

// Parse splits YAML frontmatter from the markdown body. A document
// without frontmatter is all prompt. Invalid frontmatter is an error;
// a profile the operator pointed at should not fail silently.
func Parse(contents string) (Profile, error) {
	raw, body, ok := splitFrontmatter(contents)
	p := Profile{}
	if ok {
		if err := yaml.Unmarshal([]byte(raw), &p); err != nil {
			return Profile{}, fmt.Errorf("parse persona frontmatter: %w", err)
		}
	}
	p.Prompt = strings.TrimSpace(body)
	if p.Prompt == "" {
		p.Prompt = DefaultPrompt
	}
	if p.Name == "" {
		p.Name = defaultName
	}
	return p, nil
}

// SystemPrompt composes the prompt body with the profile metadata.
func (p Profile) SystemPrompt() string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(p.Prompt))
	if p.Restaurant != "" {
		fmt.Fprintf(&b, "\nThe restaurant is %s.", p.Restaurant)
	}
	if p.Tone != "" {
		fmt.Fprintf(&b, "\nKeep replies %s.", p.Tone)
	}
	return b.String()
}

// The delimiters must be a leading line "---" and a later closing
// line "---".
func splitFrontmatter(contents string) (string, string, bool) {
	lines := strings.Split(strings.ReplaceAll(contents, "\r\n", "\n"), "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return "", contents, false
	}

	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) != "---" {
			continue
		}
		return strings.Join(lines[1:i], "\n"), strings.Join(lines[i+1:], "\n"), true
	}
	return "", contents, false
}
