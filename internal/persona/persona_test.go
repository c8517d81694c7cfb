package persona

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseWithFrontmatter(t *testing.T) {
	t.Parallel()

	doc := "---\nname: Nola\nrestaurant: Hungry Times Kolkata\ntone: warm and brief\n---\nYou help run the restaurant."
	p, err := Parse(doc)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if p.Name != "Nola" {
		t.Fatalf("Name = %q, want %q", p.Name, "Nola")
	}
	if p.Prompt != "You help run the restaurant." {
		t.Fatalf("Prompt = %q", p.Prompt)
	}

	sys := p.SystemPrompt()
	if !strings.Contains(sys, "Hungry Times Kolkata") {
		t.Fatalf("SystemPrompt() = %q, want restaurant woven in", sys)
	}
	if !strings.Contains(sys, "warm and brief") {
		t.Fatalf("SystemPrompt() = %q, want tone woven in", sys)
	}
}

func TestParseWithoutFrontmatter(t *testing.T) {
	t.Parallel()

	p, err := Parse("Just a prompt, no metadata.")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if p.Prompt != "Just a prompt, no metadata." {
		t.Fatalf("Prompt = %q", p.Prompt)
	}
	if p.Name != defaultName {
		t.Fatalf("Name = %q, want default", p.Name)
	}
}

func TestParseBadFrontmatterFails(t *testing.T) {
	t.Parallel()

	_, err := Parse("---\nname: [unclosed\n---\nbody")
	if err == nil {
		t.Fatal("expected error for invalid frontmatter")
	}
}

func TestLoadEmptyPathUsesDefault(t *testing.T) {
	t.Parallel()

	p, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if p.Prompt != DefaultPrompt {
		t.Fatalf("Prompt = %q, want the default", p.Prompt)
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "persona.md")
	doc := "---\nname: Nola\n---\nBe short."
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if p.Name != "Nola" || p.Prompt != "Be short." {
		t.Fatalf("profile = %+v", p)
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "absent.md")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
