package instruction

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fatwabot/internal/lang"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestBuiltin_Validates(t *testing.T) {
	if err := Builtin().Validate(); err != nil {
		t.Fatalf("builtin catalog must validate: %v", err)
	}
}

func TestSelect_Deterministic(t *testing.T) {
	c := Builtin()
	for _, l := range lang.Supported() {
		first := c.Select(l)
		second := c.Select(l)
		if first != second {
			t.Fatalf("Select(%q) is not deterministic", l)
		}
		if strings.TrimSpace(first.Instruction) == "" {
			t.Fatalf("Select(%q) returned an empty instruction", l)
		}
	}
}

func TestSelect_LanguageDirective(t *testing.T) {
	c := Builtin()
	en := c.Select(lang.English)
	ar := c.Select(lang.Arabic)
	if en.Instruction == ar.Instruction {
		t.Fatal("English and Arabic instructions must differ")
	}
	if !strings.Contains(en.Instruction, "English") {
		t.Fatal("English instruction must direct the output language")
	}
	if !strings.Contains(ar.Instruction, "العربية") {
		t.Fatal("Arabic instruction must direct the output language")
	}
}

func TestValidate_MissingTemplate(t *testing.T) {
	c := &Catalog{templates: map[lang.Language]Template{
		lang.English: Builtin().Select(lang.English),
	}}
	if err := c.Validate(); err == nil {
		t.Fatal("expected validation error for missing Arabic template")
	}
}

func TestValidate_EmptyFallback(t *testing.T) {
	c := Builtin()
	tmpl := c.templates[lang.Arabic]
	tmpl.FallbackNoRuling = "   "
	c.templates[lang.Arabic] = tmpl
	if err := c.Validate(); err == nil {
		t.Fatal("expected validation error for blank fallback phrase")
	}
}

// --- YAML overrides ---

func TestLoadOverrides_MergesFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "instructions.yaml")
	content := `
languages:
  en:
    fallbackUnavailable: "Down for maintenance."
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	c := Builtin()
	original := c.Select(lang.English)
	if err := c.LoadOverrides(path, testLogger()); err != nil {
		t.Fatalf("LoadOverrides: %v", err)
	}

	merged := c.Select(lang.English)
	if merged.FallbackUnavailable != "Down for maintenance." {
		t.Fatalf("override not applied: %q", merged.FallbackUnavailable)
	}
	if merged.Instruction != original.Instruction {
		t.Fatal("fields absent from the override file must keep built-in values")
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("catalog must still validate after merge: %v", err)
	}
}

func TestLoadOverrides_MissingFileIsNotAnError(t *testing.T) {
	c := Builtin()
	if err := c.LoadOverrides(filepath.Join(t.TempDir(), "absent.yaml"), testLogger()); err != nil {
		t.Fatalf("missing override file should be skipped: %v", err)
	}
}

func TestLoadOverrides_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("languages: ["), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Builtin().LoadOverrides(path, testLogger()); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadOverrides_UnsupportedLanguageIgnored(t *testing.T) {
	path := filepath.Join(t.TempDir(), "instructions.yaml")
	content := `
languages:
  de:
    instruction: "Beantworte nur Fatwas."
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	c := Builtin()
	if err := c.LoadOverrides(path, testLogger()); err != nil {
		t.Fatalf("LoadOverrides: %v", err)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("catalog must be unchanged for unsupported languages: %v", err)
	}
}
