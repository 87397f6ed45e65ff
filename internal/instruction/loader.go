package instruction

import (
	"fmt"
	"log/slog"
	"os"

	"fatwabot/internal/lang"

	"gopkg.in/yaml.v3"
)

// overrideFile is the schema of an operator-supplied template override file.
// Only the fields present in the file replace the built-in values, so a
// deployment can reword a single fallback phrase without restating the rest.
type overrideFile struct {
	Languages map[string]Template `yaml:"languages"`
}

// LoadOverrides merges template overrides from a YAML file into the catalog.
// A missing path is not an error; an unreadable or unparsable file is, since
// a deployment that ships an override file expects it to take effect.
func (c *Catalog) LoadOverrides(path string, logger *slog.Logger) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Debug("instruction override file does not exist, skipping", "path", path)
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read instruction overrides: %w", err)
	}

	var file overrideFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse instruction overrides %s: %w", path, err)
	}

	for tag, override := range file.Languages {
		l := lang.Language(tag)
		base, ok := c.templates[l]
		if !ok {
			logger.Warn("override for unsupported language ignored", "language", tag)
			continue
		}
		if override.Instruction != "" {
			base.Instruction = override.Instruction
		}
		if override.FallbackUnavailable != "" {
			base.FallbackUnavailable = override.FallbackUnavailable
		}
		if override.FallbackNoRuling != "" {
			base.FallbackNoRuling = override.FallbackNoRuling
		}
		c.templates[l] = base
		logger.Info("instruction template overridden", "language", tag, "path", path)
	}

	return nil
}
