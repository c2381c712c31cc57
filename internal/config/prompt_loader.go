package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// DocumentPlaceholder marks where a user prompt receives the source document
const DocumentPlaceholder = "{{document}}"

type promptSlot struct {
	operation string
	kind      string // system or user
	text      *string
	file      string
}

func (c *Config) promptSlots() []promptSlot {
	var slots []promptSlot
	for _, op := range []string{OpExtractResume, OpExtractJob, OpGenerateRubric} {
		p := &c.operation(op).Prompts
		slots = append(slots,
			promptSlot{operation: op, kind: "system", text: &p.System, file: p.SystemFile},
			promptSlot{operation: op, kind: "user", text: &p.User, file: p.UserFile},
		)
	}
	return slots
}

// loadPromptsFromFiles replaces inline prompts with file content wherever a
// prompt file is configured, then checks that every custom user prompt has a
// place for the document. All problems are reported together.
func (c *Config) loadPromptsFromFiles() error {
	var errs []error
	loaded := 0

	for _, slot := range c.promptSlots() {
		if slot.file != "" {
			content, err := slot.read()
			if err != nil {
				errs = append(errs, err)
				continue
			}
			*slot.text = content
			loaded++
		}

		if slot.kind == "user" && strings.TrimSpace(*slot.text) != "" &&
			!strings.Contains(*slot.text, DocumentPlaceholder) {
			errs = append(errs, fmt.Errorf("user %s prompt does not contain %s", slot.operation, DocumentPlaceholder))
		}
	}

	if loaded > 0 {
		log.Printf("[CONFIG] Custom prompts loaded from files: %d", loaded)
	}
	return errors.Join(errs...)
}

func (s promptSlot) read() (string, error) {
	path, err := filepath.Abs(s.file)
	if err != nil {
		return "", fmt.Errorf("invalid path for %s %s prompt: %s", s.kind, s.operation, s.file)
	}

	content, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return "", fmt.Errorf("%s %s prompt file not found: %s", s.kind, s.operation, path)
	case err != nil:
		return "", fmt.Errorf("failed to read %s %s prompt file '%s': %w", s.kind, s.operation, path, err)
	}

	text := strings.TrimSpace(string(content))
	if text == "" {
		return "", fmt.Errorf("%s %s prompt file '%s' is empty", s.kind, s.operation, path)
	}

	log.Printf("[CONFIG] Loaded %s %s prompt from %s (%d characters)", s.kind, s.operation, path, len(text))
	return text, nil
}
