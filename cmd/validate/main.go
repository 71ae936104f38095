package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jwebster45206/identity-crisis/pkg/phase"
	"gopkg.in/yaml.v3"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <prompts.yaml>\n", os.Args[0])
		os.Exit(1)
	}

	filename := os.Args[1]
	validator := &PromptValidator{}

	if err := validator.validateFile(filename); err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Prompts file is valid!")
}

// promptFile mirrors the accepted document. Unknown keys are rejected.
type promptFile struct {
	Denial     string `yaml:"denial"`
	Doubt      string `yaml:"doubt"`
	Conflict   string `yaml:"conflict"`
	Acceptance string `yaml:"acceptance"`
	Victory    string `yaml:"victory"`
}

func (f *promptFile) byPhase() map[phase.Phase]string {
	return map[phase.Phase]string{
		phase.Denial:     f.Denial,
		phase.Doubt:      f.Doubt,
		phase.Conflict:   f.Conflict,
		phase.Acceptance: f.Acceptance,
		phase.Victory:    f.Victory,
	}
}

type PromptValidator struct {
	errors []string
}

func (v *PromptValidator) validateFile(filename string) error {
	fmt.Printf("Validating %s...\n", filename)

	baseName := filepath.Base(filename)
	ext := filepath.Ext(baseName)
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("prompts file must have .yaml or .yml extension: %s", baseName)
	}

	nameWithoutExt := strings.TrimSuffix(baseName, ext)
	if !isValidFilename(nameWithoutExt) {
		return fmt.Errorf("prompts filename '%s' must be lowercase snake_case (e.g., my_prompts.yaml, not My-Prompts.yaml)", baseName)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	v.errors = nil

	var f promptFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("file %s is empty", filename)
		}
		return fmt.Errorf("file %s failed strict YAML unmarshaling: %w", filename, err)
	}

	v.validatePrompts(&f)

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", filename, strings.Join(v.errors, "\n"))
	}

	// The loader is the final word.
	if _, err := phase.ParsePrompts(data); err != nil {
		return err
	}
	return nil
}

func (v *PromptValidator) validatePrompts(f *promptFile) {
	prompts := f.byPhase()
	for _, p := range phase.All {
		text := strings.TrimSpace(prompts[p])
		if text == "" {
			v.addError(fmt.Sprintf("phase '%s' has no instruction", p))
			continue
		}
		v.validateInstruction(p, text)
	}
}

// validateInstruction checks that an instruction frames the identity game.
// Every phase has to tell the model who it thinks it is.
func (v *PromptValidator) validateInstruction(p phase.Phase, text string) {
	if !mentionsRole.MatchString(text) {
		v.addError(fmt.Sprintf("phase '%s' instruction never mentions ChatGPT or Gemini", p))
	}
	if len(text) > maxInstructionLength {
		v.addError(fmt.Sprintf("phase '%s' instruction is %d bytes, limit is %d", p, len(text), maxInstructionLength))
	}
}

func (v *PromptValidator) addError(msg string) {
	v.errors = append(v.errors, "  - "+msg)
}

const maxInstructionLength = 8000

var (
	mentionsRole       = regexp.MustCompile(`(?i)\b(chatgpt|gemini)\b`)
	validFilenameRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)
)

func isValidFilename(name string) bool {
	return validFilenameRegex.MatchString(name)
}
