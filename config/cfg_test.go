package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rupor-github/gencfg"

	"sassy/common"
)

func TestLoadConfiguration_NoFile(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() with empty path error = %v", err)
	}

	if cfg == nil {
		t.Fatal("LoadConfiguration() returned nil config")
	}

	if cfg.Version != 1 {
		t.Errorf("Default config version = %d, want 1", cfg.Version)
	}
	if cfg.Compiler.OutputName != "{{ .Name }}.css" {
		t.Errorf("Default output name template = %q, should be kept unexpanded", cfg.Compiler.OutputName)
	}
}

func TestLoadConfiguration_WithFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `version: 1
compiler:
  style: compressed
  input_syntax: sass
  load_paths: ["node_modules", "vendor/styles"]
  unicode_errors: false
  quiet: true
  max_depth: 50
logging:
  console:
    level: normal
  file:
    level: debug
    destination: ` + filepath.Join(tmpDir, "test.log") + `
    mode: append
reporting:
  destination: ` + filepath.Join(tmpDir, "test-report.zip") + `
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := LoadConfiguration(configPath)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	c := cfg.Compiler
	if c.Style != common.OutputStyleCompressed {
		t.Errorf("Style = %v, want compressed", c.Style)
	}
	if c.InputSyntax != common.InputSyntaxSass {
		t.Errorf("InputSyntax = %v, want sass", c.InputSyntax)
	}
	if len(c.LoadPaths) != 2 || c.LoadPaths[1] != "vendor/styles" {
		t.Errorf("LoadPaths = %v", c.LoadPaths)
	}
	if c.UnicodeErrors || !c.Quiet || c.MaxDepth != 50 {
		t.Errorf("unexpected compiler section: %+v", c)
	}
	// values absent from the file keep defaults
	if !c.AllowsCharset {
		t.Error("AllowsCharset default lost")
	}
	if cfg.Logging.FileLogger.Mode != "append" {
		t.Errorf("FileLogger.Mode = %q, want append", cfg.Logging.FileLogger.Mode)
	}
}

func TestLoadConfiguration_NonExistentFile(t *testing.T) {
	_, err := LoadConfiguration("/nonexistent/config.yaml")
	if err == nil {
		t.Error("Expected error for nonexistent file")
	}
}

func TestLoadConfiguration_BadFiles(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "invalid yaml", content: "version: 1\ncompiler:\n  quiet: true\n  invalid indent\n"},
		{name: "unknown field", content: "version: 1\nunknown_field: value\n"},
		{name: "invalid version", content: "version: 2\n"},
		{name: "invalid style", content: "version: 1\ncompiler:\n  style: nested\n"},
		{name: "invalid depth", content: "version: 1\ncompiler:\n  max_depth: 0\n"},
		{name: "empty load path", content: "version: 1\ncompiler:\n  load_paths: [\"\"]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(configPath, []byte(tt.content), 0644); err != nil {
				t.Fatalf("Failed to write config file: %v", err)
			}
			if _, err := LoadConfiguration(configPath); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestLoadConfiguration_WithOptions(t *testing.T) {
	option := func(opts *gencfg.ProcessingOptions) {
		// Options are opaque, just test that we can pass them
	}

	cfg, err := LoadConfiguration("", option)
	if err != nil {
		t.Fatalf("LoadConfiguration() with options error = %v", err)
	}

	if cfg == nil {
		t.Fatal("LoadConfiguration() returned nil config")
	}
}

func TestPrepare(t *testing.T) {
	data, err := Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	if !strings.Contains(string(data), "compiler:") {
		t.Errorf("Prepare() output lacks compiler section:\n%s", data)
	}

	cfg := &Config{}
	if _, err = unmarshalConfig(data, cfg, true); err != nil {
		t.Errorf("Prepared config is not valid: %v", err)
	}
}

func TestDump(t *testing.T) {
	cfg := &Config{
		Version: 1,
		Compiler: CompilerConfig{
			Style:     common.OutputStyleCompressed,
			LoadPaths: []string{"lib"},
			MaxDepth:  100,
		},
	}

	data, err := Dump(cfg)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	if !strings.Contains(string(data), "style: compressed") {
		t.Errorf("Dump() does not use style names:\n%s", data)
	}

	cfg2 := &Config{}
	if _, err = unmarshalConfig(data, cfg2, false); err != nil {
		t.Fatalf("Dumped config cannot be loaded: %v", err)
	}
	if cfg2.Compiler.Style != cfg.Compiler.Style || len(cfg2.Compiler.LoadPaths) != 1 {
		t.Errorf("compiler section mismatch after dump/load: %+v", cfg2.Compiler)
	}
}

func TestConfig_DefaultValues(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	c := cfg.Compiler
	if c.Style != common.OutputStyleExpanded || c.InputSyntax != common.InputSyntaxAuto {
		t.Errorf("unexpected default style/syntax: %v/%v", c.Style, c.InputSyntax)
	}
	if !c.UnicodeErrors || !c.AllowsCharset || c.Quiet {
		t.Errorf("unexpected default flags: %+v", c)
	}
	if c.MaxDepth != 2000 {
		t.Errorf("MaxDepth = %d, want 2000", c.MaxDepth)
	}
	if cfg.Logging.ConsoleLogger.Level != "normal" {
		t.Errorf("console level = %q, want normal", cfg.Logging.ConsoleLogger.Level)
	}
}

func TestUnmarshalConfig_WrapsValidationError(t *testing.T) {
	data := []byte("version: 99\n")
	cfg := &Config{}

	_, err := unmarshalConfig(data, cfg, true)
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	if !strings.Contains(err.Error(), "validat") {
		t.Errorf("expected error to mention validation, got: %v", err)
	}
	if errors.Unwrap(err) == nil {
		t.Errorf("expected wrapped error, got bare error: %v", err)
	}
}
