package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"

	"sassy/common"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	CompilerConfig struct {
		Style       common.OutputStyle `yaml:"style" validate:"gte=0,lte=1"`
		InputSyntax common.InputSyntax `yaml:"input_syntax" validate:"gte=0,lte=3"`
		// LoadPaths are searched for imports after the directory of the importing file.
		LoadPaths []string `yaml:"load_paths" validate:"dive,required"`
		// Archives are zip files searched for imports, "file.zip" or
		// "file.zip:prefix/" to use only part of archive.
		Archives      []string `yaml:"archives" validate:"dive,required"`
		UnicodeErrors bool     `yaml:"unicode_errors"`
		AllowsCharset bool     `yaml:"allows_charset"`
		Quiet         bool     `yaml:"quiet"`
		MaxDepth      int      `yaml:"max_depth" validate:"min=1,max=10000"`
		// OutputName is text/template for names of files produced when
		// compiling a directory.
		OutputName string `yaml:"output_name" validate:"required"`
		// SourceEncoding is IANA name of charset used for sources without BOM.
		SourceEncoding string `yaml:"source_encoding"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Compiler  CompilerConfig `yaml:"compiler"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

// OutputNameTemplateFieldName must match yaml field name above, it is expanded
// during compilation rather than when configuration is processed.
const OutputNameTemplateFieldName = "output_name"

var requiredOptions = []func(*gencfg.ProcessingOptions){
	gencfg.WithDoNotExpandField(OutputNameTemplateFieldName),
}

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		// sanitize and validate what has been loaded
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, fmt.Errorf("failed to sanitize configuration: %w", err)
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, fmt.Errorf("failed to validate configuration: %w", err)
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration template to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
