// Package common holds small enums shared by the compiler core, the
// configuration layer and the command line front end.
package common

import (
	"fmt"
	"path/filepath"
	"strings"
)

// OutputStyle selects CSS output formatting.
type OutputStyle int

const (
	// OutputStyleExpanded writes each selector and declaration on its own line.
	OutputStyleExpanded OutputStyle = iota
	// OutputStyleCompressed removes as many extra characters as possible.
	OutputStyleCompressed
)

var outputStyleNames = []string{"expanded", "compressed"}

// OutputStyleNames returns list of possible string values of OutputStyle.
func OutputStyleNames() []string {
	return append([]string(nil), outputStyleNames...)
}

func (s OutputStyle) String() string {
	if s >= 0 && int(s) < len(outputStyleNames) {
		return outputStyleNames[s]
	}
	return fmt.Sprintf("OutputStyle(%d)", int(s))
}

// ParseOutputStyle attempts to convert a string to an OutputStyle.
func ParseOutputStyle(name string) (OutputStyle, error) {
	for i, n := range outputStyleNames {
		if strings.EqualFold(n, name) {
			return OutputStyle(i), nil
		}
	}
	return OutputStyle(0), fmt.Errorf("%s is not a valid OutputStyle, try [%s]", name, strings.Join(outputStyleNames, ", "))
}

// MarshalText implements the text marshaller method.
func (s OutputStyle) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements the text unmarshaller method.
func (s *OutputStyle) UnmarshalText(text []byte) error {
	v, err := ParseOutputStyle(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Syntax of the source stylesheet.
type InputSyntax int

const (
	// InputSyntaxAuto selects syntax from the file extension.
	InputSyntaxAuto InputSyntax = iota
	// InputSyntaxScss is the brace based CSS superset.
	InputSyntaxScss
	// InputSyntaxSass is the indentation based syntax.
	InputSyntaxSass
	// InputSyntaxCss is plain CSS, no Sass features are interpreted.
	InputSyntaxCss
)

var inputSyntaxNames = []string{"auto", "scss", "sass", "css"}

// InputSyntaxNames returns list of possible string values of InputSyntax.
func InputSyntaxNames() []string {
	return append([]string(nil), inputSyntaxNames...)
}

func (s InputSyntax) String() string {
	if s >= 0 && int(s) < len(inputSyntaxNames) {
		return inputSyntaxNames[s]
	}
	return fmt.Sprintf("InputSyntax(%d)", int(s))
}

// ParseInputSyntax attempts to convert a string to an InputSyntax.
func ParseInputSyntax(name string) (InputSyntax, error) {
	for i, n := range inputSyntaxNames {
		if strings.EqualFold(n, name) {
			return InputSyntax(i), nil
		}
	}
	return InputSyntax(0), fmt.Errorf("%s is not a valid InputSyntax, try [%s]", name, strings.Join(inputSyntaxNames, ", "))
}

// MarshalText implements the text marshaller method.
func (s InputSyntax) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements the text unmarshaller method.
func (s *InputSyntax) UnmarshalText(text []byte) error {
	v, err := ParseInputSyntax(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ForPath resolves automatic syntax selection using file extension, anything
// unknown is treated as SCSS.
func (s InputSyntax) ForPath(path string) InputSyntax {
	if s != InputSyntaxAuto {
		return s
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".sass":
		return InputSyntaxSass
	case ".css":
		return InputSyntaxCss
	default:
		return InputSyntaxScss
	}
}
