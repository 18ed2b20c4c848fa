// Package relation loads delimited text files into the embedded SQL engine
// and runs query cells against them.
package relation

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// DefaultName is the relation name used when a Source leaves it empty.
const DefaultName = "data"

// DefaultDelimiter is the field separator used when a Source leaves it empty.
const DefaultDelimiter = ","

// Source describes a delimited text file to expose as a queryable relation.
type Source struct {
	Name      string `yaml:"relation" json:"relation"`
	Path      string `yaml:"path" json:"path"`
	Delimiter string `yaml:"delimiter" json:"delimiter"`
	// Header is a pointer so an omitted key in a notebook means "true".
	Header *bool `yaml:"header,omitempty" json:"header,omitempty"`
}

// Normalize returns a copy with defaults applied.
func (s Source) Normalize() Source {
	if s.Name == "" {
		s.Name = DefaultName
	}
	if s.Delimiter == "" {
		s.Delimiter = DefaultDelimiter
	}
	if s.Header == nil {
		h := true
		s.Header = &h
	}
	return s
}

// HasHeader reports whether the first line of the file holds column names.
func (s Source) HasHeader() bool {
	return s.Header == nil || *s.Header
}

// Validate checks that the source can be handed to the engine.
func (s Source) Validate() error {
	if s.Path == "" {
		return errors.New("source path is required")
	}
	if s.Delimiter != "" && utf8.RuneCountInString(s.Delimiter) != 1 {
		return fmt.Errorf("delimiter must be a single character, got %q", s.Delimiter)
	}
	return nil
}
