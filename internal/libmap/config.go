package libmap

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

const workInProgressFileSuffix = ".wip"

// Config is the in-memory form of a cell library map file (*.klib).
// Statement order is preserved because it determines resolution order.
type Config struct {
	Technology string
	Statements []Statement
}

// ParseError reports a malformed map file.
// Line is 1-based and 0 if the position cannot be narrowed down to a line,
// in which case Statement (1-based as well) may locate the offender instead.
type ParseError struct {
	File      string
	Line      int
	Statement int
	cause     error
}

func (e *ParseError) Error() string {
	var position string
	switch {
	case e.Line > 0:
		position = fmt.Sprintf(", line %d", e.Line)
	case e.Statement > 0:
		position = fmt.Sprintf(", statement #%d", e.Statement)
	}
	return fmt.Sprintf("malformed library map file (%s%s): %s", e.File, position, e.cause)
}

func (e *ParseError) Unwrap() error {
	return e.cause
}

type jsonConfig struct {
	Technology string            `json:"technology"`
	Statements []json.RawMessage `json:"statements"`
}

// FromJSON parses the content of a map file.
// The file name is only used for error context.
func FromJSON(content []byte, file string) (*Config, error) {
	decoder := json.NewDecoder(bytes.NewReader(content))
	decoder.DisallowUnknownFields()

	var raw jsonConfig
	if err := decoder.Decode(&raw); err != nil {
		return nil, &ParseError{File: file, Line: lineOfOffset(content, decodeErrorOffset(err)), cause: err}
	}

	config := &Config{Technology: raw.Technology}
	for i, rawStatement := range raw.Statements {
		statement, err := unmarshalStatement(rawStatement)
		if err != nil {
			return nil, &ParseError{File: file, Statement: i + 1, cause: err}
		}
		config.Statements = append(config.Statements, statement)
	}
	return config, nil
}

// ReadFile loads and parses the map file at the given path.
func ReadFile(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading library map failed: %w", err)
	}
	return FromJSON(content, path)
}

func (c *Config) ToJSON() ([]byte, error) {
	raw := jsonConfig{Technology: c.Technology, Statements: []json.RawMessage{}}
	for _, statement := range c.Statements {
		fields, err := marshalStatement(statement)
		if err != nil {
			return nil, err
		}
		encoded, err := json.Marshal(fields)
		if err != nil {
			return nil, err
		}
		raw.Statements = append(raw.Statements, encoded)
	}
	var pretty bytes.Buffer
	encoder := json.NewEncoder(&pretty)
	encoder.SetIndent("", "    ")
	if err := encoder.Encode(raw); err != nil {
		return nil, err
	}
	return pretty.Bytes(), nil
}

// WriteFile persists the map atomically, first to a work-in-progress file
// which then replaces the target.
func (c *Config) WriteFile(path string) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("saving library map failed: %w", err)
		}
	}()

	content, err := c.ToJSON()
	if err != nil {
		return
	}

	tempPath := path + workInProgressFileSuffix
	if err = os.WriteFile(tempPath, content, 0666); err != nil {
		return
	}
	if err = os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("replacing map file (%s) with temporary working copy (%s) failed: %w", path, tempPath, err)
	}
	return nil
}

// Definitions lists the library definitions of this file only, includes unresolved.
func (c *Config) Definitions() (definitions []Definition) {
	for _, statement := range c.Statements {
		if definition, isOne := statement.(Definition); isOne {
			definitions = append(definitions, definition)
		}
	}
	return
}

// Includes lists the include statements of this file only.
func (c *Config) Includes() (includes []Include) {
	for _, statement := range c.Statements {
		if include, isOne := statement.(Include); isOne {
			includes = append(includes, include)
		}
	}
	return
}

func decodeErrorOffset(err error) int64 {
	var syntaxError *json.SyntaxError
	if errors.As(err, &syntaxError) {
		return syntaxError.Offset
	}
	var typeError *json.UnmarshalTypeError
	if errors.As(err, &typeError) {
		return typeError.Offset
	}
	return 0
}

func lineOfOffset(content []byte, offset int64) int {
	if offset <= 0 || offset > int64(len(content)) {
		return 0
	}
	return 1 + bytes.Count(content[:offset], []byte("\n"))
}
