package libmap

import (
	"encoding/json"
	"fmt"
)

// Statement is a single entry of a cell library map file.
// The on-disk JSON shape discriminates the variant by its field names.
type Statement interface {
	statement()
}

type Comment struct {
	Text string
}

// Definition assigns a library name to a library layout file.
// The path may be relative to the map file which contains the definition.
type Definition struct {
	Name string
	Path string
}

// Include pulls in all statements of another map file.
// The path may be relative to the map file which contains the include.
type Include struct {
	Path string
}

func (Comment) statement()    {}
func (Definition) statement() {}
func (Include) statement()    {}

// jsonStatement is the union of all persisted statement fields.
// Exactly one variant's field set must be present.
type jsonStatement struct {
	Comment     *string `json:"comment,omitempty"`
	LibName     *string `json:"lib_name,omitempty"`
	LibPath     *string `json:"lib_path,omitempty"`
	IncludePath *string `json:"include_path,omitempty"`
}

func marshalStatement(s Statement) (jsonStatement, error) {
	switch variant := s.(type) {
	case Comment:
		return jsonStatement{Comment: &variant.Text}, nil
	case Definition:
		return jsonStatement{LibName: &variant.Name, LibPath: &variant.Path}, nil
	case Include:
		return jsonStatement{IncludePath: &variant.Path}, nil
	default:
		return jsonStatement{}, fmt.Errorf("statement of unknown type %T", s)
	}
}

func unmarshalStatement(raw json.RawMessage) (Statement, error) {
	var fields jsonStatement
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	switch {
	case fields.Comment != nil && fields.LibName == nil && fields.LibPath == nil && fields.IncludePath == nil:
		return Comment{Text: *fields.Comment}, nil
	case fields.LibName != nil && fields.LibPath != nil && fields.Comment == nil && fields.IncludePath == nil:
		return Definition{Name: *fields.LibName, Path: *fields.LibPath}, nil
	case fields.IncludePath != nil && fields.Comment == nil && fields.LibName == nil && fields.LibPath == nil:
		return Include{Path: *fields.IncludePath}, nil
	}
	return nil, fmt.Errorf("statement is neither comment nor library definition nor include: %s", string(raw))
}
