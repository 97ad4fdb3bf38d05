package libmap

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMapFileRoundtrip(t *testing.T) {
	mapDir := t.TempDir()
	mapFilePath := filepath.Join(mapDir, "example.klib")

	original := &Config{Technology: "sg13g2", Statements: []Statement{
		Comment{Text: "cell library map file example"},
		Comment{Text: "------- library definitions -------"},
		Definition{Name: "my_stdcells", Path: "my_stdcells.gds.gz"},
		Comment{Text: "------- other map file includes -------"},
		Include{Path: "default_lib.klib"},
	}}

	if err := original.WriteFile(mapFilePath); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(mapFilePath + workInProgressFileSuffix); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("work-in-progress file left behind")
	}

	reloaded, err := ReadFile(mapFilePath)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Technology != "sg13g2" {
		t.Errorf("technology not preserved, got %q", reloaded.Technology)
	}
	if len(reloaded.Statements) != len(original.Statements) {
		t.Fatalf("statement count changed from %d to %d", len(original.Statements), len(reloaded.Statements))
	}
	for i := range original.Statements {
		if reloaded.Statements[i] != original.Statements[i] {
			t.Errorf("statement #%d changed from %#v to %#v", i+1, original.Statements[i], reloaded.Statements[i])
		}
	}
	if definitions := reloaded.Definitions(); len(definitions) != 1 || definitions[0].Name != "my_stdcells" {
		t.Errorf("unexpected definitions: %#v", definitions)
	}
	if includes := reloaded.Includes(); len(includes) != 1 || includes[0].Path != "default_lib.klib" {
		t.Errorf("unexpected includes: %#v", includes)
	}
}

func TestMapFileParseErrors(t *testing.T) {
	tests := []struct {
		name            string
		content         string
		expectLine      int
		expectStatement int
	}{
		{name: "BrokenSyntax", content: "{\"technology\": \"\",\n\"statements\": [}", expectLine: 2},
		{name: "UnknownStatementShape", content: `{"technology": "", "statements": [{"comment": "fine"}, {"frobnicate": true}]}`, expectStatement: 2},
		{name: "MixedVariantFields", content: `{"technology": "", "statements": [{"lib_name": "a", "include_path": "b.klib"}]}`, expectStatement: 1},
		{name: "NotAnObject", content: `[1, 2, 3]`, expectLine: 1},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := FromJSON([]byte(test.content), "bad.klib")
			if err == nil {
				t.Fatal("parse error expected")
			}
			var parseError *ParseError
			if !errors.As(err, &parseError) {
				t.Fatalf("unexpected error type: %v", err)
			}
			if parseError.File != "bad.klib" {
				t.Errorf("file context missing, got %q", parseError.File)
			}
			if test.expectLine != 0 && parseError.Line != test.expectLine {
				t.Errorf("expected line %d, got %d (%v)", test.expectLine, parseError.Line, err)
			}
			if test.expectStatement != 0 && parseError.Statement != test.expectStatement {
				t.Errorf("expected statement #%d, got #%d (%v)", test.expectStatement, parseError.Statement, err)
			}
			if !strings.Contains(parseError.Error(), "bad.klib") {
				t.Errorf("error message lacks file context: %v", parseError)
			}
		})
	}
}
