package cellarer

import (
	"fmt"
	"os"
	"regexp"

	"github.com/n2code/cellarer/internal"
	"github.com/n2code/cellarer/internal/layout"
	"github.com/n2code/cellarer/internal/libmap"
	"github.com/n2code/ndocid"
)

// MapCreationMode selects how the sidecar map of a new layout comes to be.
type MapCreationMode int

const (
	CreateEmptyMap  MapCreationMode = iota //fresh map without any entries
	LinkTemplateMap                        //fresh map including a template map file
	CopyTemplateMap                        //verbatim copy of a template map file
)

// NewLayoutOptions configure the creation of a hierarchical layout file set.
// The zero value creates an empty map and leaves the technology blank.
type NewLayoutOptions struct {
	Technology      string
	TopCell         string //informational, recorded in the map header
	MapCreation     MapCreationMode
	TemplateMapPath string //required for LinkTemplateMap and CopyTemplateMap
	Overwrite       bool
}

const generatedByComment = "Automatically generated by cellarer"

var layoutIdCommentRegex = regexp.MustCompile(`^layout-id: ([0-9A-Z]+)$`)

// New creates a hierarchical layout file set at the given path: a layout
// file carrying the OASIS envelope (content is up to the layout engine)
// and the sidecar cell library map, stamped with a fresh layout ID.
// The returned session is attached to the new file set.
func New(layoutPath string, options NewLayoutOptions, config CreateConfig) (Cellarer, error) {
	handle := makeCellarer(config)
	handle.files = layout.NewFileSet(layout.EnforceLayoutSuffix(layoutPath))

	if !options.Overwrite {
		if _, err := os.Lstat(handle.files.LayoutPath()); err == nil {
			return nil, newCommandError(fmt.Sprintf("layout creation prevented: file exists already (%s)", handle.files.LayoutPath()), nil)
		}
	}

	mapConfig := &libmap.Config{
		Technology: options.Technology,
		Statements: []libmap.Statement{
			libmap.Comment{Text: generatedByComment},
			libmap.Comment{Text: "layout-id: " + freshLayoutId()},
		},
	}
	if options.TopCell != "" {
		mapConfig.Statements = append(mapConfig.Statements, libmap.Comment{Text: "top cell: " + options.TopCell})
	}

	switch options.MapCreation {
	case CreateEmptyMap:
		if err := mapConfig.WriteFile(handle.files.MapPath()); err != nil {
			return nil, newCommandError("layout creation failed", err)
		}
	case LinkTemplateMap:
		template, err := validateTemplateMap(options.TemplateMapPath)
		if err != nil {
			return nil, err
		}
		mapConfig.Statements = append(mapConfig.Statements, libmap.Include{Path: template})
		if err := mapConfig.WriteFile(handle.files.MapPath()); err != nil {
			return nil, newCommandError("layout creation failed", err)
		}
	case CopyTemplateMap:
		template, err := validateTemplateMap(options.TemplateMapPath)
		if err != nil {
			return nil, err
		}
		content, err := os.ReadFile(template)
		if err != nil {
			return nil, newCommandError("layout creation failed", err)
		}
		if err := os.WriteFile(handle.files.MapPath(), content, 0666); err != nil {
			return nil, newCommandError("layout creation failed", err)
		}
	default:
		return nil, newCommandError(fmt.Sprintf("unknown map creation mode (%d)", options.MapCreation), nil)
	}

	if err := handle.files.WritePlaceholder(options.Overwrite); err != nil {
		return nil, newCommandError("layout creation failed", err)
	}

	fmt.Fprintf(handle.extraOut, "Created hierarchical layout %s with cell library map %s\n",
		displayablePath(handle.files.LayoutPath()), displayablePath(handle.files.MapPath()))
	return handle, nil
}

// validateTemplateMap makes sure a template is usable before any file of
// the new set is written, so that a bad template leaves no traces.
func validateTemplateMap(path string) (canonical string, err error) {
	if path == "" {
		return "", newCommandError("layout creation failed: no template map given", nil)
	}
	canonical, err = libmap.CanonicalPath(path, mustGetwd())
	if err != nil {
		return "", newCommandError("layout creation failed", err)
	}
	if _, err := libmap.ReadFile(canonical); err != nil {
		return "", newCommandError("layout creation failed: template map not usable", err)
	}
	return canonical, nil
}

func freshLayoutId() string {
	return ndocid.EncodeUint64(internal.UnixTimestampNow())
}

func (c *cellarer) LayoutId() (id string, stamped bool) {
	config, err := c.readMap()
	if err != nil {
		return "", false
	}
	for _, statement := range config.Statements {
		comment, isOne := statement.(libmap.Comment)
		if !isOne {
			continue
		}
		if match := layoutIdCommentRegex.FindStringSubmatch(comment.Text); match != nil {
			if _, err, _ := ndocid.Decode(match[1]); err == nil {
				return match[1], true
			}
		}
	}
	return "", false
}
