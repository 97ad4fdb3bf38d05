package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/n2code/cellarer"
	"github.com/n2code/cellarer/cmd/cellarer/flags"
	"github.com/n2code/cellarer/internal/layout"
	"github.com/n2code/cellarer/internal/settings"
	"golang.org/x/term"
)

type CliRequest struct {
	verbose     bool
	quiet       bool
	plain       bool
	action      string
	actionFlags map[string]interface{}
	actionArgs  []string
}

func parseFlags(args []string, out io.Writer, errOut io.Writer) (request *CliRequest, exitCode int) {
	globals := flag.NewFlagSet("", flag.ExitOnError)
	globals.Usage = func() {
		globals.Output().Write([]byte(`
Usage:
   cellarer [-v|-q] [-p] [-h] <ACTION> [FLAG] [TARGET]

 ACTIONs:  new  status  map  tree  dump  reload  manage  save  watch  id

`))
		globals.PrintDefaults()
		globals.Output().Write([]byte(`
 FLAG(s) and TARGET(s) are action-specific.
 You can read the help on any action:
    cellarer <ACTION> -h

`))
	}

	request = &CliRequest{}
	var generalHelpRequested bool
	globals.BoolVar(&request.verbose, flags.Verbose, false, "Output more details on what is done (verbose mode)")
	globals.BoolVar(&request.quiet, flags.Quiet, false, "Output as little as possible, i.e. only requested information (quiet mode)")
	globals.BoolVar(&request.plain, flags.Plain, false, "Do not use terminal escape sequences (plain mode)")
	globals.BoolVar(&generalHelpRequested, flags.Help, false, "Display general usage help")

	var err error
	defer func() {
		if err != nil {
			fmt.Fprintf(errOut, "%s\nUsage help: cellarer -h\n", err)
			exitCode = 2
			request = nil
		}
	}()

	globals.Parse(args) //exits on error

	if generalHelpRequested {
		globals.Usage()
		exitCode = 0
		request = nil
		return
	}
	if globals.NArg() == 0 {
		err = errors.New("No arguments given!")
		return
	}
	if request.verbose && request.quiet {
		err = errors.New("Quiet mode and verbose mode are mutually exclusive!")
		return
	}

	request.action = globals.Arg(0)
	request.actionFlags = make(map[string]interface{})
	request.actionArgs = globals.Args()[1:]
	actionDescriptionIndent := "  "
	actionDescription := actionDescriptionIndent
	flagSpecification := ""
	argumentSpecification := ""

	actionParams := flag.NewFlagSet(request.action+" action", flag.ExitOnError)
	actionParams.Usage = func() {
		fmt.Fprintf(actionParams.Output(), `
Usage of %s action:
   cellarer [MODE] %s%s%s

%s
`, request.action, request.action, flagSpecification, argumentSpecification, actionDescription)
		if len(flagSpecification) > 0 {
			fmt.Fprint(actionParams.Output(), `
 Available flags:
`)
		}
		actionParams.PrintDefaults()
		fmt.Fprintf(actionParams.Output(), `
 Global MODE documentation can be shown by:
    cellarer -h

`)
	}

ActionParamCheck:
	switch request.action {
	case "new":
		flagSpecification = " [-technology=...] [-top-cell=...] [-map=empty|link|copy] [-template=...] [-force]"
		argumentSpecification = " LAYOUTPATH"
		actionDescription += "Create a hierarchical layout file at LAYOUTPATH together with its\n" +
			actionDescriptionIndent + "cell library map. The map starts empty, includes a template map or\n" +
			actionDescriptionIndent + "copies one, depending on the chosen map mode."
		request.actionFlags[flags.NewWithTechnology] = actionParams.String(flags.NewWithTechnology, "", "technology name to record in the map header\n(defaults to the configured default technology)")
		request.actionFlags[flags.NewWithTopCell] = actionParams.String(flags.NewWithTopCell, "", "name of the top cell, recorded in the map header")
		request.actionFlags[flags.NewMapMode] = actionParams.String(flags.NewMapMode, "empty", "map creation mode: \"empty\", \"link\" (include template)\nor \"copy\" (duplicate template)")
		request.actionFlags[flags.NewFromTemplate] = actionParams.String(flags.NewFromTemplate, "", "template map file for map modes \"link\" and \"copy\"\n(defaults to the configured template map)")
		request.actionFlags[flags.Force] = actionParams.Bool(flags.Force, false, "overwrite existing files at the target path")
		actionParams.Parse(request.actionArgs)
		request.actionArgs = actionParams.Args()
		if actionParams.NArg() != 1 {
			err = errors.New("bad number of arguments, exactly one expected")
			break ActionParamCheck
		}
	case "save":
		flagSpecification = " [-as=TARGETPATH] [-force]"
		argumentSpecification = " [LAYOUTPATH]"
		actionDescription += "Rewrite the cell library map of the layout in normalized form.\n" +
			actionDescriptionIndent + "With a target path the whole file set is saved as a copy there and\n" +
			actionDescriptionIndent + "subsequent output refers to the copy."
		request.actionFlags[flags.SaveAsTarget] = actionParams.String(flags.SaveAsTarget, "", "save the file set under this path instead of in place")
		request.actionFlags[flags.Force] = actionParams.Bool(flags.Force, false, "overwrite existing files at the target path")
		actionParams.Parse(request.actionArgs)
		request.actionArgs = actionParams.Args()
		if actionParams.NArg() > 1 {
			err = errors.New("too many arguments")
			break ActionParamCheck
		}
	case "status", "map", "tree", "dump", "reload", "manage", "watch", "id":
		argumentSpecification = " [LAYOUTPATH]"
		switch request.action {
		case "status":
			actionDescription += "Check the entries of the layout's own map file and print a verdict\n" +
				actionDescriptionIndent + "for each, followed by a full resolution check."
		case "map":
			actionDescription += "Resolve the cell library map with all includes and print the\n" +
				actionDescriptionIndent + "effective library definitions."
		case "tree":
			actionDescription += "Display the include graph of the cell library map as a tree with\n" +
				actionDescriptionIndent + "the library definitions attached to their defining file."
		case "dump":
			actionDescription += "Load all libraries of the resolved map and print their records\n" +
				actionDescriptionIndent + "(file, size, checksum, modification time)."
		case "reload":
			actionDescription += "Resolve the cell library map and load all effective libraries,\n" +
				actionDescriptionIndent + "reporting the outcome per library."
		case "manage":
			actionDescription += "Edit the cell library map interactively: add, remove, rename and\n" +
				actionDescriptionIndent + "repath library definitions and includes."
		case "watch":
			actionDescription += "Keep the libraries in sync with the file system: whenever a map\n" +
				actionDescriptionIndent + "file or a library file changes the map is re-resolved and the\n" +
				actionDescriptionIndent + "libraries are reloaded. Stop with Ctrl+C."
		case "id":
			actionDescription += "Print the ID stamped into the map file when the layout was created."
		}
		actionDescription += "\n" +
			actionDescriptionIndent + "If LAYOUTPATH is omitted the sole layout file of the current\n" +
			actionDescriptionIndent + "directory is used."
		actionParams.Parse(request.actionArgs)
		request.actionArgs = actionParams.Args()
		if actionParams.NArg() > 1 {
			err = errors.New("too many arguments")
			break ActionParamCheck
		}
	default:
		err = fmt.Errorf(`unknown action "%s"`, request.action)
	}
	return
}

func (rq *CliRequest) execute() (execErr error) {
	var config cellarer.CreateConfig
	if rq.verbose {
		config.Verbosity = cellarer.VerboseMode
	}
	if rq.quiet {
		config.Verbosity = cellarer.QuietMode
	}
	fancy := !rq.plain && term.IsTerminal(int(os.Stdout.Fd()))
	config.FancyTerminalFeatures = fancy

	settingsPath, settingsErr := settings.DefaultFilePath()
	var prefs settings.Settings
	if settingsErr == nil {
		prefs, _ = settings.Load(settingsPath) //defaults are acceptable if unreadable
	}
	rememberLocation := func(api cellarer.Cellarer) {
		if settingsErr != nil {
			return
		}
		prefs.RememberDirectory(api.LayoutPath())
		_ = prefs.Save(settingsPath) //best effort, settings are a convenience
	}

	if rq.action == "new" {
		options := cellarer.NewLayoutOptions{
			Technology:      *(rq.actionFlags[flags.NewWithTechnology].(*string)),
			TopCell:         *(rq.actionFlags[flags.NewWithTopCell].(*string)),
			TemplateMapPath: *(rq.actionFlags[flags.NewFromTemplate].(*string)),
			Overwrite:       *(rq.actionFlags[flags.Force].(*bool)),
		}
		if options.Technology == "" {
			options.Technology = prefs.DefaultTechnology
		}
		if options.TemplateMapPath == "" {
			options.TemplateMapPath = prefs.TemplateMapPath
		}
		switch mode := *(rq.actionFlags[flags.NewMapMode].(*string)); mode {
		case "empty":
			options.MapCreation = cellarer.CreateEmptyMap
		case "link":
			options.MapCreation = cellarer.LinkTemplateMap
		case "copy":
			options.MapCreation = cellarer.CopyTemplateMap
		default:
			return fmt.Errorf(`unknown map creation mode "%s"`, mode)
		}
		api, err := cellarer.New(rq.actionArgs[0], options, config)
		if err != nil {
			return err
		}
		rememberLocation(api)
		return nil
	}

	layoutPath, err := locateLayout(rq.actionArgs, prefs)
	if err != nil {
		return err
	}
	api, err := cellarer.Open(layoutPath, config)
	if err != nil {
		return err
	}

	switch rq.action {
	case "status":
		problems, err := api.PrintStatus()
		if err != nil {
			return err
		}
		if problems > 0 {
			return fmt.Errorf("%d problem(s) in cell library map", problems)
		}
	case "map":
		return api.PrintMap()
	case "tree":
		return api.PrintIncludeTree()
	case "dump":
		if err := api.ReloadLibraries(); err != nil {
			return err
		}
		api.PrintRecords()
	case "reload":
		return api.ReloadLibraries()
	case "manage":
		cancelled, err := api.InteractiveManage(PromptUser(fancy), PromptText())
		if err != nil {
			return err
		}
		if cancelled && !rq.quiet {
			fmt.Fprintln(os.Stdout, "(map not modified)")
		}
	case "save":
		target := *(rq.actionFlags[flags.SaveAsTarget].(*string))
		if target == "" {
			if err := api.Save(); err != nil {
				return err
			}
		} else {
			if err := api.SaveAs(target, *(rq.actionFlags[flags.Force].(*bool))); err != nil {
				return err
			}
			rememberLocation(api)
		}
	case "watch":
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		return api.WatchLibraries(ctx)
	case "id":
		id, stamped := api.LayoutId()
		if !stamped {
			return fmt.Errorf("layout %s carries no ID stamp", layoutPath)
		}
		fmt.Fprintln(os.Stdout, id)
	default:
		panic("bad action")
	}
	return nil
}

// locateLayout picks the action target: an explicit argument wins, otherwise
// the sole layout file of the working directory and as a last resort the sole
// layout file of the most recently used directory.
func locateLayout(args []string, prefs settings.Settings) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	if sole, found := soleLayoutIn("."); found {
		return sole, nil
	}
	if prefs.LastDirectory != "" {
		if sole, found := soleLayoutIn(prefs.LastDirectory); found {
			return sole, nil
		}
	}
	return "", errors.New("no layout file given and none found in the current directory")
}

func soleLayoutIn(folder string) (path string, found bool) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return "", false
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), layout.LayoutFileSuffix) {
			continue
		}
		if found {
			return "", false //ambiguous
		}
		path = filepath.Join(folder, entry.Name())
		found = true
	}
	return
}

func main() {
	rq, rc := parseFlags(os.Args[1:], os.Stdout, os.Stderr)
	if rc != 0 || rq == nil {
		os.Exit(rc)
	}
	if err := rq.execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(0)
}
