package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/codegangsta/cli"
	"github.com/op/go-logging"

	"saturnus/pkg/ast"
	"saturnus/pkg/compiler"
	"saturnus/pkg/utils"
)

var log = logging.MustGetLogger("saturnus")

var optionFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "config, c",
		Usage: "JSON file with compiler options",
	},
	cli.IntFlag{
		Name:  "indent",
		Value: compiler.DefaultIndentWidth,
		Usage: "spaces per indentation level",
	},
	cli.BoolFlag{
		Name:  "use-tabs",
		Usage: "indent with tabs, ignores --indent",
	},
	cli.BoolFlag{
		Name:  "no-std",
		Usage: "leave the std module out of the output",
	},
	cli.DurationFlag{
		Name:  "timeout",
		Usage: "upper bound for a single macro invocation",
	},
	cli.BoolFlag{
		Name:  "verbose",
		Usage: "log pipeline stages",
	},
}

func main() {
	app := cli.NewApp()

	app.Name = "saturnus"
	app.Usage = "compile Saturnus programs to Lua"
	app.Version = compiler.StdVersion
	app.Commands = []cli.Command{
		{
			Name:   "compile",
			Usage:  "compile a JSON encoded program to Lua",
			Action: handleCompile,
			Flags: append([]cli.Flag{
				cli.StringFlag{
					Name:  "output, o",
					Usage: "output file, defaults to the input with a .lua extension",
				},
				cli.BoolFlag{
					Name:  "print, p",
					Usage: "print the result instead of writing a file",
				},
			}, optionFlags...),
		},
		{
			Name:   "expand",
			Usage:  "print the program after macro expansion, as JSON",
			Action: handleExpand,
			Flags:  optionFlags,
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func setupLogging(verbose bool) {
	be := logging.NewLogBackend(os.Stderr, "", 0)
	f := logging.MustStringFormatter("%{level:.1s} %{message}")
	lvl := logging.AddModuleLevel(logging.NewBackendFormatter(be, f))
	if verbose {
		lvl.SetLevel(logging.DEBUG, "")
	} else {
		lvl.SetLevel(logging.WARNING, "")
		// Macro print output is shown without --verbose.
		lvl.SetLevel(logging.NOTICE, "macro")
	}
	logging.SetBackend(lvl)
}

func loadOptions(c *cli.Context) (*compiler.Options, error) {
	opts := compiler.DefaultOptions()
	if path := c.String("config"); path != "" {
		o, err := compiler.LoadOptions(path)
		if err != nil {
			return nil, err
		}
		opts = o
	}
	if c.IsSet("indent") {
		opts.IndentWidth = c.Int("indent")
	}
	if c.Bool("use-tabs") {
		opts.UseTabs = true
	}
	if c.Bool("no-std") {
		opts.NoStd = true
	}
	if c.IsSet("timeout") {
		opts.MacroTimeout = compiler.Duration(c.Duration("timeout"))
	}
	return opts, opts.Validate()
}

func readProgram(c *cli.Context) (string, *ast.Program) {
	if len(c.Args()) == 0 {
		fmt.Fprintf(os.Stderr, "an input file is required\n")
		os.Exit(1)
	}
	in := c.Args()[0]
	bs, err := os.ReadFile(in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read error: %v\n", err)
		os.Exit(1)
	}
	p, err := ast.UnmarshalProgram(bs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", in, err)
		os.Exit(1)
	}
	return in, p
}

func setup(c *cli.Context) (string, *ast.Program, *compiler.Options) {
	setupLogging(c.Bool("verbose"))
	opts, err := loadOptions(c)
	if err != nil {
		fmt.Fprintf(os.Stderr, "options error: %v\n", err)
		os.Exit(1)
	}
	in, p := readProgram(c)
	return in, p, opts
}

func handleCompile(c *cli.Context) {
	in, p, opts := setup(c)
	start := time.Now()
	out, err := compiler.Compile(context.Background(), p, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "compile error: %v\n", err)
		os.Exit(1)
	}
	log.Debugf("compiled %s in %s", in, time.Since(start))

	if c.Bool("print") {
		fmt.Println(out)
		return
	}
	outPath := utils.OutputPath(in, c.String("output"))
	if err := os.WriteFile(outPath, []byte(out+"\n"), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "write error: %v\n", err)
		os.Exit(1)
	}
	log.Infof("wrote %s", outPath)
}

func handleExpand(c *cli.Context) {
	_, p, opts := setup(c)
	expanded, err := compiler.Expand(context.Background(), p, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "expand error: %v\n", err)
		os.Exit(1)
	}
	bs, err := ast.MarshalProgram(expanded)
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(bs))
}
