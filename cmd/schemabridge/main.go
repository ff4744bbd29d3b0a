package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	gojson "github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	schemabridge "github.com/reoring/schemabridge"
	"github.com/reoring/schemabridge/convert"
	js "github.com/reoring/schemabridge/jsonschema"
	"github.com/reoring/schemabridge/refs"
	"github.com/reoring/schemabridge/sanitize"
)

var (
	// errUsage is returned after usage or a flag error has been printed.
	errUsage = errors.New("usage")
	// errRejected is returned by validate once the issues are printed.
	errRejected = errors.New("instance rejected")
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes one subcommand and returns the process exit code: 0 on
// success, 1 on failure or a rejected instance, 2 on usage errors.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	c := &cli{stdin: stdin, stdout: stdout, stderr: stderr}
	if len(args) < 1 {
		c.usage()
		return 2
	}
	_ = godotenv.Load()

	var err error
	switch args[0] {
	case "sanitize":
		err = c.sanitize(args[1:])
	case "hydrate":
		err = c.hydrate(args[1:])
	case "to-dsl":
		err = c.toDSL(args[1:])
	case "defs":
		err = c.defs(args[1:])
	case "validate":
		err = c.validate(args[1:])
	default:
		c.usage()
		return 2
	}
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		return 2
	case errors.Is(err, errRejected):
		return 1
	}
	fmt.Fprintln(stderr, err)
	return 1
}

type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func (c *cli) usage() {
	fmt.Fprintln(c.stderr, `schemabridge CLI

Usage:
  schemabridge sanitize [-format json|yaml] [schema]
  schemabridge hydrate [-unresolvable warn|throw|skip] [-keep-refs KEY] [-merge MODE] [-format json|yaml] [schema]
  schemabridge to-dsl [-side input|output] [-pkg NAME -var NAME] [-o out.go] [schema]
  schemabridge defs [-side input|output] [-format json|yaml]
  schemabridge validate -schema FILE [-side input|output] [-strict-keys] [instance]

Schemas and instances are read from stdin when no file is given.
Files ending in .yaml or .yml are read as YAML.

Environment (also read from .env):
  SCHEMABRIDGE_UNRESOLVABLE    default for -unresolvable
  SCHEMABRIDGE_DSL_PACKAGE     qualifier of the dsl package in generated code
  SCHEMABRIDGE_ATOMS_PACKAGE   qualifier of the atoms package in generated code`)
}

func (c *cli) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func (c *cli) logger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(c.stderr, &slog.HandlerOptions{Level: level}))
}

func (c *cli) sanitize(args []string) error {
	fs := c.flags("sanitize")
	format := fs.String("format", "json", "output format: json or yaml")
	verbose := fs.Bool("v", false, "enable verbose logs")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	doc, err := c.loadDoc(fs.Arg(0))
	if err != nil {
		return err
	}
	n, err := sanitize.Sanitize(doc)
	if err != nil {
		return fmt.Errorf("sanitize: %w", err)
	}
	c.logger(*verbose).Debug("sanitized", "inferred", n)
	return c.writeDoc(doc, *format)
}

func (c *cli) hydrate(args []string) error {
	fs := c.flags("hydrate")
	policy := fs.String("unresolvable", envOr("SCHEMABRIDGE_UNRESOLVABLE", "warn"), "policy for unresolvable refs: warn, throw or skip")
	keep := fs.String("keep-refs", "", "member name keeping the original $ref on merged nodes")
	merge := fs.String("merge", "none", "merge mode: none, default, favor-target or favor-source")
	format := fs.String("format", "json", "output format: json or yaml")
	verbose := fs.Bool("v", false, "enable verbose logs")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	u, err := refs.ParseUnresolvable(*policy)
	if err != nil {
		return err
	}
	m, err := parseMerge(*merge)
	if err != nil {
		return err
	}
	doc, err := c.loadDoc(fs.Arg(0))
	if err != nil {
		return err
	}
	diag, err := refs.Hydrate(doc, refs.Options{
		Unresolvable: u,
		Merge:        m,
		KeepRefs:     *keep,
		Logger:       c.logger(*verbose),
	})
	if err != nil {
		return fmt.Errorf("hydrate: %w", err)
	}
	for _, w := range diag.Warnings() {
		fmt.Fprintln(c.stderr, "warning:", w)
	}
	return c.writeDoc(doc, *format)
}

func parseMerge(s string) (refs.Merge, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return refs.MergeNone, nil
	case "default":
		return refs.MergeDefault, nil
	case "favor-target":
		return refs.MergeFavorTarget, nil
	case "favor-source":
		return refs.MergeFavorSource, nil
	}
	return refs.MergeNone, fmt.Errorf("unknown merge mode %q", s)
}

func parseSide(s string) (schemabridge.Side, error) {
	switch strings.ToLower(s) {
	case "input", "in":
		return schemabridge.Input, nil
	case "output", "out":
		return schemabridge.Output, nil
	}
	return schemabridge.Input, fmt.Errorf("unknown side %q (want input or output)", s)
}

func (c *cli) toDSL(args []string) error {
	fs := c.flags("to-dsl")
	sideName := fs.String("side", "input", "input or output")
	pkg := fs.String("pkg", "", "package name; renders a whole Go file when set")
	varName := fs.String("var", "Schema", "variable name used with -pkg")
	out := fs.String("o", "", "output filename (default stdout)")
	dslPkg := fs.String("dsl-pkg", envOr("SCHEMABRIDGE_DSL_PACKAGE", "dsl"), "qualifier of the dsl package")
	atomsPkg := fs.String("atoms-pkg", envOr("SCHEMABRIDGE_ATOMS_PACKAGE", "atoms"), "qualifier of the atoms package")
	policy := fs.String("unresolvable", envOr("SCHEMABRIDGE_UNRESOLVABLE", "warn"), "policy for unresolvable refs: warn, throw or skip")
	verbose := fs.Bool("v", false, "enable verbose logs")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	side, err := parseSide(*sideName)
	if err != nil {
		return err
	}
	u, err := refs.ParseUnresolvable(*policy)
	if err != nil {
		return err
	}
	conv := convert.New(nil,
		convert.WithLogger(c.logger(*verbose)),
		convert.WithUnresolvable(u),
		convert.WithPackageNames(*dslPkg, *atomsPkg),
	)
	doc, err := c.loadDoc(fs.Arg(0))
	if err != nil {
		return err
	}
	ctx := context.Background()

	var code []byte
	if *pkg != "" {
		code, err = conv.RenderFile(ctx, doc, side, *pkg, *varName)
	} else {
		var expr string
		expr, err = conv.SchemaToDSL(ctx, doc, side)
		code = []byte(expr + "\n")
	}
	if err != nil {
		return fmt.Errorf("to-dsl: %w", err)
	}
	return c.writeOut(*out, code)
}

// defs prints the registry definitions of one side as JSON Schema.
func (c *cli) defs(args []string) error {
	fs := c.flags("defs")
	sideName := fs.String("side", "input", "input or output")
	format := fs.String("format", "json", "output format: json or yaml")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	side, err := parseSide(*sideName)
	if err != nil {
		return err
	}
	defs, err := convert.New(nil).Registry().SchemaDefinitions(side)
	if err != nil {
		return fmt.Errorf("defs: %w", err)
	}
	out := make(map[string]*js.Schema, len(defs))
	for _, d := range defs {
		s, err := d.Schema.JSONSchema()
		if err != nil {
			return fmt.Errorf("defs: %s: %w", d.Name, err)
		}
		out[d.Name] = s
	}
	b, err := gojson.MarshalIndent(map[string]any{"$defs": out}, "", "  ")
	if err != nil {
		return fmt.Errorf("defs: %w", err)
	}
	if *format == "yaml" {
		var v any
		if err := gojson.Unmarshal(b, &v); err != nil {
			return fmt.Errorf("defs: %w", err)
		}
		return c.writeYAML(v)
	}
	return c.writeOut("", append(b, '\n'))
}

func (c *cli) validate(args []string) error {
	fs := c.flags("validate")
	schemaPath := fs.String("schema", "", "JSON Schema file")
	sideName := fs.String("side", "input", "input or output")
	strictKeys := fs.Bool("strict-keys", false, "reject instances with duplicate object keys")
	verbose := fs.Bool("v", false, "enable verbose logs")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *schemaPath == "" {
		fs.Usage()
		return errUsage
	}

	side, err := parseSide(*sideName)
	if err != nil {
		return err
	}
	ctx := context.Background()
	doc, err := c.loadDoc(*schemaPath)
	if err != nil {
		return err
	}
	s, err := convert.New(nil, convert.WithLogger(c.logger(*verbose))).Compile(ctx, doc, side)
	if err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	data, err := c.readInput(fs.Arg(0))
	if err != nil {
		return err
	}
	if isYAML(fs.Arg(0)) {
		inst, err := js.ParseYAML(data)
		if err != nil {
			return fmt.Errorf("validate: %w", err)
		}
		if data, err = inst.MarshalJSON(); err != nil {
			return fmt.Errorf("validate: %w", err)
		}
	}
	decode := schemabridge.DecodeJSON
	if *strictKeys {
		decode = schemabridge.DecodeJSONStrict
	}
	v, err := decode(data)
	if err == nil {
		_, err = s.Parse(ctx, v)
	}
	if err != nil {
		if iss, ok := schemabridge.AsIssues(err); ok {
			b, _ := gojson.MarshalIndent(iss, "", "  ")
			fmt.Fprintln(c.stdout, string(b))
			return errRejected
		}
		return fmt.Errorf("validate: %w", err)
	}
	fmt.Fprintln(c.stdout, "ok")
	return nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func (c *cli) readInput(path string) ([]byte, error) {
	var (
		b   []byte
		err error
	)
	if path == "" || path == "-" {
		b, err = io.ReadAll(c.stdin)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return b, nil
}

func (c *cli) loadDoc(path string) (*js.Document, error) {
	data, err := c.readInput(path)
	if err != nil {
		return nil, err
	}
	var doc *js.Document
	if isYAML(path) {
		doc, err = js.ParseYAML(data)
	} else {
		if dups, _ := schemabridge.DuplicateKeys(data); len(dups) > 0 {
			for _, d := range dups {
				fmt.Fprintf(c.stderr, "warning: %s: %s at %s\n", displayName(path), d.Message, d.Path)
			}
		}
		doc, err = js.Parse(data)
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", displayName(path), err)
	}
	return doc, nil
}

func displayName(path string) string {
	if path == "" || path == "-" {
		return "stdin"
	}
	return path
}

func (c *cli) writeDoc(doc *js.Document, format string) error {
	switch format {
	case "yaml":
		return c.writeYAML(doc.Value())
	case "json", "":
		b, err := doc.MarshalJSON()
		if err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return c.writeOut("", append(b, '\n'))
	}
	return fmt.Errorf("unknown format %q", format)
}

func (c *cli) writeYAML(v any) error {
	b, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return c.writeOut("", b)
}

func (c *cli) writeOut(path string, b []byte) error {
	if path == "" {
		if _, err := c.stdout.Write(b); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}
