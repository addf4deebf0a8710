package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/hanpama/refetchgen/internal/config"
	"github.com/hanpama/refetchgen/internal/eventbus"
	"github.com/hanpama/refetchgen/internal/ir"
	"github.com/hanpama/refetchgen/internal/language"
	"github.com/hanpama/refetchgen/internal/otel"
	"github.com/hanpama/refetchgen/internal/printer"
	"github.com/hanpama/refetchgen/internal/refetch"
	"github.com/hanpama/refetchgen/internal/schema"
)

const rootUsage = `refetchgen: refetch query generator for GraphQL fragments

USAGE:
  refetchgen <command> [flags]

COMMANDS:
  generate         Generate a refetch query for every @refetchable fragment
  check            Validate @refetchable fragments without writing anything
  help             Show help for any command
`

const projectFlags = `  -config <file>          YAML project file; flags override its values
  -schema <file>          GraphQL schema file. Repeatable
  -documents <dir>        Root of the executable documents (default: .)
  -exclude <path>         File or directory to skip under -documents. Repeatable
  -concurrency N          Fragments processed at once, 0 for no limit (default: 0)
  -log.level <level>      trace, debug, info, warn or error (default: info)
  -otel.endpoint <addr>   OTLP collector endpoint
  -otel.service <name>    OpenTelemetry service name (default: refetchgen)
`

const generateUsage = `generate FLAGS:
` + projectFlags + `  -out <dir>              Write one <QueryName>.graphql per fragment (default: stdout)
  (Exits non-zero when any fragment is rejected)
`

const checkUsage = `check FLAGS:
` + projectFlags + `  (Exits non-zero when any fragment is rejected)
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, rootUsage)
		return fmt.Errorf("missing command")
	}

	cmd := args[0]
	cmdArgs := args[1:]
	switch cmd {
	case "generate":
		return cmdGenerate(ctx, cmdArgs, stdout, stderr)
	case "check":
		return cmdCheck(ctx, cmdArgs, stdout, stderr)
	case "help", "-h", "-help", "--help":
		return cmdHelp(cmdArgs, stdout)
	default:
		fmt.Fprint(stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdHelp(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stdout, rootUsage)
		return nil
	}
	switch args[0] {
	case "generate":
		fmt.Fprint(stdout, generateUsage)
	case "check":
		fmt.Fprint(stdout, checkUsage)
	default:
		return fmt.Errorf("unknown help topic %q", args[0])
	}
	return nil
}

type stringListFlag []string

func (s *stringListFlag) String() string { return strings.Join(*s, ",") }

func (s *stringListFlag) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// project holds the settings shared by generate and check once the config
// file and the flags have been merged.
type project struct {
	cfg    *config.Config
	logger zerolog.Logger
}

// projectFlagSet registers the shared flags. The returned function merges
// the explicitly set flags over the config file.
func projectFlagSet(name string) (*flag.FlagSet, func(stderr io.Writer) (*project, error)) {
	var (
		configPath   string
		schemas      stringListFlag
		excludes     stringListFlag
		documents    string
		concurrency  int
		logLevel     string
		otelEndpoint string
		otelService  string
	)
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&configPath, "config", "", "YAML project file")
	fs.Var(&schemas, "schema", "GraphQL schema file")
	fs.Var(&excludes, "exclude", "Path to skip under -documents")
	fs.StringVar(&documents, "documents", "", "Root of the executable documents")
	fs.IntVar(&concurrency, "concurrency", 0, "Fragments processed at once")
	fs.StringVar(&logLevel, "log.level", "", "Log level")
	fs.StringVar(&otelEndpoint, "otel.endpoint", "", "OTLP collector endpoint")
	fs.StringVar(&otelService, "otel.service", "", "OpenTelemetry service name")

	return fs, func(stderr io.Writer) (*project, error) {
		cfg := config.Default()
		if configPath != "" {
			var err error
			if cfg, err = config.Load(configPath); err != nil {
				return nil, err
			}
		}
		fs.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "schema":
				cfg.Schema = schemas
			case "exclude":
				cfg.Exclude = excludes
			case "documents":
				cfg.Documents = documents
			case "concurrency":
				cfg.Concurrency = concurrency
			case "log.level":
				cfg.Log.Level = logLevel
			case "otel.endpoint":
				cfg.Otel.Endpoint = otelEndpoint
			case "otel.service":
				cfg.Otel.Service = otelService
			}
		})
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		if len(cfg.Schema) == 0 {
			return nil, fmt.Errorf("at least one -schema is required")
		}
		lvl, _ := cfg.LogLevel()
		logger := zerolog.New(zerolog.ConsoleWriter{Out: zerolog.SyncWriter(stderr), NoColor: true}).
			Level(lvl).
			With().Timestamp().Logger()
		return &project{cfg: cfg, logger: logger}, nil
	}
}

func (p *project) loadSchema() (*schema.Schema, error) {
	sources := make([]*language.Source, 0, len(p.cfg.Schema))
	for _, path := range p.cfg.Schema {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read schema: %w", err)
		}
		sources = append(sources, &language.Source{Name: path, Input: string(data)})
	}
	sch, err := schema.BuildFromSDL(sources...)
	if err != nil {
		return nil, fmt.Errorf("build schema: %w", err)
	}
	return sch, nil
}

// compile runs the whole pipeline. Roots of accepted fragments are returned
// even when others were rejected.
func (p *project) compile(ctx context.Context) ([]*refetch.Root, error) {
	eventbus.Use(eventbus.New())
	defer eventbus.Use(nil)
	shutdown, err := otel.Setup(ctx, p.cfg.Otel.Endpoint, p.cfg.Otel.Service)
	if err != nil {
		return nil, fmt.Errorf("otel setup: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	sch, err := p.loadSchema()
	if err != nil {
		return nil, err
	}
	exclude := append(append([]string{}, p.cfg.Exclude...), p.cfg.Schema...)
	if p.cfg.Output != "" {
		exclude = append(exclude, p.cfg.Output)
	}
	prog, err := ir.Load(ctx, p.cfg.Documents, sch, exclude...)
	if err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}
	p.logger.Debug().
		Int("fragments", len(prog.Fragments)).
		Int("operations", len(prog.Operations)).
		Msg("loaded documents")

	return refetch.Transform(ctx, prog, sch,
		refetch.WithLogger(p.logger),
		refetch.WithConcurrency(p.cfg.Concurrency))
}

func cmdGenerate(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs, load := projectFlagSet("generate")
	var outDir string
	fs.StringVar(&outDir, "out", "", "Output directory")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(stderr, generateUsage)
		return err
	}
	p, err := load(stderr)
	if err != nil {
		fmt.Fprint(stderr, generateUsage)
		return err
	}
	if outDir != "" {
		p.cfg.Output = outDir
	}

	roots, compileErr := p.compile(ctx)
	if _, ok := ir.AsValidationError(compileErr); compileErr != nil && !ok {
		return compileErr
	}
	if err := writeRoots(roots, p.cfg.Output, stdout); err != nil {
		return err
	}
	if p.cfg.Output != "" {
		p.logger.Info().Int("queries", len(roots)).Str("out", p.cfg.Output).Msg("generated refetch queries")
	}
	return compileErr
}

func cmdCheck(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs, load := projectFlagSet("check")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(stderr, checkUsage)
		return err
	}
	p, err := load(stderr)
	if err != nil {
		fmt.Fprint(stderr, checkUsage)
		return err
	}
	roots, err := p.compile(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "ok: %d refetchable fragments\n", len(roots))
	return nil
}

func writeRoots(roots []*refetch.Root, outDir string, stdout io.Writer) error {
	if outDir == "" {
		for i, root := range roots {
			if i > 0 {
				fmt.Fprintln(stdout)
			}
			if err := writeRoot(stdout, root); err != nil {
				return err
			}
		}
		return nil
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	for _, root := range roots {
		var buf bytes.Buffer
		if err := writeRoot(&buf, root); err != nil {
			return err
		}
		path := filepath.Join(outDir, root.Operation.Name.Value+".graphql")
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return nil
}

func writeRoot(w io.Writer, root *refetch.Root) error {
	path := strings.Join(root.Path, ".")
	if path == "" {
		path = "(root)"
	}
	identifier := "(none)"
	if root.IdentifierField != nil {
		identifier = *root.IdentifierField
	}
	header := fmt.Sprintf("# Refetch query for fragment %s.\n# path: %s\n# identifier: %s\n\n",
		root.Fragment.Name.Value, path, identifier)
	if _, err := io.WriteString(w, header); err != nil {
		return err
	}
	return printer.Fprint(w, root.Operation, refetch.RefetchableDirectiveName)
}
