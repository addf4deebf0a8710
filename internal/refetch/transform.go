package refetch

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	eventbus "github.com/hanpama/refetchgen/internal/eventbus"
	events "github.com/hanpama/refetchgen/internal/events"
	"github.com/hanpama/refetchgen/internal/ir"
	language "github.com/hanpama/refetchgen/internal/language"
	runid "github.com/hanpama/refetchgen/internal/runid"
	schema "github.com/hanpama/refetchgen/internal/schema"
)

const (
	RefetchableDirectiveName = "refetchable"
	QueryNameArgumentName    = "queryName"
)

// Options configures Transform.
type Options struct {
	// Logger receives one entry per processed fragment. Defaults to a no-op
	// logger.
	Logger zerolog.Logger

	// Concurrency bounds how many fragments are dispatched at once.
	// 0 means no limit.
	Concurrency int

	// Dispatcher overrides the default generator registry.
	Dispatcher *Dispatcher
}

// Option customizes Options.
type Option func(*Options)

// WithLogger sets the logger used for per-fragment entries.
func WithLogger(l zerolog.Logger) Option { return func(o *Options) { o.Logger = l } }

// WithConcurrency limits how many fragments are dispatched at once.
func WithConcurrency(n int) Option { return func(o *Options) { o.Concurrency = n } }

// WithDispatcher replaces the default generator registry.
func WithDispatcher(d *Dispatcher) Option { return func(o *Options) { o.Dispatcher = d } }

type candidate struct {
	fragment  *ir.FragmentDefinition
	queryName string
}

// Transform builds a refetch root for every fragment of p annotated with
// @refetchable(queryName: "..."). Roots are returned sorted by query name.
//
// Fragments are independent: when some of them are rejected, the roots of
// the others are still returned, together with an ir.ValidationError listing
// every violation in fragment order. Cancelling ctx stops dispatching the
// remaining fragments.
func Transform(ctx context.Context, p *ir.Program, sch *schema.Schema, opts ...Option) ([]*Root, error) {
	o := Options{Logger: zerolog.Nop()}
	for _, f := range opts {
		f(&o)
	}
	if o.Dispatcher == nil {
		o.Dispatcher = NewDispatcher()
	}

	ctx, compileID := runid.NewContext(ctx)
	start := time.Now()
	candidates, violations := collectCandidates(p)
	eventbus.Publish(ctx, events.CompileStart{Fragments: len(candidates)})

	roots, err := dispatchAll(ctx, compileID, sch, p, candidates, o)
	if verr, ok := ir.AsValidationError(err); ok {
		violations = append(violations, verr...)
		err = nil
	}
	if err == nil && len(violations) > 0 {
		err = ir.ValidationError(violations)
	}
	eventbus.Publish(ctx, events.CompileFinish{
		Roots:      len(roots),
		Violations: len(violations),
		Err:        err,
		Duration:   time.Since(start),
	})
	return roots, err
}

func dispatchAll(ctx context.Context, compileID string, sch *schema.Schema, p *ir.Program, candidates []candidate, o Options) ([]*Root, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	usage := ir.CollectVariables(p, sch)

	roots := make([]*Root, len(candidates))
	errs := make([]error, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	if o.Concurrency > 0 {
		g.SetLimit(o.Concurrency)
	}
	for i, c := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fctx, _ := runid.NewContext(gctx)
			name := c.fragment.Name.Value
			roots[i], errs[i] = dispatchOne(fctx, compileID, o, sch, c, usage.Variables(name), usage.Violations(name))
			if _, ok := ir.AsValidationError(errs[i]); errs[i] != nil && !ok {
				return errs[i]
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Fragments spreading the same broken fragment share its violations.
	var violations ir.ValidationError
	seen := make(map[*ir.Violation]bool)
	out := make([]*Root, 0, len(roots))
	for i, root := range roots {
		if verr, ok := ir.AsValidationError(errs[i]); ok {
			for _, v := range verr {
				if !seen[v] {
					seen[v] = true
					violations = append(violations, v)
				}
			}
			continue
		}
		out = append(out, root)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Operation.Name.Value < out[j].Operation.Name.Value
	})
	if len(violations) > 0 {
		return out, violations
	}
	return out, nil
}

// dispatchOne builds the root of a single fragment. A fragment whose
// variables could not be collected is rejected with those violations.
func dispatchOne(ctx context.Context, compileID string, o Options, sch *schema.Schema, c candidate, vars *ir.VariableMap, broken ir.ValidationError) (*Root, error) {
	start := time.Now()
	eventbus.Publish(ctx, events.RefetchStart{
		CompileID: compileID,
		Fragment:  c.fragment.Name.Value,
		QueryName: c.queryName,
	})
	var (
		root *Root
		err  error
	)
	if len(broken) > 0 {
		err = broken
	} else {
		root, err = o.Dispatcher.Build(sch, c.fragment, c.queryName, vars)
	}

	finish := events.RefetchFinish{
		CompileID: compileID,
		Fragment:  c.fragment.Name.Value,
		QueryName: c.queryName,
		Err:       err,
		Duration:  time.Since(start),
	}
	if root != nil {
		finish.Path = root.Path
	}
	eventbus.Publish(ctx, finish)

	log := o.Logger.With().
		Str("fragment", c.fragment.Name.Value).
		Str("query", c.queryName).
		Logger()
	if err != nil {
		log.Warn().Err(err).Msg("fragment is not refetchable")
		return nil, err
	}
	log.Debug().Strs("path", root.Path).Dur("duration", finish.Duration).Msg("generated refetch query")
	return root, nil
}

// collectCandidates finds @refetchable fragments and checks their queryName
// arguments. Invalid fragments are reported and left out.
func collectCandidates(p *ir.Program) ([]candidate, ir.ValidationError) {
	var (
		candidates []candidate
		violations ir.ValidationError
	)
	byName := make(map[string]*ir.FragmentDefinition)
	for _, f := range p.Fragments {
		dir := f.Directive(RefetchableDirectiveName)
		if dir == nil {
			continue
		}
		arg := dir.Argument(QueryNameArgumentName)
		if arg == nil {
			violations = append(violations, violationRefetchableMissingQueryName(f, dir))
			continue
		}
		if arg.Value == nil || arg.Value.Kind != language.StringValue || arg.Value.Raw == "" {
			violations = append(violations, violationRefetchableInvalidQueryName(f, arg))
			continue
		}
		queryName := arg.Value.Raw
		if first, ok := byName[queryName]; ok {
			violations = append(violations, violationDuplicateRefetchableOperation(queryName, first, f))
			continue
		}
		if op := p.Operation(queryName); op != nil {
			violations = append(violations, violationQueryNameClashesOperation(queryName, f, op))
			continue
		}
		byName[queryName] = f
		candidates = append(candidates, candidate{fragment: f, queryName: queryName})
	}
	return candidates, violations
}
