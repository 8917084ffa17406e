package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/covenant/internal/catalog"
	"github.com/roach88/covenant/internal/manifest"
	"github.com/roach88/covenant/internal/metrics"
	"github.com/roach88/covenant/internal/store"
	"github.com/roach88/covenant/internal/testutil"
	"github.com/roach88/covenant/internal/trace"
	"github.com/roach88/covenant/pkg/binding"
	"github.com/roach88/covenant/pkg/contract"
)

// Option configures Run.
type Option func(*config)

type config struct {
	catalog    *catalog.Catalog
	store      *store.Store
	registerer prometheus.Registerer
	logger     *slog.Logger
	runIDs     trace.IDGenerator
}

// WithCatalog runs against cat instead of catalog.Builtin().
func WithCatalog(cat *catalog.Catalog) Option {
	return func(c *config) { c.catalog = cat }
}

// WithStore records the run in st. The caller keeps ownership of st.
func WithStore(st *store.Store) Option {
	return func(c *config) { c.store = st }
}

// WithRegisterer counts checks and violations in reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *config) { c.registerer = reg }
}

// WithLogger sets the logger. Defaults to discarding output.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithRunIDGenerator overrides the scenario's fixed run ID.
func WithRunIDGenerator(g trace.IDGenerator) Option {
	return func(c *config) { c.runIDs = g }
}

// Harness holds the state of one scenario execution.
type Harness struct {
	program  *manifest.Program
	recorder *trace.Recorder
	objects  map[string]catalog.Object
	logger   *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each run records into a fresh in-memory database unless WithStore is
// given. Deterministic helpers ensure reproducible traces.
//
// Execution flow:
// 1. Load the manifest and declare its contracts on the catalog
// 2. Execute steps, checking each expect clause
// 3. Evaluate assertions against the trace and final state
// 4. Record the run and its events in the store
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.catalog == nil {
		cfg.catalog = catalog.Builtin()
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.runIDs == nil {
		cfg.runIDs = testutil.NewFixedRunIDGenerator(scenario.RunID)
	}

	st := cfg.store
	if st == nil {
		var err error
		st, err = store.Open(":memory:")
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory store: %w", err)
		}
		defer st.Close()
	}

	runID := cfg.runIDs.Generate()
	recorder := trace.NewRecorder(runID, testutil.NewDeterministicClock())

	var metricsObserver contract.Observer
	if cfg.registerer != nil {
		metricsObserver = metrics.New(cfg.registerer)
	}
	c := contract.New(
		contract.WithToggle(contract.NewToggle(!scenario.Disabled)),
		contract.WithObserver(contract.MultiObserver(
			recorder,
			metricsObserver,
			contract.NewLogObserver(cfg.logger),
		)),
		contract.WithLogger(cfg.logger),
	)

	program, err := loadProgram(c, cfg.catalog, scenario.Manifest)
	if err != nil {
		return nil, err
	}

	h := &Harness{
		program:  program,
		recorder: recorder,
		objects:  make(map[string]catalog.Object),
		logger:   cfg.logger,
	}

	ctx := context.Background()
	result := NewResult(runID)
	for i, step := range scenario.Steps {
		sr := h.execute(ctx, i, step)
		result.Steps = append(result.Steps, sr)
		for _, msg := range h.checkExpect(i, step, sr) {
			result.AddError(msg)
		}
	}

	result.Trace = recorder.Events()
	for name, obj := range h.objects {
		result.State[name] = obj.State()
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	run := trace.Run{
		ID:         runID,
		Name:       scenario.Name,
		Passed:     result.Pass,
		EventCount: len(result.Trace),
	}
	if err := st.RecordRun(ctx, run, result.Trace); err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}

	h.logger.Info("scenario completed",
		"scenario", scenario.Name,
		"run_id", runID,
		"pass", result.Pass,
		"events", len(result.Trace),
	)
	return result, nil
}

// RunFile loads the scenario at path and runs it.
func RunFile(path string, opts ...Option) (*Scenario, *Result, error) {
	scenario, err := LoadScenario(path)
	if err != nil {
		return nil, nil, err
	}
	result, err := Run(scenario, opts...)
	return scenario, result, err
}

// loadProgram compiles the manifest in dir, or an empty one when dir is "".
func loadProgram(c *contract.Contracts, cat *catalog.Catalog, dir string) (*manifest.Program, error) {
	m := &manifest.Manifest{}
	if dir != "" {
		var errs []error
		m, errs = manifest.Load(dir, manifest.LoadModeCollectAll)
		if len(errs) > 0 {
			return nil, fmt.Errorf("failed to load manifest: %w", errs[0])
		}
	}
	program, err := manifest.Apply(c, cat, m)
	if err != nil {
		return nil, fmt.Errorf("failed to apply manifest: %w", err)
	}
	return program, nil
}

// execute runs one step and reports what happened.
func (h *Harness) execute(ctx context.Context, i int, step Step) StepResult {
	var (
		value any
		err   error
	)

	call, err := h.resolveCall(step)
	if err == nil {
		switch {
		case step.Call != "":
			var target contract.Target
			if target, err = h.program.Target(step.Call); err == nil {
				value, err = target.Invoke(ctx, call)
			}
		case step.New != "":
			var obj catalog.Object
			if obj, err = h.program.New(step.New, call); err == nil {
				h.objects[step.As] = obj
			}
		default:
			name, method, _ := step.objectMethod()
			if obj, ok := h.objects[name]; ok {
				value, err = obj.Invoke(ctx, method, call)
			} else {
				err = fmt.Errorf("object %q does not exist", name)
			}
		}
	}

	sr := classify(err)
	sr.Index = i
	sr.Action = step.Action()
	if err == nil && value != nil {
		sr.Result = normalize(value)
	}

	h.logger.Info("step completed",
		"step", i,
		"action", sr.Action,
		"outcome", sr.Outcome,
	)
	return sr
}

// resolveCall builds the call, replacing "$name" strings with objects.
func (h *Harness) resolveCall(step Step) (binding.Call, error) {
	call := binding.Call{}
	for _, arg := range step.Args {
		v, err := h.resolve(arg)
		if err != nil {
			return call, err
		}
		call.Args = append(call.Args, v)
	}
	if len(step.Kwargs) > 0 {
		call.Kwargs = make(map[string]any, len(step.Kwargs))
		for k, arg := range step.Kwargs {
			v, err := h.resolve(arg)
			if err != nil {
				return call, err
			}
			call.Kwargs[k] = v
		}
	}
	return call, nil
}

func (h *Harness) resolve(v any) (any, error) {
	s, ok := v.(string)
	if !ok || !strings.HasPrefix(s, "$") {
		return v, nil
	}
	obj, ok := h.objects[s[1:]]
	if !ok {
		return nil, fmt.Errorf("unknown object %q", s[1:])
	}
	return obj, nil
}

// checkExpect compares a step result with its expect clause.
func (h *Harness) checkExpect(i int, step Step, sr StepResult) []string {
	exp := step.Expect
	if exp == nil {
		return nil
	}
	prefix := fmt.Sprintf("steps[%d] (%s)", i, sr.Action)

	var errs []string
	if sr.Outcome != exp.Outcome {
		msg := fmt.Sprintf("%s: expected outcome %s, got %s", prefix, exp.Outcome, sr.Outcome)
		if sr.Error != "" {
			msg += ": " + sr.Error
		}
		return append(errs, msg)
	}
	if exp.Condition != "" && sr.Condition != exp.Condition {
		errs = append(errs, fmt.Sprintf("%s: expected condition %q, got %q", prefix, exp.Condition, sr.Condition))
	}
	if exp.BindingKind != "" && sr.BindingKind != exp.BindingKind {
		errs = append(errs, fmt.Sprintf("%s: expected binding kind %s, got %s", prefix, exp.BindingKind, sr.BindingKind))
	}
	if exp.Result != nil && !valuesEqual(sr.Result, exp.Result) {
		errs = append(errs, fmt.Sprintf("%s: expected result %v, got %v", prefix, exp.Result, sr.Result))
	}
	if exp.State != nil {
		name := step.As
		if name == "" {
			name, _, _ = step.objectMethod()
		}
		if obj, ok := h.objects[name]; ok {
			if err := matchState(name, obj.State(), exp.State); err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", prefix, err))
			}
		} else {
			errs = append(errs, fmt.Sprintf("%s: object %q does not exist", prefix, name))
		}
	}
	return errs
}
