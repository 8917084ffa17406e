package cli

import (
	"errors"
	"log/slog"

	"github.com/roach88/covenant/internal/catalog"
	"github.com/roach88/covenant/internal/manifest"
	"github.com/roach88/covenant/pkg/contract"
)

// loadManifest loads dir and splits the result the way every command
// reports it: a fatal load error, or compile and validation errors.
//
// fatal is non-nil when nothing could be compiled (missing directory, CUE
// syntax errors, empty manifest). Otherwise problems lists every compile
// error followed by every validation error against the builtin catalog.
func loadManifest(dir string) (m *manifest.Manifest, problems []manifest.ValidationError, fatal *manifest.LoadError) {
	m, errs := manifest.Load(dir, manifest.LoadModeCollectAll)
	if m == nil {
		return nil, nil, asLoadError(errs[0])
	}
	if len(m.Contracts) == 0 && len(m.Invariants) == 0 {
		if le := asLoadError(errs[0]); le.Code != manifest.ErrCodeCompile {
			return nil, nil, le
		}
	}

	for _, err := range errs {
		le := asLoadError(err)
		problems = append(problems, manifest.ValidationError{
			Field:   "compile",
			Message: le.Message,
			Code:    le.Code,
			Line:    lineOf(le),
		})
	}
	problems = append(problems, manifest.Validate(m, catalog.Builtin())...)
	return m, problems, nil
}

func asLoadError(err error) *manifest.LoadError {
	var le *manifest.LoadError
	if errors.As(err, &le) {
		return le
	}
	return &manifest.LoadError{Code: manifest.ErrCodeGeneric, Message: err.Error()}
}

func lineOf(le *manifest.LoadError) int {
	if le.Pos.IsValid() {
		return le.Pos.Line()
	}
	return 0
}

// newProgram declares the manifest in dir on the builtin catalog. An empty
// dir leaves every target unguarded.
func newProgram(opts *RootOptions, dir string, logger *slog.Logger, observers ...contract.Observer) (*manifest.Program, error) {
	m := &manifest.Manifest{}
	if dir != "" {
		loaded, errs := manifest.Load(dir, manifest.LoadModeFailFast)
		if len(errs) > 0 {
			return nil, WrapExitError(ExitCommandError, "failed to load manifest", errs[0])
		}
		m = loaded
	}

	c := contract.New(
		contract.WithToggle(contract.NewToggle(!opts.Disable)),
		contract.WithObserver(contract.MultiObserver(append(observers, contract.NewLogObserver(logger))...)),
		contract.WithLogger(logger),
	)
	program, err := manifest.Apply(c, catalog.Builtin(), m)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid manifest", err)
	}
	return program, nil
}
