package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/perf-annotate/internal/callgraph"
	"github.com/perf-annotate/internal/display"
	"github.com/perf-annotate/internal/loader"
	"github.com/perf-annotate/internal/presenter"
	"github.com/perf-annotate/internal/query"
	"github.com/perf-annotate/internal/storage"
	apperrors "github.com/perf-annotate/pkg/errors"
	"github.com/perf-annotate/pkg/writer"
)

// router builds the storage router inputs and uploads go through. Object
// storage is only set up when a bucket is configured.
func (a *app) router() (*storage.Router, error) {
	local := storage.NewLocalStorage(a.cfg.Storage.LocalPath)

	var remote storage.Storage
	if a.cfg.Storage.Bucket != "" {
		cosCfg := a.cfg.Storage
		cosCfg.Type = string(storage.StorageTypeCOS)
		s, err := storage.NewStorage(&cosCfg)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeConfigError, "object storage", err)
		}
		remote = s
	}
	return storage.NewRouter(local, remote, storage.StorageType(a.cfg.Profile.Source)), nil
}

func (a *app) loader(r *storage.Router) *loader.Loader {
	return loader.New(
		loader.WithOpener(r),
		loader.WithLogger(a.logger),
		loader.WithThreadPrefix(a.opts.threadPrefix),
		loader.WithStrictMode(a.opts.strict),
	)
}

// load reads the -i inputs.
func (a *app) load(ctx context.Context, r *storage.Router) (*callgraph.GraphSet, error) {
	if len(a.opts.inputs) == 0 {
		return nil, apperrors.New(apperrors.CodeInvalidInput, "no profile given, use -i")
	}
	inputs := make([]loader.Input, len(a.opts.inputs))
	for i, s := range a.opts.inputs {
		inputs[i] = loader.ParseInput(s)
	}
	return a.loader(r).Load(ctx, inputs...)
}

// newSession creates a session presenting in the --format style.
func (a *app) newSession() (*query.Session, error) {
	mode, err := display.ParseMode(a.cfg.Display.Format)
	if err != nil {
		return nil, err
	}
	policy := display.NewThresholdPolicy(
		display.WithMinPercent(a.cfg.Display.MinPercent),
		display.WithMode(mode),
	)

	p, err := a.presenter()
	if err != nil {
		return nil, err
	}

	wd, _ := os.Getwd()
	return query.NewSession(
		query.WithPolicy(policy),
		query.WithLimit(a.cfg.Display.Limit),
		query.WithMaxSymbolWidth(a.cfg.Display.MaxSymbolWidth),
		query.WithBaseDir(wd),
		query.WithPathPrefix(a.cfg.Profile.PathPrefix),
		query.WithPresenter(p),
		query.WithNavigator(a.navigator()),
		query.WithLogger(a.logger),
	), nil
}

func (a *app) presenter() (presenter.Presenter, error) {
	switch strings.ToLower(a.opts.format) {
	case "", "text":
		return presenter.NewTextPresenter(a.stdout), nil
	case "json":
		return presenter.NewJSONPresenter(a.stdout, true), nil
	case "pick":
		return presenter.NewPromptPresenter(a.stdin, a.stdout), nil
	case "tui":
		return presenter.NewTUIPresenter(a.stdin, a.stdout), nil
	default:
		return nil, apperrors.Newf(apperrors.CodeInvalidInput,
			"unknown format %q (valid: text, json, pick, tui)", a.opts.format)
	}
}

// navigator opens picks in the configured editor, or prints them when no
// editor is known.
func (a *app) navigator() presenter.Navigator {
	template := a.cfg.Navigation.Editor
	if template == "" {
		template = presenter.DefaultEditorTemplate()
	}
	if template == "" {
		return presenter.NewPrintNavigator(a.stdout)
	}
	return presenter.NewExecNavigator(template)
}

// runQuery loads the inputs, runs q and presents and exports its result.
func (a *app) runQuery(ctx context.Context, q func(context.Context, *query.Session) (query.Result, error)) error {
	r, err := a.router()
	if err != nil {
		return err
	}
	set, err := a.load(ctx, r)
	if err != nil {
		return err
	}

	s, err := a.newSession()
	if err != nil {
		return err
	}
	s.Load(set)
	if ev := a.cfg.Profile.DefaultEvent; ev != "" {
		if err := s.SelectEvent(ev); err != nil {
			a.logger.Warn("Default event %q not loaded, using %q", ev, s.SelectedEvent())
		}
	}

	res, err := q(ctx, s)
	if err != nil {
		return err
	}
	if err := a.export(ctx, r, s.Table(res)); err != nil {
		return err
	}
	return s.Present(ctx, res)
}

// export writes the table to --output and --upload when set.
func (a *app) export(ctx context.Context, r *storage.Router, table presenter.Table) error {
	report := presenter.NewReport(table)

	if a.opts.output != "" {
		if err := writer.WriteFile(a.opts.output, report); err != nil {
			return fmt.Errorf("failed to write %s: %w", a.opts.output, err)
		}
		a.logger.Info("Wrote %s", a.opts.output)
	}

	if a.opts.upload != "" {
		var buf bytes.Buffer
		if err := writer.WriteFor(&buf, a.opts.upload, report); err != nil {
			return err
		}
		if err := r.Upload(ctx, a.opts.upload, &buf); err != nil {
			return apperrors.Wrap(apperrors.CodeDownloadError, "failed to upload "+a.opts.upload, err)
		}
		a.logger.Info("Uploaded %s", a.opts.upload)
	}
	return nil
}
