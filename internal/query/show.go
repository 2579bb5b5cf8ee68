package query

import (
	"context"

	"github.com/perf-annotate/internal/presenter"
	"github.com/perf-annotate/internal/source"
	"github.com/perf-annotate/pkg/model"
)

// ShowHottestLines runs HottestLines and presents the result.
func (s *Session) ShowHottestLines(ctx context.Context, event string) error {
	res, err := s.HottestLines(ctx, event)
	if err != nil {
		return err
	}
	return s.Present(ctx, res)
}

// ShowHottestSymbols runs HottestSymbols and presents the result.
func (s *Session) ShowHottestSymbols(ctx context.Context, event string) error {
	res, err := s.HottestSymbols(ctx, event)
	if err != nil {
		return err
	}
	return s.Present(ctx, res)
}

// ShowHottestCallersOfRegion runs HottestCallersOfRegion and presents the result.
func (s *Session) ShowHottestCallersOfRegion(ctx context.Context, event string, region model.Region) error {
	res, err := s.HottestCallersOfRegion(ctx, event, region)
	if err != nil {
		return err
	}
	return s.Present(ctx, res)
}

// ShowHottestCallersOfEnclosingFunction runs HottestCallersOfEnclosingFunction
// and presents the result.
func (s *Session) ShowHottestCallersOfEnclosingFunction(ctx context.Context, event string, cur source.Cursor) error {
	res, err := s.HottestCallersOfEnclosingFunction(ctx, event, cur)
	if err != nil {
		return err
	}
	return s.Present(ctx, res)
}

// ShowHottestCallersOfSelection runs HottestCallersOfSelection and presents
// the result.
func (s *Session) ShowHottestCallersOfSelection(ctx context.Context, event, file string, sel *source.Selection) error {
	res, err := s.HottestCallersOfSelection(ctx, event, file, sel)
	if err != nil {
		return err
	}
	return s.Present(ctx, res)
}

// Present hands res to the session's presenter with every row formatted
// against res.Total and Jump as the pick callback. Without a presenter it
// does nothing.
func (s *Session) Present(ctx context.Context, res Result) error {
	if s.presenter == nil {
		return nil
	}
	return s.presenter.Present(ctx, s.Table(res), s.Jump)
}

// Table converts res into a presentable table.
func (s *Session) Table(res Result) presenter.Table {
	format := s.format.Bind(res.Total)
	items := make([]presenter.Item, len(res.Entries))
	for i, e := range res.Entries {
		items[i] = presenter.Item{Entry: e, Format: format}
	}
	return presenter.Table{Prompt: res.Prompt(), Total: res.Total, Items: items}
}

// Jump opens the picked entry: at file:line when both are known, at the file
// alone when only the file is, and not at all otherwise. A nil entry is a
// cancelled pick. Relative files are resolved under the path prefix.
// Navigation failures are logged and dropped.
func (s *Session) Jump(ctx context.Context, entry *model.Entry) {
	if entry == nil || s.navigator == nil {
		return
	}
	file, ok := entry.File()
	if !ok {
		return
	}
	line, _ := entry.Line()
	file = s.sourceFile(file)

	if err := s.navigator.Navigate(ctx, file, line); err != nil {
		s.logger.Debug("Navigation to %s:%d failed: %v", file, line, err)
	}
}
