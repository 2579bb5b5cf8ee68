package presenter

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/perf-annotate/pkg/errors"
)

// PromptPresenter prints the table and reads a row number from in. An empty
// answer, "q" or end of input cancels.
type PromptPresenter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPromptPresenter creates a PromptPresenter.
func NewPromptPresenter(in io.Reader, out io.Writer) *PromptPresenter {
	return &PromptPresenter{in: bufio.NewReader(in), out: out}
}

// Present implements Presenter.
func (p *PromptPresenter) Present(ctx context.Context, table Table, jump JumpFunc) error {
	if err := writeTable(p.out, table); err != nil {
		return err
	}
	if len(table.Items) == 0 {
		choose(ctx, jump, nil, -1)
		return nil
	}

	if _, err := fmt.Fprintf(p.out, "%s [1-%d, q to cancel]: ", table.Prompt, len(table.Items)); err != nil {
		return err
	}

	line, err := p.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	answer := strings.TrimSpace(line)
	if answer == "" || strings.EqualFold(answer, "q") {
		choose(ctx, jump, table.Items, -1)
		return nil
	}

	n, convErr := strconv.Atoi(answer)
	if convErr != nil || n < 1 || n > len(table.Items) {
		choose(ctx, jump, table.Items, -1)
		return errors.Newf(errors.CodeInvalidInput, "invalid choice %q", answer)
	}

	choose(ctx, jump, table.Items, n-1)
	return nil
}
