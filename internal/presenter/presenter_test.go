package presenter

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perf-annotate/pkg/errors"
	"github.com/perf-annotate/pkg/model"
)

func sampleTable() Table {
	format := func(e model.Entry) string {
		loc, _ := e.Location()
		return strings.TrimSpace(loc.String() + " " + strings.Repeat("#", int(e.Count/10)))
	}
	return Table{
		Prompt: "Hottest lines (cycles)",
		Total:  1050,
		Items: []Item{
			{Entry: model.NewLineEntry("a.c", 10, 30), Format: format},
			{Entry: model.NewLineEntry("b.c", 20, 20), Format: format},
		},
	}
}

// recorder captures jump invocations.
type recorder struct {
	calls   int
	entries []*model.Entry
}

func (r *recorder) jump(_ context.Context, e *model.Entry) {
	r.calls++
	r.entries = append(r.entries, e)
}

func TestItem_Label(t *testing.T) {
	assert.Empty(t, Item{Entry: model.NewSymbolEntry("foo", 1)}.Label())
	assert.Equal(t, "a.c:10 ###", sampleTable().Items[0].Label())
}

func TestTextPresenter(t *testing.T) {
	var buf bytes.Buffer
	rec := &recorder{}

	err := NewTextPresenter(&buf).Present(context.Background(), sampleTable(), rec.jump)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "=== Hottest lines (cycles) (total 1,050) ===")
	assert.Contains(t, out, "    1. a.c:10 ###")
	assert.Contains(t, out, "    2. b.c:20 ##")
	assert.Zero(t, rec.calls, "text output never jumps")
}

func TestTextPresenter_Empty(t *testing.T) {
	var buf bytes.Buffer

	err := NewTextPresenter(&buf).Present(context.Background(), Table{Prompt: "Hottest symbols"}, nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "no entries above threshold")
}

func TestJSONPresenter(t *testing.T) {
	var buf bytes.Buffer

	err := NewJSONPresenter(&buf, false).Present(context.Background(), sampleTable(), nil)
	require.NoError(t, err)

	var got struct {
		Prompt string `json:"prompt"`
		Total  uint64 `json:"total"`
		Items  []struct {
			Label string         `json:"label"`
			Entry map[string]any `json:"entry"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))

	assert.Equal(t, "Hottest lines (cycles)", got.Prompt)
	assert.Equal(t, uint64(1050), got.Total)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "a.c:10 ###", got.Items[0].Label)
	assert.Equal(t, "a.c", got.Items[0].Entry["file"])
	assert.Equal(t, "line", got.Items[0].Entry["kind"])
}

func TestPromptPresenter(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantFile  string
		wantNil   bool
		wantError bool
	}{
		{"pick second", "2\n", "b.c", false, false},
		{"pick without newline", "1", "a.c", false, false},
		{"empty cancels", "\n", "", true, false},
		{"q cancels", " q \n", "", true, false},
		{"eof cancels", "", "", true, false},
		{"out of range", "3\n", "", true, true},
		{"not a number", "x\n", "", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			rec := &recorder{}

			err := NewPromptPresenter(strings.NewReader(tt.input), &out).
				Present(context.Background(), sampleTable(), rec.jump)

			if tt.wantError {
				assert.Equal(t, errors.CodeInvalidInput, errors.GetErrorCode(err))
			} else {
				require.NoError(t, err)
			}
			require.Equal(t, 1, rec.calls, "jump is called exactly once")
			if tt.wantNil {
				assert.Nil(t, rec.entries[0])
				return
			}
			require.NotNil(t, rec.entries[0])
			file, _ := rec.entries[0].File()
			assert.Equal(t, tt.wantFile, file)
			assert.Contains(t, out.String(), "[1-2, q to cancel]")
		})
	}
}

func TestPromptPresenter_EmptyTable(t *testing.T) {
	var out bytes.Buffer
	rec := &recorder{}

	err := NewPromptPresenter(strings.NewReader("1\n"), &out).
		Present(context.Background(), Table{Prompt: "Callers"}, rec.jump)

	require.NoError(t, err)
	require.Equal(t, 1, rec.calls)
	assert.Nil(t, rec.entries[0])
	assert.NotContains(t, out.String(), "q to cancel")
}

func TestPicker_Update(t *testing.T) {
	m := newPicker(sampleTable())
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m = next.(picker)

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(picker)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(picker)

	assert.Equal(t, 1, m.chosen)
	assert.True(t, m.done)
	require.NotNil(t, cmd)
	assert.Empty(t, m.View())
}

func TestPicker_Cancel(t *testing.T) {
	m := newPicker(sampleTable())

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = next.(picker)

	assert.Equal(t, -1, m.chosen)
	require.NotNil(t, cmd)
}

func TestPrintNavigator(t *testing.T) {
	var buf bytes.Buffer
	nav := NewPrintNavigator(&buf)

	require.NoError(t, nav.Navigate(context.Background(), "a.c", 10))
	require.NoError(t, nav.Navigate(context.Background(), "b.c", 0))

	assert.Equal(t, "a.c:10\nb.c\n", buf.String())
}

func TestExecNavigator_Command(t *testing.T) {
	nav := NewExecNavigator("code --goto {file}:{line}")
	assert.Equal(t, []string{"code", "--goto", "a.c:10"}, nav.Command("a.c", 10))
	assert.Equal(t, []string{"code", "--goto", "a.c:1"}, nav.Command("a.c", 0))

	empty := NewExecNavigator("")
	assert.Error(t, empty.Navigate(context.Background(), "a.c", 1))
}

func TestDefaultEditorTemplate(t *testing.T) {
	t.Setenv("VISUAL", "")
	t.Setenv("EDITOR", "vi")
	assert.Equal(t, "vi +{line} {file}", DefaultEditorTemplate())

	t.Setenv("EDITOR", "")
	assert.Empty(t, DefaultEditorTemplate())
}

func TestNavigatorFunc(t *testing.T) {
	var got string
	nav := NavigatorFunc(func(_ context.Context, file string, line uint32) error {
		got = file
		return nil
	})
	require.NoError(t, nav.Navigate(context.Background(), "x.c", 1))
	assert.Equal(t, "x.c", got)
}
