package presenter

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// TUIPresenter shows a table in a filterable full-screen list.
// enter picks the highlighted row; esc, q and ctrl+c cancel.
type TUIPresenter struct {
	in  io.Reader
	out io.Writer
}

// NewTUIPresenter creates a TUIPresenter on the given terminal streams.
func NewTUIPresenter(in io.Reader, out io.Writer) *TUIPresenter {
	return &TUIPresenter{in: in, out: out}
}

// Present implements Presenter.
func (p *TUIPresenter) Present(ctx context.Context, table Table, jump JumpFunc) error {
	if len(table.Items) == 0 {
		choose(ctx, jump, nil, -1)
		return nil
	}

	prog := tea.NewProgram(newPicker(table),
		tea.WithContext(ctx),
		tea.WithInput(p.in),
		tea.WithOutput(p.out),
		tea.WithAltScreen(),
	)
	final, err := prog.Run()
	if err != nil {
		return fmt.Errorf("picker: %w", err)
	}

	m, ok := final.(picker)
	if !ok {
		return nil
	}
	choose(ctx, jump, table.Items, m.chosen)
	return nil
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)
	appStyle = lipgloss.NewStyle().Padding(1, 2)
)

// pickItem adapts an Item to list.DefaultItem.
type pickItem struct {
	index int
	label string
	loc   string
}

func (i pickItem) Title() string       { return i.label }
func (i pickItem) Description() string { return i.loc }
func (i pickItem) FilterValue() string { return i.label }

// picker is the bubbletea model behind TUIPresenter.
type picker struct {
	list   list.Model
	chosen int
	done   bool
}

func newPicker(table Table) picker {
	items := make([]list.Item, 0, len(table.Items))
	for i, it := range table.Items {
		loc := ""
		if l, ok := it.Entry.Location(); ok {
			loc = l.String()
		}
		items = append(items, pickItem{index: i, label: it.Label(), loc: loc})
	}

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false

	l := list.New(items, delegate, 0, 0)
	l.Title = table.Prompt
	l.Styles.Title = titleStyle
	l.SetShowStatusBar(true)
	l.DisableQuitKeybindings()

	return picker{list: l, chosen: -1}
}

func (m picker) Init() tea.Cmd {
	return nil
}

func (m picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h, v := appStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v)
		return m, nil

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "enter":
			if it, ok := m.list.SelectedItem().(pickItem); ok {
				m.chosen = it.index
			}
			m.done = true
			return m, tea.Quit
		case "esc", "q", "ctrl+c":
			m.chosen = -1
			m.done = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m picker) View() string {
	if m.done {
		return ""
	}
	return appStyle.Render(m.list.View())
}
