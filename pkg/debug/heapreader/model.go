package heapreader

import (
	"fmt"
	"strings"

	"heapstore/pkg/debug/ui"
	"heapstore/pkg/primitives"
	"heapstore/pkg/storage/heap"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type keyMap struct {
	ui.CommonKeyMap
	ui.NavigationKeyMap
}

var keys = keyMap{
	CommonKeyMap:     ui.CommonKeys,
	NavigationKeyMap: ui.NavigationKeys,
}

const bitmapWidth = 32

// Model is the bubbletea model of the page browser. It shows one page at a
// time: its occupancy, its slot bitmap and the tuples in its used slots.
type Model struct {
	file     *heap.HeapFile
	numPages primitives.PageNumber
	current  primitives.PageNumber
	page     *heap.HeapPage
	viewport viewport.Model
	width    int
	height   int
	err      error
}

// New opens the browser on page 0 of file.
func New(file *heap.HeapFile) (Model, error) {
	numPages, err := file.NumPages()
	if err != nil {
		return Model{}, err
	}

	m := Model{
		file:     file,
		numPages: numPages,
		viewport: viewport.New(80, 15),
	}
	m.load(0)
	return m, m.err
}

func (m Model) Init() tea.Cmd {
	return nil
}

// CurrentPage returns the number of the page on screen.
func (m Model) CurrentPage() primitives.PageNumber {
	return m.current
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = max(msg.Width-4, 20)
		m.viewport.Height = max(msg.Height-16, 3)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.NextPage):
			if m.numPages > 0 && m.current < m.numPages-1 {
				m.load(m.current + 1)
			}
			return m, nil
		case key.Matches(msg, keys.PrevPage):
			if m.current > 0 {
				m.load(m.current - 1)
			}
			return m, nil
		case key.Matches(msg, keys.FirstPage):
			m.load(0)
			return m, nil
		case key.Matches(msg, keys.LastPage):
			if m.numPages > 0 {
				m.load(m.numPages - 1)
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// load reads pageNo from disk; a read error is shown instead of the page.
func (m *Model) load(pageNo primitives.PageNumber) {
	if m.numPages == 0 {
		m.page = nil
		m.viewport.SetContent("")
		return
	}

	hp, err := ReadPage(m.file, pageNo)
	if err != nil {
		m.err = err
		return
	}

	m.current = pageNo
	m.page = hp
	m.err = nil

	lines := SlotLines(hp)
	if len(lines) == 0 {
		lines = []string{"(no tuples)"}
	}
	m.viewport.SetContent(strings.Join(lines, "\n"))
	m.viewport.GotoTop()
}

func (m Model) View() string {
	if m.err != nil {
		return ui.RenderError(m.err)
	}

	var b strings.Builder
	b.WriteString(ui.RenderTitle("Heap File Browser") + "\n")
	b.WriteString(ui.RenderField("File", m.file.FilePath().String()) + "\n")
	b.WriteString(ui.RenderField("Schema", m.file.GetTupleDesc().String()) + "\n\n")

	if m.page == nil {
		b.WriteString(ui.WarningStyle.Render("file has no pages") + "\n")
		b.WriteString(ui.RenderHelp(keys.Quit))
		return b.String()
	}

	s := Summarize(m.page)
	b.WriteString(ui.RenderHeaderWithCount(fmt.Sprintf("Page %d/%d", m.current+1, m.numPages), -1) + "\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		ui.RenderField("slots", fmt.Sprintf("%d", s.NumSlots))+"  ",
		ui.RenderField("used", fmt.Sprintf("%d", s.UsedSlots))+"  ",
		ui.RenderField("free", fmt.Sprintf("%d", s.FreeSlots))+"  ",
		ui.RenderField("header", fmt.Sprintf("%d bytes", s.HeaderBytes)),
	) + "\n\n")

	b.WriteString(renderBitmap(m.page) + "\n\n")
	b.WriteString(m.viewport.View() + "\n")

	b.WriteString(ui.RenderHelp(keys.NextPage, keys.PrevPage, keys.FirstPage, keys.LastPage, keys.Up, keys.Down, keys.Quit))
	b.WriteString("\n" + ui.RenderStatusBar(fmt.Sprintf(" page %d of %d | %.0f%% full ",
		m.current+1, m.numPages, s.Fill()*100)))
	return b.String()
}

func renderBitmap(hp *heap.HeapPage) string {
	var b strings.Builder
	for _, line := range strings.Split(Bitmap(hp, bitmapWidth), "\n") {
		for _, c := range line {
			if c == '#' {
				b.WriteString(ui.UsedSlotStyle.Render("■"))
			} else {
				b.WriteString(ui.FreeSlotStyle.Render("□"))
			}
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

// Run starts the browser on file in the alternate screen and blocks until
// the user quits.
func Run(file *heap.HeapFile) error {
	m, err := New(file)
	if err != nil {
		return err
	}

	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
