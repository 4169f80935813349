package cli

import (
	"context"
	"strconv"
	"strings"

	"github.com/adelorme/labflow/internal/board"
	"github.com/adelorme/labflow/internal/cli/formatter"
	"github.com/adelorme/labflow/internal/domain"
	"github.com/adelorme/labflow/internal/service"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// boardKeyMap holds the board's keybindings.
type boardKeyMap struct {
	Left    key.Binding
	Right   key.Binding
	Up      key.Binding
	Down    key.Binding
	Grab    key.Binding
	Cancel  key.Binding
	Advance key.Binding
	Deliver key.Binding
	Mine    key.Binding
	Search  key.Binding
	Reload  key.Binding
	Quit    key.Binding
}

func defaultBoardKeyMap() boardKeyMap {
	return boardKeyMap{
		Left:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "lane")),
		Right:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "lane")),
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "item")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "item")),
		Grab:    key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "grab/drop")),
		Cancel:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		Advance: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "advance")),
		Deliver: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "deliver")),
		Mine:    key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mine")),
		Search:  key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Reload:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

type itemsLoadedMsg struct {
	items []*domain.Delivery
	err   error
}

type transitionDoneMsg struct {
	err error
}

// boardModel is the bubbletea Model for the kanban board.
type boardModel struct {
	app *App
	lab *domain.Laboratory
	env domain.PermissionEnvelope

	board board.Board
	drag  board.DragController
	keys  boardKeyMap

	// cursor position: lane index, item index within the lane
	lane int
	item int

	opts   service.FilterOptions
	search textinput.Model

	width    int
	height   int
	status   string
	quitting bool
}

func newBoardModel(app *App, lab *domain.Laboratory) boardModel {
	ti := textinput.New()
	ti.Placeholder = "patient, dentist or number"
	ti.Prompt = "/ "
	ti.CharLimit = 60

	return boardModel{
		app:    app,
		lab:    lab,
		env:    app.envelope(context.Background()),
		keys:   defaultBoardKeyMap(),
		search: ti,
	}
}

func (m boardModel) Init() tea.Cmd {
	return m.loadItems()
}

// loadItems fetches the visible deliveries and re-lays out the board.
func (m boardModel) loadItems() tea.Cmd {
	app, lab, env, opts := m.app, m.lab, m.env, m.opts
	return func() tea.Msg {
		items, err := app.Deliveries.ListVisible(context.Background(), lab.ID, env, opts)
		return itemsLoadedMsg{items: items, err: err}
	}
}

// transition executes a drop's request against the workflow engine.
func (m boardModel) transition(req board.TransitionRequest) tea.Cmd {
	app, env := m.app, m.env
	return func() tea.Msg {
		_, err := app.Workflow.RequestTransition(context.Background(), env, req.DeliveryID, req.TargetStageID)
		return transitionDoneMsg{err: err}
	}
}

func (m boardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case itemsLoadedMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
			return m, nil
		}
		m.board = board.Layout(msg.items, m.env, m.app.Catalog)
		m.clampCursor()
		return m, nil

	case transitionDoneMsg:
		if msg.err != nil {
			m.status = friendlyErr(msg.err).Error()
		} else {
			m.status = ""
		}
		return m, m.loadItems()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.search.Focused() {
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m boardModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.quitting = true
		return m, tea.Quit
	}

	// The search input captures every key while focused.
	if m.search.Focused() {
		switch msg.Type {
		case tea.KeyEnter:
			m.search.Blur()
			m.opts.SearchText = m.search.Value()
			return m, m.loadItems()
		case tea.KeyEsc:
			m.search.Blur()
			m.search.SetValue("")
			m.opts.SearchText = ""
			return m, m.loadItems()
		}
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Left):
		m.lane--
		m.clampCursor()
		return m, nil

	case key.Matches(msg, m.keys.Right):
		m.lane++
		m.clampCursor()
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.item--
		m.clampCursor()
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.item++
		m.clampCursor()
		return m, nil

	case key.Matches(msg, m.keys.Cancel):
		m.drag.Cancel()
		m.status = ""
		return m, nil

	case key.Matches(msg, m.keys.Grab):
		return m.grabOrDrop()

	case key.Matches(msg, m.keys.Advance):
		if d := m.selected(); d != nil {
			return m, m.advance(d.ID)
		}
		return m, nil

	case key.Matches(msg, m.keys.Deliver):
		if d := m.selected(); d != nil {
			return m, m.deliver(d.ID)
		}
		return m, nil

	case key.Matches(msg, m.keys.Mine):
		m.opts.MyWorksOnly = !m.opts.MyWorksOnly
		return m, m.loadItems()

	case key.Matches(msg, m.keys.Search):
		m.search.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Reload):
		return m, m.loadItems()
	}

	return m, nil
}

// grabOrDrop picks up the selected card, or drops the card in flight onto
// the cursor's lane.
func (m boardModel) grabOrDrop() (tea.Model, tea.Cmd) {
	if m.drag.Dragging() == "" {
		d := m.selected()
		if d == nil {
			return m, nil
		}
		m.drag.BeginDrag(d.ID, d.StageID())
		m.status = "moving " + d.DeliveryNumber + " — pick a lane and press enter"
		return m, nil
	}

	lane := m.currentLane()
	if lane == nil {
		return m, nil
	}
	if lane.Stage == nil {
		m.drag.Cancel()
		m.status = "work cannot move back to unassigned"
		return m, nil
	}
	req, ok := m.drag.Drop(lane.Stage.ID)
	if !ok {
		m.status = ""
		return m, nil
	}
	return m, m.transition(req)
}

func (m boardModel) advance(deliveryID string) tea.Cmd {
	app, env := m.app, m.env
	return func() tea.Msg {
		_, err := app.Workflow.AdvanceToNext(context.Background(), env, deliveryID)
		return transitionDoneMsg{err: err}
	}
}

func (m boardModel) deliver(deliveryID string) tea.Cmd {
	app, env := m.app, m.env
	return func() tea.Msg {
		_, err := app.Workflow.MarkDelivered(context.Background(), env, deliveryID)
		return transitionDoneMsg{err: err}
	}
}

// ── cursor helpers ──────────────────────────────────────────────────────────

func (m *boardModel) clampCursor() {
	if len(m.board.Lanes) == 0 {
		m.lane, m.item = 0, 0
		return
	}
	if m.lane < 0 {
		m.lane = 0
	}
	if m.lane >= len(m.board.Lanes) {
		m.lane = len(m.board.Lanes) - 1
	}
	n := len(m.board.Lanes[m.lane].Items)
	if m.item < 0 {
		m.item = 0
	}
	if m.item >= n {
		m.item = n - 1
	}
	if n == 0 {
		m.item = 0
	}
}

func (m *boardModel) currentLane() *board.Lane {
	if m.lane < 0 || m.lane >= len(m.board.Lanes) {
		return nil
	}
	return &m.board.Lanes[m.lane]
}

func (m *boardModel) selected() *domain.Delivery {
	lane := m.currentLane()
	if lane == nil || m.item < 0 || m.item >= len(lane.Items) {
		return nil
	}
	return lane.Items[m.item]
}

// ── rendering ───────────────────────────────────────────────────────────────

var (
	laneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(formatter.ColorDim).
			Padding(0, 1)

	laneActiveStyle = laneStyle.
			BorderForeground(formatter.ColorHeader)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(formatter.ColorDim).
			Padding(0, 1)

	cardActiveStyle = cardStyle.
			BorderForeground(formatter.ColorGreen)

	cardDraggingStyle = cardStyle.
				BorderForeground(formatter.ColorPurple)
)

func (m boardModel) View() string {
	if m.quitting {
		return ""
	}

	laneWidth := 28
	if m.width > 0 {
		if w := m.width/max1(len(m.board.Lanes)) - 2; w > 20 && w < laneWidth {
			laneWidth = w
		}
	}

	lanes := make([]string, 0, len(m.board.Lanes))
	for i, lane := range m.board.Lanes {
		lanes = append(lanes, m.renderLane(lane, i, laneWidth))
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, lanes...)

	var footer []string
	if m.search.Focused() {
		footer = append(footer, m.search.View())
	} else if m.status != "" {
		footer = append(footer, formatter.StyleYellow.Render(m.status))
	} else {
		footer = append(footer, m.renderHints())
	}

	title := formatter.StylePurple.Render("labflow") + "  " + formatter.Dim(m.lab.Name)
	if m.opts.MyWorksOnly {
		title += "  " + formatter.StyleGreen.Render("[mine]")
	}
	if m.opts.SearchText != "" {
		title += "  " + formatter.Dim("search: "+m.opts.SearchText)
	}

	return title + "\n" + body + "\n" + strings.Join(footer, "\n")
}

func (m boardModel) renderLane(lane board.Lane, index, width int) string {
	title := formatter.Bold(lane.Title())
	if lane.Stage != nil {
		title = formatter.StageLabel(lane.Stage)
	}
	title += formatter.Dim(" (" + strconv.Itoa(len(lane.Items)) + ")")

	parts := []string{title}
	for j, d := range lane.Items {
		style := cardStyle
		if d.ID == m.drag.Dragging() {
			style = cardDraggingStyle
		} else if index == m.lane && j == m.item {
			style = cardActiveStyle
		}
		parts = append(parts, style.Width(width-4).Render(m.renderCard(d)))
	}

	style := laneStyle
	if index == m.lane {
		style = laneActiveStyle
	}
	return style.Width(width).Render(strings.Join(parts, "\n"))
}

func (m boardModel) renderCard(d *domain.Delivery) string {
	line1 := formatter.Bold(d.DeliveryNumber)
	if d.IsBlocked {
		line1 += " " + formatter.BlockedMarker(true)
	}
	line2 := d.PatientName
	line3 := formatter.RenderProgress(d.ProgressPercentage, 8) + " " + formatter.PriorityBadge(d.Priority)
	if d.DueDate != nil {
		line3 += " " + formatter.DueStyled(d.DueDate)
	}
	return line1 + "\n" + line2 + "\n" + line3
}

func (m boardModel) renderHints() string {
	bindings := []key.Binding{
		m.keys.Left, m.keys.Up, m.keys.Grab, m.keys.Advance,
		m.keys.Deliver, m.keys.Mine, m.keys.Search, m.keys.Quit,
	}
	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		hints = append(hints, formatter.Dim(b.Help().Key+": "+b.Help().Desc))
	}
	return strings.Join(hints, "  ")
}

func max1(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
