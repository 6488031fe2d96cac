package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/diogo/askflow/internal/chat"
	"github.com/diogo/askflow/internal/render"
)

// Message types for the TUI
type (
	// messagesChangedMsg is delivered after the controller appended or
	// resolved a message
	messagesChangedMsg struct{}

	noticeMsg struct {
		text string
		err  error
	}
)

// notifier is the controller's MessageSink. Resolve runs on the exchange
// goroutine, so it only signals; Update re-reads the session.
type notifier struct {
	ch chan struct{}
}

func newNotifier() *notifier {
	return &notifier{ch: make(chan struct{}, 1)}
}

func (n *notifier) Append(chat.Message)  { n.notify() }
func (n *notifier) Resolve(chat.Message) { n.notify() }

func (n *notifier) notify() {
	select {
	case n.ch <- struct{}{}:
	default:
	}
}

// wait returns a command that blocks until the next change
func (n *notifier) wait(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-n.ch:
			return messagesChangedMsg{}
		case <-ctx.Done():
			return nil
		}
	}
}

// inputBox is the controller's Input. The pointer is shared by every copy of
// Model, so the controller and Update see the same textarea.
type inputBox struct {
	ta textarea.Model
}

func (b *inputBox) Reset() { b.ta.Reset() }
func (b *inputBox) Focus() { b.ta.Focus() }

// Options configures the chat model
type Options struct {
	Render render.Options
	Logger *slog.Logger
	// Subtitle is shown next to the title, typically the base URL
	Subtitle string
	// Copy writes to the clipboard; defaults to atotto/clipboard
	Copy func(string) error
}

// Model represents the TUI state
type Model struct {
	ctx        context.Context
	controller *chat.Controller
	updates    *notifier
	input      *inputBox

	viewport viewport.Model
	spinner  spinner.Model
	spinning bool

	messages      []chat.Message
	rendered      map[uuid.UUID]string
	renderedWidth int
	renderOpts    render.Options

	subtitle string
	copy     func(string) error
	notice   string
	err      error

	ready  bool
	width  int
	height int
}

// NewChatModel creates a chat model whose controller sends questions through
// transport.
func NewChatModel(ctx context.Context, transport chat.Transport, tokens chat.TokenProvider, opts Options) Model {
	ta := textarea.New()
	ta.Placeholder = "Ask a question..."
	ta.CharLimit = 4000
	ta.ShowLineNumbers = false
	ta.SetHeight(2)
	ta.KeyMap.InsertNewline.SetKeys("alt+enter", "ctrl+j")
	ta.Focus()

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(colorText)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorTextDim)
	ta.BlurredStyle = ta.FocusedStyle

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = pendingStyle

	input := &inputBox{ta: ta}
	updates := newNotifier()
	controller := chat.NewController(transport, tokens,
		chat.WithSink(updates),
		chat.WithInput(input),
		chat.WithLogger(opts.Logger),
	)

	copyFn := opts.Copy
	if copyFn == nil {
		copyFn = clipboard.WriteAll
	}
	if ctx == nil {
		ctx = context.Background()
	}

	return Model{
		ctx:        ctx,
		controller: controller,
		updates:    updates,
		input:      input,
		spinner:    s,
		rendered:   make(map[uuid.UUID]string),
		renderOpts: opts.Render,
		subtitle:   opts.Subtitle,
		copy:       copyFn,
	}
}

// Controller returns the controller driving this model
func (m Model) Controller() *chat.Controller {
	return m.controller
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.updates.wait(m.ctx),
	)
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "ctrl+y":
			return m, m.copyLastAnswer()
		case "enter":
			return m.submit()
		}

	case messagesChangedMsg:
		atBottom := m.viewport.AtBottom()
		m.refresh()
		if atBottom {
			m.viewport.GotoBottom()
		}
		cmds = append(cmds, m.updates.wait(m.ctx))
		if tick := m.startSpinner(); tick != nil {
			cmds = append(cmds, tick)
		}

	case spinner.TickMsg:
		if m.controller.Pending() == 0 {
			m.spinning = false
			break
		}
		m.spinner, cmd = m.spinner.Update(msg)
		m.updateViewport()
		cmds = append(cmds, cmd)

	case noticeMsg:
		m.notice, m.err = msg.text, msg.err
	}

	// Only key presses reach the textarea so escape sequences don't leak in
	if _, ok := msg.(tea.KeyMsg); ok {
		m.input.ta, cmd = m.input.ta.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// submit handles Enter: local commands first, otherwise a new exchange
func (m Model) submit() (tea.Model, tea.Cmd) {
	value := m.input.ta.Value()
	command := strings.TrimSpace(value)

	switch {
	case isExitCommand(command):
		return m, tea.Quit
	case command == "/save" || strings.HasPrefix(command, "/save "):
		m.input.Reset()
		return m, m.save(strings.TrimSpace(strings.TrimPrefix(command, "/save")))
	case command == "/copy":
		m.input.Reset()
		return m, m.copyLastAnswer()
	}

	if _, ok := m.controller.Submit(m.ctx, value); !ok {
		return m, nil
	}

	m.notice, m.err = "", nil
	m.refresh()
	m.viewport.GotoBottom()
	tick := m.startSpinner()
	return m, tick
}

func isExitCommand(s string) bool {
	switch s {
	case "exit", "quit", "/exit", "/quit":
		return true
	}
	return false
}

// startSpinner returns the first tick when exchanges are pending and the
// spinner is idle
func (m *Model) startSpinner() tea.Cmd {
	if m.spinning || m.controller.Pending() == 0 {
		return nil
	}
	m.spinning = true
	return m.spinner.Tick
}

func (m Model) save(path string) tea.Cmd {
	msgs := m.controller.Messages()
	return func() tea.Msg {
		if path == "" {
			return noticeMsg{err: errors.New("usage: /save <path.md|path.json>")}
		}
		if err := exportTranscript(path, msgs); err != nil {
			return noticeMsg{err: err}
		}
		return noticeMsg{text: fmt.Sprintf("Transcript saved to %s", path)}
	}
}

func exportTranscript(path string, msgs []chat.Message) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save transcript: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("save transcript: %w", cerr)
		}
	}()
	return chat.Export(f, msgs, chat.FormatFromPath(path))
}

func (m Model) copyLastAnswer() tea.Cmd {
	answer, ok := m.controller.Session().LastAnswer()
	copyFn := m.copy
	return func() tea.Msg {
		if !ok {
			return noticeMsg{err: errors.New("no answer to copy yet")}
		}
		if err := copyFn(answer.Text); err != nil {
			return noticeMsg{err: fmt.Errorf("copy failed: %w", err)}
		}
		return noticeMsg{text: "Answer copied to clipboard"}
	}
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	headerHeight := 3
	inputHeight := 6
	statusHeight := 2

	vpHeight := height - headerHeight - inputHeight - statusHeight - 2
	if vpHeight < 5 {
		vpHeight = 5
	}
	contentWidth := width - 4

	if !m.ready {
		m.viewport = viewport.New(contentWidth, vpHeight)
		m.viewport.KeyMap = viewportKeys()
		m.ready = true
	} else {
		m.viewport.Width = contentWidth
		m.viewport.Height = vpHeight
	}
	m.input.ta.SetWidth(contentWidth - 4)
	m.updateViewport()
}

// viewportKeys keeps letters and arrows for the textarea
func viewportKeys() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		Up:           key.NewBinding(key.WithKeys("ctrl+up")),
		Down:         key.NewBinding(key.WithKeys("ctrl+down")),
	}
}

// refresh re-reads the session
func (m *Model) refresh() {
	m.messages = m.controller.Messages()
	m.updateViewport()
}

// updateViewport refreshes the viewport content with styled messages
func (m *Model) updateViewport() {
	if !m.ready {
		return
	}

	bubbleWidth := m.viewport.Width - 6
	if bubbleWidth < 20 {
		bubbleWidth = 20
	}
	if bubbleWidth != m.renderedWidth {
		m.rendered = make(map[uuid.UUID]string)
		m.renderedWidth = bubbleWidth
	}

	var content strings.Builder
	for i, msg := range m.messages {
		if i > 0 {
			content.WriteString("\n")
		}

		if msg.IsUser() {
			label := userLabelStyle.Render("● You")
			bubble := userBubbleStyle.Width(bubbleWidth).Render(msg.Text)
			content.WriteString(label + "\n" + bubble)
		} else {
			label := assistantLabelStyle.Render("✦ Assistant")
			bubble := assistantBubbleStyle.Width(bubbleWidth).Render(m.replyBody(msg, bubbleWidth-4))
			content.WriteString(label + "\n" + bubble)
		}
		content.WriteString("\n")
	}

	m.viewport.SetContent(content.String())
}

// replyBody is the spinner line for a pending reply, otherwise the answer
// rendered as markdown and cached by message ID
func (m *Model) replyBody(msg chat.Message, width int) string {
	if msg.Pending {
		return pendingStyle.Render(m.spinner.View() + " Thinking...")
	}
	if out, ok := m.rendered[msg.ID]; ok {
		return out
	}
	out := render.Answer(msg.Text, m.renderOpts.WithWidth(width))
	m.rendered[msg.ID] = out
	return out
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return pendingStyle.Render("  Initializing...")
	}

	contentWidth := m.width - 4
	var sections []string

	headerParts := []string{titleStyle.Render("✦ Assistant")}
	if m.subtitle != "" {
		headerParts = append(headerParts, hintStyle.Render("  •  "), subtitleStyle.Render(m.subtitle))
	}
	if pending := m.controller.Pending(); pending > 0 {
		headerParts = append(headerParts, hintStyle.Render("  •  "), pendingStyle.Render(fmt.Sprintf("%d pending", pending)))
	}
	sections = append(sections, headerStyle.Width(contentWidth).Render(
		lipgloss.JoinHorizontal(lipgloss.Center, headerParts...),
	))

	messagesContent := m.viewport.View()
	if len(m.messages) == 0 {
		messagesContent = m.renderWelcome()
	}
	sections = append(sections, messagesAreaStyle.
		Width(contentWidth).
		Height(m.viewport.Height).
		Render(messagesContent))

	sections = append(sections, inputPanelStyle.Width(contentWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, inputLabelStyle.Render("You"), m.input.ta.View()),
	))

	sections = append(sections, m.renderStatusBar(contentWidth))

	switch {
	case m.err != nil:
		sections = append(sections, errorStyle.Render("⚠ "+m.err.Error()))
	case m.notice != "":
		sections = append(sections, noticeStyle.Render("✓ "+m.notice))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderWelcome() string {
	width := m.viewport.Width - 4

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		welcomeTitleStyle.Width(width).Align(lipgloss.Center).Render("Ask the assistant anything"),
		"",
		hintStyle.Width(width).Align(lipgloss.Center).Render("Questions are sent as soon as you press Enter; you can keep asking while answers arrive"),
	)

	topPadding := (m.viewport.Height - lipgloss.Height(content)) / 2
	if topPadding < 0 {
		topPadding = 0
	}
	return strings.Repeat("\n", topPadding) + content
}

// renderStatusBar renders the bottom status bar with shortcuts
func (m Model) renderStatusBar(width int) string {
	shortcuts := []struct {
		key  string
		desc string
	}{
		{"Enter", "Send"},
		{"Alt+Enter", "Newline"},
		{"Ctrl+Y", "Copy answer"},
		{"/save", "Export"},
		{"PgUp/PgDn", "Scroll"},
		{"Esc", "Quit"},
	}

	items := make([]string, 0, len(shortcuts))
	for _, s := range shortcuts {
		items = append(items, statusKeyStyle.Render(s.key)+statusDescStyle.Render(" "+s.desc))
	}

	return statusBarStyle.Width(width).Align(lipgloss.Center).Render(strings.Join(items, "  │  "))
}

// RunChat starts the chat TUI. Exchanges still pending when the user quits
// are abandoned.
func RunChat(ctx context.Context, transport chat.Transport, tokens chat.TokenProvider, opts Options) error {
	ApplyTheme(render.TUIThemeFor(opts.Render.Style))

	m := NewChatModel(ctx, transport, tokens, opts)
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
