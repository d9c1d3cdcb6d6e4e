// Package tui is the terminal chat window. It turns keystrokes into typed
// input for the dialogue manager and renders the updates it sends back.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"humaine-chatbot/internal/chat"
	"humaine-chatbot/internal/dialogue"
	"humaine-chatbot/internal/domain/model"
)

// Conversation is the part of dialogue.Manager the window drives.
type Conversation interface {
	Open(ctx context.Context) error
	Send(ctx context.Context, input *chat.UserInputAction) error
	Feedback(ctx context.Context, messageID string, ft model.FeedbackType) error
	End(ctx context.Context, et chat.EndType) error
	SetFocus(ctx context.Context, focused bool) error
	Touch(ctx context.Context) error
	Updates() <-chan dialogue.Update
}

var _ Conversation = (*dialogue.Manager)(nil)

const callTimeout = 5 * time.Second

type (
	updateMsg     struct{ u dialogue.Update }
	updatesClosed struct{}
	errMsg        struct{ err error }
	quitMsg       struct{}
)

type Model struct {
	conv   Conversation
	now    func() time.Time
	styles Styles

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	typing    *chat.UserInputAction
	messages  []chat.Message
	sessionID string
	notice    string
	failure   string
	ready     bool
	width     int
	height    int
}

func New(conv Conversation) Model {
	styles := DefaultStyles()

	ti := textinput.New()
	ti.Placeholder = "Say something... (Enter to send, Ctrl+P/Ctrl+N to rate, Ctrl+E to end, Esc to quit)"
	ti.Focus()
	ti.Prompt = "│ "
	ti.CharLimit = 4096
	ti.Width = 80
	ti.PromptStyle = styles.Prompt

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	return Model{
		conv:     conv,
		now:      time.Now,
		styles:   styles,
		input:    ti,
		viewport: viewport.New(80, 20),
		spinner:  sp,
	}
}

// Init assumes the window starts in front: the terminal only reports focus
// when it changes.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		m.start(),
		waitForUpdate(m.conv),
	)
}

func (m Model) start() tea.Cmd {
	return m.call(func(ctx context.Context) error {
		if err := m.conv.SetFocus(ctx, true); err != nil {
			return err
		}
		return m.conv.Open(ctx)
	})
}

func waitForUpdate(c Conversation) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-c.Updates()
		if !ok {
			return updatesClosed{}
		}
		return updateMsg{u: u}
	}
}

func (m Model) call(fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			return errMsg{err: err}
		}
		return nil
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, func() tea.Msg {
				ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
				defer cancel()
				_ = m.conv.End(ctx, chat.EndUserAction)
				return quitMsg{}
			}
		case tea.KeyEnter:
			return m.submit()
		case tea.KeyCtrlP:
			return m, m.rate(model.FeedbackPositive)
		case tea.KeyCtrlN:
			return m, m.rate(model.FeedbackNegative)
		case tea.KeyCtrlE:
			return m, m.call(func(ctx context.Context) error { return m.conv.End(ctx, chat.EndUserAction) })
		}
		before := m.input.Value()
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
		if after := m.input.Value(); after != before {
			m.keystroke(after)
			cmds = append(cmds, m.call(func(ctx context.Context) error { return m.conv.Touch(ctx) }))
		}

	case tea.FocusMsg:
		cmds = append(cmds, m.call(func(ctx context.Context) error { return m.conv.SetFocus(ctx, true) }))
	case tea.BlurMsg:
		cmds = append(cmds, m.call(func(ctx context.Context) error { return m.conv.SetFocus(ctx, false) }))

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		const chrome = 6
		m.viewport.Width = msg.Width - 2
		m.viewport.Height = max(msg.Height-chrome, 3)
		m.input.Width = msg.Width - 4
		m.ready = true
		m.refresh()

	case updateMsg:
		m.apply(msg.u)
		cmds = append(cmds, waitForUpdate(m.conv))
	case updatesClosed:
		return m, tea.Quit
	case errMsg:
		m.notice = msg.err.Error()
	case quitMsg:
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
		if m.pending() {
			m.refresh()
		}
	}

	var vpCmd tea.Cmd
	m.viewport, vpCmd = m.viewport.Update(msg)
	cmds = append(cmds, vpCmd)
	return m, tea.Batch(cmds...)
}

// keystroke starts the input timing on the first edit and moves its end on
// every later one.
func (m *Model) keystroke(text string) {
	now := m.now()
	if text == "" {
		m.typing = nil
		return
	}
	if m.typing == nil {
		m.typing = chat.NewUserInputAction(now)
	}
	m.typing.Update(text, now)
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}
	in := m.typing
	if in == nil {
		in = chat.NewUserInputAction(m.now())
	}
	in.Update(text, m.now())
	m.typing = nil
	m.input.Reset()
	m.notice = ""
	return m, m.call(func(ctx context.Context) error { return m.conv.Send(ctx, in) })
}

// rate applies feedback to the newest answered bot message.
func (m Model) rate(ft model.FeedbackType) tea.Cmd {
	for i := len(m.messages) - 1; i >= 0; i-- {
		if b, ok := m.messages[i].(*chat.BotMessage); ok && !b.Pending() {
			id := b.ID()
			return m.call(func(ctx context.Context) error { return m.conv.Feedback(ctx, id, ft) })
		}
	}
	return nil
}

func (m *Model) apply(u dialogue.Update) {
	switch u := u.(type) {
	case dialogue.SessionStarted:
		m.sessionID = u.SessionID
		m.messages = append(m.messages, chat.NewSystemMessage("New conversation started.", u.At))
	case dialogue.MessageAdded:
		m.messages = append(m.messages, u.Message)
	case dialogue.MessageUpdated:
		for i, msg := range m.messages {
			if msg.ID() == u.Message.ID() {
				m.messages[i] = u.Message
			}
		}
	case dialogue.SessionEnded:
		m.sessionID = ""
		text := "Conversation ended."
		if u.EndType == chat.EndInactivity {
			text = "Conversation ended after a period of inactivity."
		}
		m.messages = append(m.messages, chat.NewSystemMessage(text, m.now()))
	case dialogue.Failure:
		m.failure = fmt.Sprintf("Backend rejected the request: %v", u.Err)
	}
	m.refresh()
}

func (m Model) pending() bool {
	for _, msg := range m.messages {
		if b, ok := msg.(*chat.BotMessage); ok && b.Pending() {
			return true
		}
	}
	return false
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderMessages())
	m.viewport.GotoBottom()
}

func (m Model) renderMessages() string {
	var sb strings.Builder
	for _, msg := range m.messages {
		switch v := msg.(type) {
		case *chat.UserMessage:
			sb.WriteString(m.styles.User.Render("You: "))
			sb.WriteString(v.Text())
		case *chat.BotMessage:
			sb.WriteString(m.styles.Bot.Render("Bot: "))
			if v.Pending() {
				sb.WriteString(m.spinner.View())
			} else {
				sb.WriteString(v.Text())
			}
			switch v.Feedback() {
			case model.FeedbackPositive:
				sb.WriteString(" 👍")
			case model.FeedbackNegative:
				sb.WriteString(" 👎")
			}
		case *chat.SystemMessage:
			sb.WriteString(m.styles.System.Render(v.Text()))
		}
		sb.WriteString("\n\n")
	}
	return sb.String()
}

func (m Model) View() string {
	if !m.ready {
		return "Starting..."
	}
	var sb strings.Builder
	sb.WriteString(m.styles.Header.Render("HumAIne chat"))
	sb.WriteString("\n")
	sb.WriteString(m.viewport.View())
	sb.WriteString("\n")
	if m.failure != "" {
		sb.WriteString(m.styles.Error.Render(m.failure))
		sb.WriteString("\n")
	} else if m.notice != "" {
		sb.WriteString(m.styles.System.Render(m.notice))
		sb.WriteString("\n")
	}
	sb.WriteString(m.input.View())
	sb.WriteString("\n")
	sb.WriteString(m.styles.Footer.Render("enter send • ctrl+p 👍 • ctrl+n 👎 • ctrl+e end • esc quit"))
	return sb.String()
}
