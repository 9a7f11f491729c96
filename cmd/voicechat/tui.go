package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	voicechat "github.com/mindfuljourney/voicechat-core/core"
	"github.com/mindfuljourney/voicechat-core/core/events"
	"github.com/mindfuljourney/voicechat-core/core/providers"
)

var (
	headerStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	userStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	assistantStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	stateStyle      = lipgloss.NewStyle().Faint(true)
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	transcriptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Italic(true)
	helpStyle       = lipgloss.NewStyle().Faint(true)
)

type model struct {
	orchestrator *voicechat.Orchestrator
	eventCh      chan events.Event

	viewport  viewport.Model
	input     textinput.Model
	spinner   spinner.Model
	ready     bool
	width     int
	height    int
	quitting  bool
	messages  []providers.Message
	partial   string
	pending   string
	turnState voicechat.TurnState
	lastErr   error
	sessionNo int
}

type (
	coreEventMsg struct{ event events.Event }
	commandDone  struct{ err error }
)

func newModel(orchestrator *voicechat.Orchestrator, eventCh chan events.Event) model {
	input := textinput.New()
	input.Placeholder = "Type a message..."
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	return model{
		orchestrator: orchestrator,
		eventCh:      eventCh,
		input:        input,
		spinner:      spin,
		turnState:    voicechat.TurnAwaitingUserInput,
		sessionNo:    1,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.listenEvents(), m.spinner.Tick, textinput.Blink)
}

func (m model) listenEvents() tea.Cmd {
	return func() tea.Msg {
		event, ok := <-m.eventCh
		if !ok {
			return nil
		}
		return coreEventMsg{event: event}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "enter":
			text := strings.TrimSpace(m.input.Value())
			if text == "" {
				break
			}
			m.input.Reset()
			if m.turnState == voicechat.TurnError {
				cmds = append(cmds, m.runCommand(func() error {
					if err := m.orchestrator.AcknowledgeError(); err != nil {
						return err
					}
					return m.orchestrator.SubmitText(context.Background(), text)
				}))
				break
			}
			cmds = append(cmds, m.runCommand(func() error {
				return m.orchestrator.SubmitText(context.Background(), text)
			}))
		case "ctrl+t":
			on := !m.orchestrator.VoiceMode()
			cmds = append(cmds, m.runCommand(func() error {
				return m.orchestrator.SetVoiceMode(context.Background(), on)
			}))
		case "ctrl+l":
			cmds = append(cmds, m.runCommand(func() error {
				return m.orchestrator.StartListening(context.Background())
			}))
		case "ctrl+d":
			cmds = append(cmds, m.runCommand(func() error {
				return m.orchestrator.StopListening(context.Background())
			}))
		case "ctrl+y":
			m.pending = ""
			cmds = append(cmds, m.runCommand(func() error {
				return m.orchestrator.ConfirmTranscript(context.Background())
			}))
		case "ctrl+n":
			m.pending = ""
			cmds = append(cmds, m.runCommand(func() error {
				return m.orchestrator.DiscardTranscript(context.Background())
			}))
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-6)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 6
		}
		m.input.Width = msg.Width - 4
		m.refreshViewport()

	case coreEventMsg:
		m.applyEvent(msg.event)
		cmds = append(cmds, m.listenEvents())

	case commandDone:
		m.lastErr = msg.err

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// runCommand executes a blocking orchestrator call off the UI loop.
func (m model) runCommand(fn func() error) tea.Cmd {
	return func() tea.Msg {
		return commandDone{err: fn()}
	}
}

func (m *model) applyEvent(event events.Event) {
	switch typedEvent := event.(type) {
	case events.SessionStarted:
		m.sessionNo = typedEvent.SessionNumber
		m.messages = nil
	case events.UserMessageAppended:
		m.messages = append(m.messages, typedEvent.Message)
	case events.AssistantMessageAppended:
		m.messages = append(m.messages, typedEvent.Message)
	case events.UserTranscriptInterim:
		m.partial = typedEvent.Transcript
	case events.UserTranscriptFinal:
		m.partial = ""
		m.pending = typedEvent.Transcript
	case events.CaptureFailed:
		m.partial = ""
		m.lastErr = typedEvent.Err
	case events.TurnStateChanged:
		m.turnState = voicechat.TurnState(typedEvent.To)
	case events.TurnFailed:
		m.lastErr = typedEvent.Err
	}
	m.refreshViewport()
}

func (m *model) refreshViewport() {
	if !m.ready {
		return
	}

	var b strings.Builder
	for _, msg := range m.messages {
		style, label := assistantStyle, "assistant"
		if msg.Role == providers.RoleUser {
			style, label = userStyle, "you"
		}
		b.WriteString(style.Render(label+":") + " ")
		b.WriteString(wordwrap.String(msg.Content, max(m.viewport.Width-2, 20)))
		b.WriteString("\n\n")
	}
	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

func (m model) View() string {
	if m.quitting || !m.ready {
		return ""
	}

	var status []string
	status = append(status, fmt.Sprintf("Session #%d", m.sessionNo))
	if m.orchestrator.VoiceMode() {
		status = append(status, "voice on")
	} else {
		status = append(status, "voice off")
	}
	if m.turnState == voicechat.TurnResponsePending {
		status = append(status, m.spinner.View()+"thinking")
	}

	var sections []string
	sections = append(sections,
		headerStyle.Render("voicechat")+" "+stateStyle.Render(strings.Join(status, " | ")))
	sections = append(sections, m.viewport.View())

	if m.partial != "" {
		sections = append(sections, transcriptStyle.Render("listening: "+m.partial))
	}
	if m.pending != "" {
		sections = append(sections,
			transcriptStyle.Render(`send "`+m.pending+`"?`)+helpStyle.Render(" (ctrl+y yes / ctrl+n no)"))
	}
	if m.lastErr != nil {
		sections = append(sections, errorStyle.Render("error: "+m.lastErr.Error()))
	}

	sections = append(sections, m.input.View())
	sections = append(sections,
		helpStyle.Render("ctrl+t voice | ctrl+l listen | ctrl+d done | esc quit"))

	return strings.Join(sections, "\n")
}
