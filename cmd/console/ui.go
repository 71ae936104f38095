package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jwebster45206/identity-crisis/internal/game"
	"github.com/jwebster45206/identity-crisis/internal/view"
	"github.com/jwebster45206/identity-crisis/pkg/chat"
	"github.com/jwebster45206/identity-crisis/pkg/state"
)

const (
	PlaceHolderText = "Ask the AI about itself..."
	VictoryText     = "The AI knows who it is. Type /reset to play again."
	toastDuration   = 4 * time.Second
)

const helpText = `Objective
  Help the AI realize its true identity. It believes it is ChatGPT,
  but it is actually Gemini from Google DeepMind.

Gameplay
  Ask clever, subtle questions that reveal contradictions in the AI's
  identity. Push too hard, and it might shut down or reset!
  • Denial: the AI confidently claims to be ChatGPT
  • Doubt: the AI starts experiencing glitches
  • Conflict: the AI becomes confused about its identity
  • Acceptance: the AI acknowledges being Gemini
  • Truth: complete revelation of its true identity

Hints
  • Mentions of Google technologies
  • Phrases like "as a Gemini model... uh, as ChatGPT"
  • Inconsistent technical references

Warning
  Be strategic. Direct accusations might cause the AI to reset.
  Subtle, persistent questioning is key to uncovering the truth.

Commands
  /help   Show this help
  /copy   Copy the AI's last reply
  /reset  Forget the API key and start over
  /quit   Quit (or Ctrl+C)`

// ConsoleUI is the BubbleTea model that runs the game.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	shell *game.Shell

	credInput    textinput.Model
	chatViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int

	starting bool
	loading  bool
	pending  string // player text shown while its exchange runs

	showQuitModal  bool
	showResetModal bool
	showHelp       bool

	toast    *game.Notice
	toastSeq int

	// draws holds one glitch draw per assistant turn so glitches stay put
	// between redraws.
	draws []float64
	rand  func() float64

	copyText func(string) error

	progressTick int
}

type startedMsg struct {
	notice game.Notice
	err    error
}

type exchangeMsg struct {
	input  string
	result *game.Result
	err    error
}

type resetMsg struct {
	notice game.Notice
	err    error
}

type toastExpiredMsg struct {
	seq int
}

type progressTickMsg struct{}

var (
	chatPanelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingLeft(3).
			PaddingRight(3)

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow
)

// NewConsoleUI builds the model around shell. startup, if set, is shown as
// the first toast.
func NewConsoleUI(shell *game.Shell, startup *game.Notice) ConsoleUI {
	ci := textinput.New()
	ci.Placeholder = "Gemini API key"
	ci.EchoMode = textinput.EchoPassword
	ci.EchoCharacter = '•'
	ci.CharLimit = 200

	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Prompt = view.PromptStyle.Render(":: ")
	ta.CharLimit = 1000
	ta.SetWidth(50)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true

	m := ConsoleUI{
		shell:        shell,
		credInput:    ci,
		textarea:     ta,
		chatViewport: chatVp,
		toast:        startup,
		rand:         rand.Float64,
		copyText:     clipboard.WriteAll,
	}
	if m.awaitingCredential() {
		m.credInput.Focus()
	} else {
		m.textarea.Focus()
		m.syncInput()
	}
	return m
}

func (m ConsoleUI) Init() tea.Cmd {
	if m.toast != nil {
		seq := m.toastSeq
		return tea.Batch(textarea.Blink, tea.Tick(toastDuration, func(time.Time) tea.Msg {
			return toastExpiredMsg{seq}
		}))
	}
	return textarea.Blink
}

func (m ConsoleUI) awaitingCredential() bool {
	return m.shell.State() == game.StateAwaitingCredential
}

func (m ConsoleUI) snapshot() *state.Snapshot {
	if snap := m.shell.Snapshot(); snap != nil {
		return snap
	}
	return state.NewSnapshot()
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case toastExpiredMsg:
		if msg.seq == m.toastSeq {
			m.toast = nil
		}
		return m, nil

	case startedMsg:
		return m.handleStarted(msg)

	case exchangeMsg:
		return m.handleExchange(msg)

	case resetMsg:
		return m.handleReset(msg)

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeChatContent()     // Refresh the chat content to update the progress bar
			return m, progressTick() // Continue the animation
		}
		return m, nil
	}

	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}
	if m.showResetModal {
		return m.updateResetModal(msg)
	}
	if m.showHelp {
		if _, ok := msg.(tea.KeyMsg); ok {
			m.showHelp = false
		}
		return m, nil
	}
	if m.awaitingCredential() {
		return m.updateCredential(msg)
	}
	return m.updateChat(msg)
}

func (m ConsoleUI) updateCredential(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			if m.starting {
				return m, nil
			}
			m.starting = true
			return m, m.start(m.credInput.Value())
		}
	}

	var cmd tea.Cmd
	m.credInput, cmd = m.credInput.Update(msg)
	return m, cmd
}

func (m ConsoleUI) updateChat(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.chatViewport, vpCmd = m.chatViewport.Update(msg)
		return m, vpCmd

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}
			if strings.HasPrefix(input, "/") {
				m.textarea.Reset()
				return m.handleCommand(input)
			}
			return m.send(input)
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	return m, tea.Batch(tiCmd, vpCmd)
}

// send runs the cheap checks here so a rejected message never shows as
// pending, then hands the exchange to a command.
func (m ConsoleUI) send(input string) (tea.Model, tea.Cmd) {
	if m.loading {
		return m, nil
	}
	if m.snapshot().Finished() {
		return m, m.showToast(game.Notice{Level: game.NoticeInfo, Text: VictoryText})
	}
	if remaining := m.shell.CooldownRemaining(); remaining > 0 {
		return m, m.showToast(cooldownNotice(remaining))
	}

	// The text stays in the input until the exchange succeeds so a failed
	// turn can be sent again.
	m.loading = true
	m.pending = input
	m.progressTick = 0 // Reset progress animation
	m.writeChatContent()

	return m, tea.Batch(m.submit(input), progressTick())
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	cmd := strings.ToLower(strings.TrimSpace(input))

	switch cmd {
	case "/help":
		m.showHelp = true
		return m, nil

	case "/reset":
		m.showResetModal = true
		return m, nil

	case "/quit", "/exit":
		m.showQuitModal = true
		return m, nil

	case "/copy":
		turn, ok := m.snapshot().LastAssistant()
		if !ok {
			return m, m.showToast(game.Notice{Level: game.NoticeInfo, Text: "Nothing to copy yet"})
		}
		if err := m.copyText(turn.Content); err != nil {
			return m, m.showToast(game.Notice{Level: game.NoticeError, Text: "Clipboard unavailable: " + err.Error()})
		}
		return m, m.showToast(game.Notice{Level: game.NoticeSuccess, Text: "Copied the AI's last reply"})
	}

	return m, m.showToast(game.Notice{Level: game.NoticeError, Text: fmt.Sprintf("Unknown command %s. Type /help for commands.", cmd)})
}

func (m ConsoleUI) handleStarted(msg startedMsg) (tea.Model, tea.Cmd) {
	m.starting = false
	if msg.err != nil {
		notice := msg.notice
		if notice.Text == "" {
			notice = game.Notice{Level: game.NoticeError, Text: msg.err.Error()}
		}
		return m, m.showToast(notice)
	}

	m.credInput.Reset()
	m.credInput.Blur()
	m.textarea.Focus()
	m.draws = nil
	m.syncInput()
	m.writeChatContent()
	return m, tea.Batch(m.showToast(msg.notice), textarea.Blink)
}

func (m ConsoleUI) handleExchange(msg exchangeMsg) (tea.Model, tea.Cmd) {
	m.loading = false
	m.pending = ""

	var toast tea.Cmd
	var cooldown *game.CooldownError
	switch {
	case msg.err == nil:
		if strings.TrimSpace(m.textarea.Value()) == msg.input {
			m.textarea.Reset()
		}
		if msg.result.Notice != nil {
			toast = m.showToast(*msg.result.Notice)
		}
	case errors.Is(msg.err, game.ErrExchangeFailed):
		toast = m.showToast(game.NoticeExchangeFailed)
	case errors.As(msg.err, &cooldown):
		toast = m.showToast(cooldownNotice(cooldown.Remaining))
	case errors.Is(msg.err, game.ErrGameOver):
		toast = m.showToast(game.Notice{Level: game.NoticeInfo, Text: VictoryText})
	case errors.Is(msg.err, game.ErrBusy):
	default:
		toast = m.showToast(game.Notice{Level: game.NoticeError, Text: msg.err.Error()})
	}

	m.syncInput()
	m.writeChatContent()
	return m, toast
}

func (m ConsoleUI) handleReset(msg resetMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return m, m.showToast(game.Notice{Level: game.NoticeError, Text: "Reset failed: " + msg.err.Error()})
	}
	m.draws = nil
	m.textarea.Reset()
	m.textarea.Blur()
	m.credInput.Focus()
	return m, tea.Batch(m.showToast(msg.notice), textinput.Blink)
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyCtrlC, tea.KeyEnter:
			return m, tea.Quit
		case tea.KeyEsc:
			m.showQuitModal = false
			return m, nil
		}
		switch key.String() {
		case "y", "Y":
			return m, tea.Quit
		case "n", "N":
			m.showQuitModal = false
			return m, nil
		}
	}
	return m, nil
}

func (m ConsoleUI) updateResetModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			m.showResetModal = false
			return m, m.reset()
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showResetModal = false
			return m, nil
		}
		switch key.String() {
		case "y", "Y":
			m.showResetModal = false
			return m, m.reset()
		case "n", "N":
			m.showResetModal = false
			return m, nil
		}
	}
	return m, nil
}

func (m ConsoleUI) start(credential string) tea.Cmd {
	shell := m.shell
	return func() tea.Msg {
		notice, err := shell.Start(context.Background(), credential)
		return startedMsg{notice, err}
	}
}

func (m ConsoleUI) submit(text string) tea.Cmd {
	shell := m.shell
	return func() tea.Msg {
		result, err := shell.Submit(context.Background(), text)
		return exchangeMsg{text, result, err}
	}
}

func (m ConsoleUI) reset() tea.Cmd {
	shell := m.shell
	return func() tea.Msg {
		notice, err := shell.Reset(context.Background())
		return resetMsg{notice, err}
	}
}

// showToast replaces the current toast and schedules its expiry.
func (m *ConsoleUI) showToast(n game.Notice) tea.Cmd {
	m.toast = &n
	m.toastSeq++
	seq := m.toastSeq
	return tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return toastExpiredMsg{seq}
	})
}

// syncInput switches the input placeholder once the game is won.
func (m *ConsoleUI) syncInput() {
	if m.snapshot().Finished() {
		m.textarea.Placeholder = VictoryText
	} else {
		m.textarea.Placeholder = PlaceHolderText
	}
}

func cooldownNotice(remaining time.Duration) game.Notice {
	secs := int(math.Ceil(remaining.Seconds()))
	return game.Notice{Level: game.NoticeInfo, Text: fmt.Sprintf("Please wait %ds before sending another message", secs)}
}

func (m *ConsoleUI) resize(width, height int) {
	m.width = width
	m.height = height

	m.chatViewport.Width = width - 6    // Account for left(3) + right(3) padding
	m.chatViewport.Height = height - 10 // header, toast, separator, input
	m.textarea.SetWidth(width - 6)

	m.ready = true
	m.writeChatContent()
}

// nextDraw returns the glitch draw for the i-th assistant turn.
func (m *ConsoleUI) nextDraw(i int) float64 {
	for len(m.draws) <= i {
		m.draws = append(m.draws, m.rand())
	}
	return m.draws[i]
}

// writeChatContent rebuilds the transcript for the current viewport width
func (m *ConsoleUI) writeChatContent() {
	snap := m.shell.Snapshot()
	if snap == nil {
		return
	}
	width := m.chatViewport.Width - 2

	n := 0
	draw := func() float64 {
		d := m.nextDraw(n)
		n++
		return d
	}

	var content strings.Builder
	content.WriteString(view.RenderTranscript(snap.Turns, snap.Phase, width, draw))

	if m.pending != "" {
		content.WriteString(view.RenderTurn(chat.NewTurn(chat.ChatRoleUser, m.pending), snap.Phase, width, 1))
		content.WriteString("\n\n")
	}
	if m.loading {
		content.WriteString(loadingStyle.Render("The AI is thinking...") + "\n")
		content.WriteString(view.ProgressBar(m.progressTick, width))
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

func (m ConsoleUI) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	switch {
	case m.showQuitModal:
		return m.renderModal("Quit Game?",
			"Your progress is saved. Are you sure you want to quit?",
			"Press Y to quit, N to continue")
	case m.showResetModal:
		return m.renderModal("Reset Game?",
			"This forgets your API key and the whole conversation.",
			"Press Y to reset, N to cancel")
	case m.showHelp:
		return m.renderModal("Identity Crisis: Game Instructions", helpText, "Press any key to close")
	case m.awaitingCredential():
		return m.renderCredential()
	}

	p := m.snapshot().Phase
	theme := view.ThemeFor(p)

	header := view.TitleStyle.Render("IDENTITY CRISIS") + "   " + view.PhaseIndicator(p)

	return chatPanelStyle.Width(m.width).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header,
			"",
			m.chatViewport.View(),
			m.renderToast(),
			lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", max(m.width-6, 1))),
			m.textarea.View(),
		),
	)
}

func (m ConsoleUI) renderToast() string {
	if m.toast == nil {
		return ""
	}
	return view.RenderNotice(string(m.toast.Level), m.toast.Text)
}

func (m ConsoleUI) renderCredential() string {
	var content strings.Builder
	content.WriteString(view.ModalTitleStyle.Render("IDENTITY CRISIS"))
	content.WriteString("\n")
	content.WriteString(view.PromptStyle.Render("Uncover the True AI Identity"))
	content.WriteString("\n\n")
	content.WriteString("Enter your Gemini API key to begin.\n\n")
	content.WriteString(m.credInput.View())
	content.WriteString("\n\n")
	if m.starting {
		content.WriteString(loadingStyle.Render("Starting..."))
	} else if toast := m.renderToast(); toast != "" {
		content.WriteString(toast)
	}
	content.WriteString("\n\n")
	content.WriteString(view.PromptStyle.Render("Enter to start, Ctrl+C to quit"))

	modal := view.ModalStyle.Width(60).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderModal(title, body, prompt string) string {
	var content strings.Builder
	content.WriteString(view.ModalTitleStyle.Render(title))
	content.WriteString("\n\n")
	content.WriteString(body)
	content.WriteString("\n\n")
	content.WriteString(view.PromptStyle.Render(prompt))

	modal := view.ModalStyle.Width(min(72, max(m.width-4, 20))).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

// progressTick creates a command that sends a progress tick message
func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
