// Package login renders the device-code sign-in as a small terminal
// program: the code to enter, then a spinner until Azure AD answers.
package login

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/o365-cli/internal/core/domain"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	codeStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	urlStyle   = lipgloss.NewStyle().Underline(true).Foreground(lipgloss.Color("39"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// LoginFunc runs the device-code flow, calling onCode once the code is known.
type LoginFunc func(ctx context.Context, onCode func(domain.DeviceCode)) (*domain.AuthStatus, error)

type codeMsg struct{ code domain.DeviceCode }

type doneMsg struct {
	status *domain.AuthStatus
	err    error
}

// Model is the bubbletea model of the sign-in screen.
type Model struct {
	spinner spinner.Model
	code    *domain.DeviceCode
	status  *domain.AuthStatus
	err     error
	done    bool
	cancel  context.CancelFunc
}

// NewModel creates the sign-in model. cancel aborts the login on Ctrl+C.
func NewModel(cancel context.CancelFunc) Model {
	return Model{
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(codeStyle)),
		cancel:  cancel,
	}
}

// Init starts the spinner.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case codeMsg:
		code := msg.code
		m.code = &code
		return m, nil
	case doneMsg:
		m.status, m.err, m.done = msg.status, msg.err, true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.String() == "q" || msg.Type == tea.KeyEsc {
			if m.cancel != nil {
				m.cancel()
			}
			m.err = context.Canceled
			m.done = true
			return m, tea.Quit
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

// View renders the screen.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Sign in to Office 365") + "\n\n")

	if m.code == nil {
		if !m.done {
			b.WriteString(m.spinner.View() + " Requesting a device code...\n")
		}
	} else {
		fmt.Fprintf(&b, "  1. Open %s\n", urlStyle.Render(m.code.VerificationURI))
		fmt.Fprintf(&b, "  2. Enter the code %s\n\n", codeStyle.Render(m.code.UserCode))
		if !m.done {
			b.WriteString(m.spinner.View() + " Waiting for you to finish signing in " + dimStyle.Render("(q to cancel)") + "\n")
		}
	}

	switch {
	case m.done && m.err != nil:
		b.WriteString(errStyle.Render("Sign-in failed: "+m.err.Error()) + "\n")
	case m.done && m.status != nil:
		who := m.status.Account
		if who == "" {
			who = "your account"
		}
		b.WriteString("Signed in as " + titleStyle.Render(who) + "\n")
	}
	return b.String()
}

// Result returns the login outcome once the program has quit.
func (m Model) Result() (*domain.AuthStatus, error) {
	return m.status, m.err
}

// Run shows the sign-in screen on out while login runs.
func Run(ctx context.Context, in io.Reader, out io.Writer, login LoginFunc) (*domain.AuthStatus, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewModel(cancel), tea.WithContext(ctx), tea.WithInput(in), tea.WithOutput(out))
	go func() {
		status, err := login(ctx, func(code domain.DeviceCode) { p.Send(codeMsg{code: code}) })
		p.Send(doneMsg{status: status, err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("login screen: %w", err)
	}
	return final.(Model).Result()
}
