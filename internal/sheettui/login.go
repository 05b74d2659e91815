package sheettui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	internalstrings "sheetctl/internal/strings"
)

// loginModel is the signed-out view: email and password fields, enter
// submits. The top-level model runs the actual login command and reports the
// outcome back through SetSubmitting.
type loginModel struct {
	email      textinput.Model
	password   textinput.Model
	focusIndex int
	submitting bool
}

func newLoginModel() loginModel {
	email := textinput.New()
	email.Prompt = ""
	email.Placeholder = "you@example.com"
	email.Width = 32
	email.Focus()

	password := textinput.New()
	password.Prompt = ""
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '*'
	password.Width = 32

	return loginModel{email: email, password: password}
}

// Values returns the trimmed email and the password as typed.
func (model loginModel) Values() (string, string) {
	return strings.TrimSpace(model.email.Value()), model.password.Value()
}

// Ready reports whether both fields are filled in.
func (model loginModel) Ready() bool {
	email, password := model.Values()
	return !internalstrings.IsBlank(email) && password != ""
}

func (model *loginModel) SetSubmitting(submitting bool) {
	model.submitting = submitting
}

// ClearPassword empties the password field and focuses it, for retry after a
// rejected attempt.
func (model *loginModel) ClearPassword() {
	model.password.SetValue("")
	model.focusField(1)
}

func (model loginModel) Update(msg tea.Msg) (loginModel, tea.Cmd, bool) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return model, nil, false
	}
	if model.submitting {
		return model, nil, false
	}

	switch key.String() {
	case "tab", "shift+tab", "backtab", "down", "up":
		// Two fields, so either direction flips to the other one.
		model.focusField((model.focusIndex + 1) % 2)
		return model, nil, false
	case "enter":
		if model.focusIndex == 0 {
			model.focusField(1)
			return model, nil, false
		}
		return model, nil, true
	}

	var cmd tea.Cmd
	if model.focusIndex == 0 {
		model.email, cmd = model.email.Update(msg)
	} else {
		model.password, cmd = model.password.Update(msg)
	}
	return model, cmd, false
}

func (model *loginModel) focusField(index int) {
	model.focusIndex = index
	if index == 0 {
		model.email.Focus()
		model.password.Blur()
		return
	}
	model.password.Focus()
	model.email.Blur()
}

func (model loginModel) View() string {
	lines := []string{
		labelStyle.Render("Sign in"),
		"",
		fmt.Sprintf("%s     %s", labelStyle.Render("Email"), model.email.View()),
		fmt.Sprintf("%s  %s", labelStyle.Render("Password"), model.password.View()),
		"",
	}
	if model.submitting {
		lines = append(lines, valueMuted.Render("Signing in..."))
	} else {
		lines = append(lines, valueMuted.Render("enter: sign in | tab: next field | ctrl+c: quit"))
	}
	content := strings.Join(lines, "\n")
	box := lipgloss.NewStyle().Border(borderASCII).Padding(1, 2)
	return box.Render(content)
}
