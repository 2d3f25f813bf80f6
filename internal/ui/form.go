package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// formField is one labelled text input.
type formField struct {
	label string
	input textinput.Model
}

func newField(label, placeholder string, limit int) formField {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	ti.Prompt = ""
	return formField{label: label, input: ti}
}

func newSecretField(label, placeholder string) formField {
	f := newField(label, placeholder, 128)
	f.input.EchoMode = textinput.EchoPassword
	f.input.EchoCharacter = '•'
	return f
}

// form is a vertical group of inputs with one focused field. err holds the
// inline validation or server message shown under the fields.
type form struct {
	fields     []formField
	focus      int
	active     bool
	submitting bool
	err        string
}

func newForm(fields ...formField) form {
	return form{fields: fields}
}

// start focuses the first field.
func (f *form) start() tea.Cmd {
	f.active = true
	f.err = ""
	f.submitting = false
	return f.focusAt(0)
}

// stop blurs every field.
func (f *form) stop() {
	f.active = false
	for i := range f.fields {
		f.fields[i].input.Blur()
	}
}

func (f *form) focusAt(idx int) tea.Cmd {
	if len(f.fields) == 0 {
		return nil
	}
	idx = (idx + len(f.fields)) % len(f.fields)
	for i := range f.fields {
		f.fields[i].input.Blur()
	}
	f.focus = idx
	return f.fields[idx].input.Focus()
}

func (f *form) next() tea.Cmd { return f.focusAt(f.focus + 1) }
func (f *form) prev() tea.Cmd { return f.focusAt(f.focus - 1) }

func (f form) onLast() bool { return f.focus == len(f.fields)-1 }

// value returns the trimmed value of field idx.
func (f form) value(idx int) string {
	if idx < 0 || idx >= len(f.fields) {
		return ""
	}
	return strings.TrimSpace(f.fields[idx].input.Value())
}

func (f *form) setValue(idx int, v string) {
	if idx >= 0 && idx < len(f.fields) {
		f.fields[idx].input.SetValue(v)
	}
}

// reset clears every value and the error.
func (f *form) reset() {
	for i := range f.fields {
		f.fields[i].input.Reset()
	}
	f.err = ""
	f.submitting = false
}

// update forwards msg to the focused input.
func (f *form) update(msg tea.Msg) tea.Cmd {
	if !f.active || len(f.fields) == 0 {
		return nil
	}
	var cmd tea.Cmd
	f.fields[f.focus].input, cmd = f.fields[f.focus].input.Update(msg)
	return cmd
}

// view renders labels and inputs stacked, followed by the error line.
func (f form) view(theme Theme, width int, bgColor string) string {
	styles := theme.Styles()
	bg := NewBgStyle(bgColor)
	inputWidth := max(width-4, 10)

	var lines []string
	for i, field := range f.fields {
		labelStyle := styles.MutedText
		if f.active && i == f.focus {
			labelStyle = styles.AccentText.Bold(true)
		}
		lines = append(lines, bg.Render(field.label, labelStyle))

		input := field.input
		input.Width = inputWidth
		fieldBg := theme.Surface
		if f.active && i == f.focus {
			fieldBg = theme.SelectionBg
		}
		box := lipgloss.NewStyle().
			Background(lipgloss.Color(fieldBg)).
			Foreground(lipgloss.Color(theme.Text)).
			Width(inputWidth + 2).
			Padding(0, 1)
		lines = append(lines, box.Render(input.View()), "")
	}
	if f.submitting {
		lines = append(lines, bg.Render("Submitting...", styles.WarningText))
	}
	if f.err != "" {
		for _, l := range wrapText(f.err, inputWidth) {
			lines = append(lines, bg.Render(l, styles.DangerText))
		}
	}
	return strings.Join(lines, "\n")
}
