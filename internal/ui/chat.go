package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/folio/internal/assistant"
)

// chatState is the assistant conversation. The greeting is shown but never
// sent back as history.
type chatState struct {
	input   textinput.Model
	turns   []assistant.Turn
	waiting bool
	scroll  int // lines scrolled up from the bottom
}

func newChatState() chatState {
	ti := textinput.New()
	ti.Placeholder = "Describe the kind of book you're looking for..."
	ti.CharLimit = 1000
	ti.Prompt = "> "
	return chatState{
		input: ti,
		turns: []assistant.Turn{{Role: assistant.RoleAssistant, Content: assistant.Greeting}},
	}
}

// history returns the turns after the greeting.
func (c chatState) history() []assistant.Turn {
	if len(c.turns) <= 1 {
		return nil
	}
	return append([]assistant.Turn(nil), c.turns[1:]...)
}

type assistantReplyMsg struct {
	reply string
	err   error
}

func recommendCmd(ctx context.Context, r Recommender, history []assistant.Turn, prompt string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, assistantTimeout)
		defer cancel()
		reply, err := r.Recommend(ctx, history, prompt)
		return assistantReplyMsg{reply: reply, err: err}
	}
}

func (m Model) handleAssistantKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	c := &m.chat
	if c.input.Focused() {
		switch msg.Type {
		case tea.KeyEsc:
			c.input.Blur()
			return m, nil
		case tea.KeyEnter:
			return m.askAssistant()
		case tea.KeyPgUp:
			c.scroll += 5
			return m, nil
		case tea.KeyPgDown:
			c.scroll = max(c.scroll-5, 0)
			return m, nil
		}
		var cmd tea.Cmd
		c.input, cmd = c.input.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Back):
		return m.goBack()
	case key.Matches(msg, m.keys.Compose), key.Matches(msg, m.keys.Open):
		cmd := c.input.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.PageUp):
		c.scroll++
	case key.Matches(msg, m.keys.Down), key.Matches(msg, m.keys.PageDown):
		c.scroll = max(c.scroll-1, 0)
	case key.Matches(msg, m.keys.Bottom):
		c.scroll = 0
	}
	return m, nil
}

// askAssistant appends the prompt as a user turn and requests a reply. Only
// one request is in flight at a time.
func (m Model) askAssistant() (tea.Model, tea.Cmd) {
	c := &m.chat
	prompt := strings.TrimSpace(c.input.Value())
	if prompt == "" || c.waiting {
		return m, nil
	}
	history := c.history()
	c.turns = append(c.turns, assistant.Turn{Role: assistant.RoleUser, Content: prompt})
	c.input.Reset()
	c.scroll = 0
	if m.recommender == nil {
		c.turns = append(c.turns, assistant.Turn{Role: assistant.RoleAssistant, Content: assistant.CannedReply(prompt)})
		return m, nil
	}
	c.waiting = true
	return m, recommendCmd(m.ctx, m.recommender, history, prompt)
}

func (m Model) handleAssistantReply(msg assistantReplyMsg) (tea.Model, tea.Cmd) {
	c := &m.chat
	c.waiting = false
	c.scroll = 0
	if msg.err != nil {
		m.setError("Assistant unavailable", msg.err)
		c.turns = append(c.turns, assistant.Turn{
			Role:    assistant.RoleAssistant,
			Content: "Sorry, I couldn't come up with a recommendation right now. Please try again.",
		})
		return m, nil
	}
	c.turns = append(c.turns, assistant.Turn{Role: assistant.RoleAssistant, Content: msg.reply})
	return m, nil
}

func (m Model) renderAssistant() string {
	height := m.contentHeight()
	width := m.width
	inner := width - 4
	c := m.chat
	bgColor := m.panelBg(true)
	bg := NewBgStyle(bgColor)
	styles := m.theme.Styles().WithBackground(bgColor)
	bubble := max(inner*3/4, 20)

	var lines []string
	for _, t := range c.turns {
		user := t.Role == assistant.RoleUser
		label := bg.Render("Assistant", styles.AccentText.Bold(true))
		textStyle := styles.Text
		align := lipgloss.Left
		if user {
			label = bg.Render("You", styles.OwnText.Bold(true))
			textStyle = styles.OwnText
			align = lipgloss.Right
		}
		row := lipgloss.NewStyle().Width(inner).Align(align).Background(lipgloss.Color(bgColor))
		lines = append(lines, row.Render(label))
		for _, l := range wrapText(t.Content, bubble) {
			lines = append(lines, row.Render(bg.Render(l, textStyle)))
		}
		lines = append(lines, "")
	}
	if c.waiting {
		lines = append(lines, m.spinner.View()+bg.Space()+bg.Render("Thinking...", styles.MutedText))
	}

	footer := []string{
		bg.Render(strings.Repeat("─", inner), styles.FaintText),
		c.input.View(),
		bg.Render(ternary(c.input.Focused(), "enter send · esc stop typing", "i ask · j/k scroll · esc back"), styles.FaintText),
	}
	rows := max(height-2-len(footer), 1)
	offset := max(len(lines)-rows-c.scroll, 0)
	visible := scrollLines(lines, offset, rows)
	for len(visible) < rows {
		visible = append(visible, "")
	}

	content := strings.Join(append(visible, footer...), "\n")
	return m.renderTitledBox("AI Book Assistant", content, width, height, true)
}
