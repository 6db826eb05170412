package installer

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

type choice struct {
	label string
	hint  string
}

// choiceList is the cursor shared by single-choice steps.
type choiceList struct {
	title   string
	choices []choice
	cursor  int
}

// handle moves the cursor and reports whether enter confirmed a choice.
func (c *choiceList) handle(msg tea.Msg) bool {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return false
	}
	switch key.String() {
	case "up", "k":
		if c.cursor > 0 {
			c.cursor--
		}
	case "down", "j":
		if c.cursor < len(c.choices)-1 {
			c.cursor++
		}
	case "enter":
		return true
	}
	return false
}

func (c *choiceList) view() string {
	var b strings.Builder
	b.WriteString(c.title + "\n\n")
	for i, ch := range c.choices {
		line := "  " + ch.label
		style := itemStyle
		if i == c.cursor {
			line = "❯ " + ch.label
			style = selStyle
		}
		if ch.hint != "" {
			line = fmt.Sprintf("%-22s %s", line, hintStyle.Render(ch.hint))
		}
		b.WriteString(style.Render(line) + "\n")
	}
	b.WriteString("\n(press ctrl+c to quit)\n")
	return b.String()
}
