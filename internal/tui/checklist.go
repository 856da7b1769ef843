package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/guild-forge/internal/prompt"
)

var (
	cursorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	pickedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	optionStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC"))
	detailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801"))
)

// checklist is a multi-choice picker capped at max selections.
type checklist struct {
	options []prompt.Option
	picked  []bool
	cursor  int
	max     int
	warning string
}

func newChecklist(options []prompt.Option, max int) checklist {
	return checklist{
		options: options,
		picked:  make([]bool, len(options)),
		max:     max,
	}
}

func (c *checklist) move(delta int) {
	if len(c.options) == 0 {
		return
	}
	c.cursor = (c.cursor + delta + len(c.options)) % len(c.options)
}

func (c *checklist) count() int {
	n := 0
	for _, p := range c.picked {
		if p {
			n++
		}
	}
	return n
}

// toggle flips the option under the cursor unless that would exceed max.
func (c *checklist) toggle() {
	if len(c.options) == 0 {
		return
	}
	c.warning = ""
	if !c.picked[c.cursor] && c.max > 0 && c.count() >= c.max {
		c.warning = fmt.Sprintf("Máximo %d opciones", c.max)
		return
	}
	c.picked[c.cursor] = !c.picked[c.cursor]
}

// values returns the picked option values in option order.
func (c *checklist) values() []string {
	var out []string
	for i, p := range c.picked {
		if p {
			out = append(out, c.options[i].Value)
		}
	}
	return out
}

func (c *checklist) view() string {
	var b strings.Builder
	for i, opt := range c.options {
		pointer := "  "
		if i == c.cursor {
			pointer = cursorStyle.Render("› ")
		}
		box := "[ ]"
		label := optionStyle.Render(opt.Label)
		if c.picked[i] {
			box = pickedStyle.Render("[x]")
			label = pickedStyle.Render(opt.Label)
		}
		fmt.Fprintf(&b, "%s%s %s", pointer, box, label)
		if i == c.cursor && opt.Description != "" {
			b.WriteString(" " + detailStyle.Render(opt.Description))
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\n%s", detailStyle.Render(fmt.Sprintf("%d/%d · espacio marca · enter envía", c.count(), c.max)))
	if c.warning != "" {
		b.WriteString("\n" + warningStyle.Render(c.warning))
	}
	return b.String()
}
