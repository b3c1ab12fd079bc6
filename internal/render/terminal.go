package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"recipe-box/internal/domain/entity"
)

// Terminal renders recipes as styled text for the CLI.
type Terminal struct {
	title   lipgloss.Style
	badge   lipgloss.Style
	local   lipgloss.Style
	muted   lipgloss.Style
	warn    lipgloss.Style
	heading lipgloss.Style
	card    lipgloss.Style
}

// NewTerminal returns a renderer whose cards are width columns wide.
func NewTerminal(width int) *Terminal {
	if width < 30 {
		width = 30
	}
	return &Terminal{
		title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		badge:   lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
		local:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		warn:    lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		heading: lipgloss.NewStyle().Bold(true).Underline(true),
		card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.AdaptiveColor{Light: "250", Dark: "240"}).
			Padding(0, 1).
			Width(width),
	}
}

// Card renders the summary of one recipe.
func (t *Terminal) Card(r entity.Recipe) string {
	lines := []string{
		t.title.Render(r.Name),
		t.badge.Render(r.Category) + " · " + t.badge.Render(r.Area),
	}
	if r.IsLocal {
		lines = append(lines, t.local.Render("My recipe"))
	}
	lines = append(lines, t.muted.Render("id: "+r.ID))
	return t.card.Render(strings.Join(lines, "\n"))
}

// List renders a result list, or the empty state when there is nothing to show.
func (t *Terminal) List(recipes []entity.Recipe, emptyMessage string) string {
	if len(recipes) == 0 {
		return t.muted.Render(emptyMessage)
	}
	cards := make([]string, 0, len(recipes))
	for _, r := range recipes {
		cards = append(cards, t.Card(r))
	}
	return lipgloss.JoinVertical(lipgloss.Left, cards...)
}

// Detail renders a full recipe.
func (t *Terminal) Detail(r entity.Recipe) string {
	var b strings.Builder
	b.WriteString(t.title.Render(r.Name))
	b.WriteString("\n")
	b.WriteString(t.badge.Render(r.Category) + " · " + t.badge.Render(r.Area))
	if r.IsLocal {
		b.WriteString("  " + t.local.Render("My recipe"))
	}
	b.WriteString("\n")
	b.WriteString(t.muted.Render("image: " + r.DetailImage()))
	b.WriteString("\n\n")
	b.WriteString(t.heading.Render("Ingredients"))
	b.WriteString("\n")
	for _, ing := range r.Ingredients {
		fmt.Fprintf(&b, "  • %s\n", ing)
	}
	b.WriteString("\n")
	b.WriteString(t.heading.Render("Instructions"))
	b.WriteString("\n")
	b.WriteString(r.Instructions)
	b.WriteString("\n")
	return b.String()
}

// Notice renders a non-fatal warning such as an unreachable remote catalogue.
func (t *Terminal) Notice(msg string) string {
	return t.warn.Render(msg)
}
