package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FFFF"))

	headerStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("#00FFFF")).
			BorderBottom(true).
			Bold(true)
)

// printTable writes rows tab separated, or as a bordered table when pretty.
// The header is only shown in pretty mode so plain output stays pipeable.
func printTable(w io.Writer, pretty bool, title string, headers []string, rows [][]string) error {
	if !pretty {
		for _, r := range rows {
			if _, err := fmt.Fprintln(w, strings.Join(r, "\t")); err != nil {
				return err
			}
		}
		return nil
	}

	columns := make([]table.Column, len(headers))
	for i, h := range headers {
		width := lipgloss.Width(h)
		for _, r := range rows {
			if i < len(r) {
				width = max(width, lipgloss.Width(r[i]))
			}
		}
		columns[i] = table.Column{Title: h, Width: width}
	}
	trows := make([]table.Row, len(rows))
	for i, r := range rows {
		trows[i] = table.Row(r)
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(trows),
		table.WithHeight(len(rows)+2),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.Inherit(headerStyle)
	s.Selected = lipgloss.NewStyle()
	t.SetStyles(s)

	_, err := fmt.Fprintf(w, "%s\n%s\n", titleStyle.Render(title), t.View())
	return err
}
