package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/metalagman/taskflow/internal/task"
	"github.com/metalagman/taskflow/internal/view"
)

var (
	badgeBase = lipgloss.NewStyle().Padding(0, 1).Bold(true)

	statusBadges = map[task.Status]lipgloss.Style{
		task.StatusTodo:       badgeBase.Foreground(lipgloss.Color("255")).Background(lipgloss.Color("240")),
		task.StatusInProgress: badgeBase.Foreground(lipgloss.Color("0")).Background(lipgloss.Color("3")),
		task.StatusDone:       badgeBase.Foreground(lipgloss.Color("0")).Background(lipgloss.Color("2")),
	}

	priorityStyles = map[task.Priority]lipgloss.Style{
		task.PriorityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		task.PriorityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		task.PriorityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
	}

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	tagStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("99"))
)

func statusBadge(s task.Status) string {
	label := strings.ReplaceAll(string(s), "_", " ")
	if style, ok := statusBadges[s]; ok {
		return style.Render(label)
	}
	return label
}

func priorityLabel(p task.Priority) string {
	if style, ok := priorityStyles[p]; ok {
		return style.Render(string(p))
	}
	return string(p)
}

func tagList(tags []string) string {
	if len(tags) == 0 {
		return "-"
	}
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, tagStyle.Render("#"+t))
	}
	return strings.Join(out, " ")
}

func renderStats(w io.Writer, s view.Stats) {
	fmt.Fprintf(w, "%s  total %d · todo %d · in progress %d · done %d\n",
		headerStyle.Render("taskflow"), s.Total, s.Todo, s.InProgress, s.Done)
}

func renderList(w io.Writer, items []task.Task) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "no tasks")
		return err
	}
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderColumn(false).
		BorderRow(false).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		Headers("ID", "STATUS", "PRIORITY", "DUE", "TITLE", "TAGS").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return labelStyle.PaddingRight(2)
			}
			return lipgloss.NewStyle().PaddingRight(2)
		})
	for _, t := range items {
		due := task.FormatDue(t.DueDate)
		if due == "" {
			due = "-"
		}
		tbl.Row(t.ID, statusBadge(t.Status), priorityLabel(t.Priority), due, t.Title, tagList(t.Tags))
	}
	_, err := fmt.Fprintln(w, tbl.Render())
	return err
}

func renderTask(w io.Writer, t task.Task) error {
	field := func(label, value string) {
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render(fmt.Sprintf("%-9s", label)), value)
	}
	fmt.Fprintln(w, headerStyle.Render(t.Title))
	field("id", t.ID)
	field("status", statusBadge(t.Status))
	field("priority", priorityLabel(t.Priority))
	if due := task.FormatDue(t.DueDate); due != "" {
		field("due", due)
	}
	field("tags", tagList(t.Tags))
	field("created", t.CreatedAt.Local().Format("2006-01-02 15:04"))
	field("updated", t.UpdatedAt.Local().Format("2006-01-02 15:04"))

	if strings.TrimSpace(t.Description) == "" {
		return nil
	}
	out, err := renderMarkdown(t.Description)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

// renderMarkdown renders a description as terminal markdown, plain when output is not a terminal.
func renderMarkdown(md string) (string, error) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(80))
	if err != nil {
		return "", fmt.Errorf("markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("render description: %w", err)
	}
	return out, nil
}
