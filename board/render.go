package board

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"syncboard/models"
)

var (
	Primary   = lipgloss.Color("#526D82")
	TextMuted = lipgloss.Color("#888888")
	Border    = lipgloss.Color("#333333")
	Danger    = lipgloss.Color("#EF4444")
	Warning   = lipgloss.Color("#F59E0B")

	columnColors = map[string]lipgloss.Color{
		models.StatusTodo:         lipgloss.Color("#9CA3AF"),
		models.StatusStopped:      lipgloss.Color("#EF4444"),
		models.StatusInProgress:   lipgloss.Color("#3B82F6"),
		models.StatusHomologation: lipgloss.Color("#F97316"),
	}
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary).
			Padding(0, 1)

	ColumnStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(Border).
			Padding(0, 1)

	CardStyle = lipgloss.NewStyle().
			Padding(0, 0, 1, 0)

	OverdueStyle = lipgloss.NewStyle().Foreground(Danger).Bold(true)
	AlertStyle   = lipgloss.NewStyle().Foreground(Warning).Bold(true)
	MutedStyle   = lipgloss.NewStyle().Foreground(TextMuted)
)

// RenderKanban desenha as colunas do quadro lado a lado. width é a largura total do terminal.
func RenderKanban(s *Store, width int, now time.Time) string {
	cols := s.Columns()
	colWidth := max(20, width/len(cols)-2)

	rendered := make([]string, 0, len(cols))
	for _, col := range cols {
		title := lipgloss.NewStyle().Bold(true).Foreground(columnColors[col.Status]).
			Render(fmt.Sprintf("%s (%d)", strings.ToUpper(col.Label), len(col.Tasks)))

		var b strings.Builder
		b.WriteString(title + "\n\n")
		if len(col.Tasks) == 0 {
			b.WriteString(MutedStyle.Render("vazio"))
		}
		for _, t := range col.Tasks {
			b.WriteString(CardStyle.Render(renderCard(t, colWidth-2, now)) + "\n")
		}
		rendered = append(rendered, ColumnStyle.Width(colWidth).Render(strings.TrimRight(b.String(), "\n")))
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		HeaderStyle.Render(header(s)),
		lipgloss.JoinHorizontal(lipgloss.Top, rendered...),
	)
}

func renderCard(t *models.Task, width int, now time.Time) string {
	project := t.Project
	if project == "" {
		project = models.DefaultProject
	}
	color := t.ProjectColor
	if color == "" {
		color = models.DefaultProjectColor
	}

	lines := []string{
		lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(project) + " " + MutedStyle.Render(t.ID),
		truncate(t.Title, width),
	}
	if names := t.ResponsibleNames(); len(names) > 0 {
		lines = append(lines, MutedStyle.Render(truncate(strings.Join(names, ", "), width)))
	}
	if t.IsOverdue(now) {
		lines = append(lines, OverdueStyle.Render("atrasada: "+*t.DueDate))
	}
	if len(t.PendingAlerts) > 0 {
		lines = append(lines, AlertStyle.Render("! "+strings.Join(t.PendingAlerts, ", ")))
	}
	return strings.Join(lines, "\n")
}

// RenderList desenha a visão de lista na ordenação atual do Store.
func RenderList(s *Store, now time.Time) string {
	st := s.State()
	tasks := s.List()

	var b strings.Builder
	b.WriteString(HeaderStyle.Render(fmt.Sprintf("%s  [ordem: %s %s]", header(s), st.SortBy, st.SortDir)) + "\n")
	if len(tasks) == 0 {
		b.WriteString(MutedStyle.Render("  Nenhuma tarefa."))
		return b.String()
	}
	for _, t := range tasks {
		due := "-"
		if t.DueDate != nil && *t.DueDate != "" {
			due = *t.DueDate
		}
		line := fmt.Sprintf("%-8s %-12s %-40s %-10s %s",
			t.ID, models.StatusLabel(t.Status), truncate(t.Title, 40), t.Priority, due)
		if t.IsOverdue(now) {
			line = OverdueStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func header(s *Store) string {
	st := s.State()
	parts := []string{"SyncBoard"}
	if st.Project != "" {
		parts = append(parts, "projeto: "+st.Project)
	}
	if st.Responsible != "" {
		parts = append(parts, "responsável: "+st.Responsible)
	}
	if st.Search != "" {
		parts = append(parts, "busca: "+st.Search)
	}
	return strings.Join(parts, "  ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 1 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
