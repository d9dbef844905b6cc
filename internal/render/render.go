package render

import (
	"fmt"
	"strings"

	"github.com/harunnryd/tsumugi/internal/session"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
)

type SnapshotFormatter struct {
	headerStyle  lipgloss.Style
	oddRowStyle  lipgloss.Style
	evenRowStyle lipgloss.Style
	borderStyle  lipgloss.Style
	titleStyle   lipgloss.Style
	maxCellWidth int
}

func NewSnapshotFormatter(maxCellWidth int) *SnapshotFormatter {
	purple := lipgloss.Color("99")
	gray := lipgloss.Color("245")
	lightGray := lipgloss.Color("241")

	if maxCellWidth <= 0 {
		maxCellWidth = 48
	}

	return &SnapshotFormatter{
		headerStyle: lipgloss.NewStyle().
			Foreground(purple).
			Bold(true).
			Align(lipgloss.Center).
			Padding(0, 1),
		oddRowStyle: lipgloss.NewStyle().
			Foreground(gray).
			Padding(0, 1),
		evenRowStyle: lipgloss.NewStyle().
			Foreground(lightGray).
			Padding(0, 1),
		borderStyle: lipgloss.NewStyle().
			Foreground(purple),
		titleStyle: lipgloss.NewStyle().
			Foreground(purple).
			Bold(true),
		maxCellWidth: maxCellWidth,
	}
}

// FormatSnapshot renders the accumulated state as sections: messages,
// reasoning summary, tool calls, images, diagnostics.
func (f *SnapshotFormatter) FormatSnapshot(snap session.Snapshot) string {
	var sections []string

	if text := strings.TrimSpace(snap.ReasoningText); text != "" {
		sections = append(sections, f.titleStyle.Render("Reasoning")+"\n"+text)
	}

	for _, msg := range snap.Messages {
		title := "Assistant"
		if !msg.Done {
			title = "Assistant (streaming)"
		}
		body := msg.Text
		if cites := snap.Citations(msg.ItemID); cites != nil {
			lines := make([]string, 0, len(cites))
			for _, c := range cites {
				lines = append(lines, fmt.Sprintf("[%d-%d] %s %s", c.StartIndex, c.EndIndex, c.Title, c.URL))
			}
			body += "\n" + strings.Join(lines, "\n")
		}
		sections = append(sections, f.titleStyle.Render(title)+"\n"+body)
	}

	if len(snap.Tools) > 0 {
		sections = append(sections, f.FormatTools(snap))
	}

	for _, img := range snap.Images {
		sections = append(sections, f.titleStyle.Render("Image")+"\n"+
			fmt.Sprintf("%s (%s, %d bytes)", img.ItemID, img.Encoding, len(img.Data)))
	}

	diag := snap.Diagnostics
	if diag.MalformedFrames > 0 || diag.UnknownKinds > 0 || diag.DuplicateAdds > 0 {
		sections = append(sections, fmt.Sprintf(
			"dropped: %d malformed, %d unknown kind, %d duplicate adds",
			diag.MalformedFrames, diag.UnknownKinds, diag.DuplicateAdds))
	}

	return strings.Join(sections, "\n\n")
}

func (f *SnapshotFormatter) FormatTools(snap session.Snapshot) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(f.borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return f.headerStyle
			case row%2 == 0:
				return f.evenRowStyle
			default:
				return f.oddRowStyle
			}
		}).
		Headers("ID", "Name", "Status", "Arguments")

	for _, tool := range snap.Tools {
		t.Row(
			tool.ID,
			truncateString(tool.Name, f.maxCellWidth),
			tool.Status,
			truncateString(tool.ArgumentsText, f.maxCellWidth),
		)
	}

	return t.String()
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
