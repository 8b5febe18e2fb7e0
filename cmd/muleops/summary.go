package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"

	"github.com/muleops/muleops/internal/model"
)

var statusStyles = map[string]lipgloss.Style{
	model.StatusSuccess:     lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
	model.StatusSkipped:     lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	model.StatusWouldChange: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	model.StatusFailed:      lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
}

func printSummary(writer io.Writer, results []model.StepResult) {
	if len(results) == 0 {
		return
	}

	rows := make([][]string, 0, len(results))
	for _, res := range results {
		status := res.Status
		if style, ok := statusStyles[status]; ok {
			status = style.Render(status)
		}
		rows = append(rows, []string{res.StepID, status, formatChanged(res.Changed), res.Message, formatOutputs(res.Outputs)})
	}

	table := tablewriter.NewWriter(writer)
	table.SetHeader([]string{"step", "status", "changed", "message", "outputs"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)
	table.AppendBulk(rows)
	table.Render()
}

func formatChanged(changed bool) string {
	if changed {
		return "yes"
	}
	return "no"
}

// formatOutputs renders discovered identifiers while keeping secrets out of
// the terminal.
func formatOutputs(outputs map[string]string) string {
	if len(outputs) == 0 {
		return ""
	}

	keys := make([]string, 0, len(outputs))
	for key := range outputs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		value := outputs[key]
		if strings.Contains(key, "secret") {
			value = "(redacted)"
		}
		parts = append(parts, fmt.Sprintf("%s=%s", key, value))
	}
	return strings.Join(parts, " ")
}
