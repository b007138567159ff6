package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"samilabs.app/pulse/common"
	"samilabs.app/pulse/common/logger"
	"samilabs.app/pulse/internal/model"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5A9BD5"))
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7FB069"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#E3B505"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#D1495B"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8A8F98"))
)

const contentWidth = 80

func renderMentions(w io.Writer, result *model.AggregationResult) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "SOURCE", "DATE", "CONTENT")

	for i, m := range result.Mentions {
		content := logger.Truncate(strings.Join(strings.Fields(m.Content), " "), contentWidth)
		t.Row(strconv.Itoa(i+1), string(m.Source), m.Timestamp.Format("2006-01-02"), content)
	}

	if _, err := fmt.Fprintln(w, t.Render()); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, mutedStyle.Render(summaryLine(result)))
	return err
}

func summaryLine(result *model.AggregationResult) string {
	parts := make([]string, 0, len(result.Attempts))
	for _, a := range result.Attempts {
		parts = append(parts, fmt.Sprintf("%s=%s(+%d)", a.Adapter, a.Outcome, a.Accepted))
	}
	return fmt.Sprintf("%d mentions from %d sources tried: %s",
		len(result.Mentions), len(result.Attempts), strings.Join(parts, " "))
}

// outputPath resolves a --output or --save value. A directory gets a file
// named after the entity.
func outputPath(path, entity, kind, ext string) string {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return filepath.Join(path, common.ExportFilename(entity, kind, ext))
	}
	return path
}

// writeFile creates path and hands it to write. The file is always closed; a
// close failure is returned when write itself succeeded.
func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	return writeAndClose(f, write)
}

func writeAndClose(wc io.WriteCloser, write func(io.Writer) error) error {
	if err := write(wc); err != nil {
		_ = wc.Close()
		return err
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return nil
}
