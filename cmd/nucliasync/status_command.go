package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"nucliasync/internal/api"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, queue, and index status",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := ctx.client().Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("daemon status: %w (is the daemon running?)", err)
			}
			if jsonOutput {
				return writeJSON(cmd, status)
			}

			out := cmd.OutOrStdout()
			fmt.Fprint(out, renderStatus(status, shouldColorize(out)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit status as JSON")
	return cmd
}

const (
	ansiReset = "\x1b[0m"
	ansiRed   = "\x1b[31m"
	ansiGreen = "\x1b[32m"
)

func renderStatus(status *api.StatusResponse, colorize bool) string {
	var b strings.Builder

	writeStatusLine(&b, "Daemon", status.Running, "running", "stopped", colorize)
	writeStatusLine(&b, "Nuclia", status.RemoteReachable, "reachable", "unreachable", colorize)
	fmt.Fprintf(&b, "  %-10s pid %d\n", "Process:", status.PID)
	fmt.Fprintf(&b, "  %-10s %d resources\n", "Indexed:", status.IndexedCount)
	b.WriteString("\n")

	rows := [][]string{
		groupRow("indexing", status.Indexing),
		groupRow("relabel", status.Relabel),
	}
	b.WriteString(renderTable([]string{"Group", "Pending", "Running", "Failed", "Active"}, rows, 1, 2, 3))
	b.WriteString("\n")

	if len(status.PendingByType) > 0 {
		types := make([]string, 0, len(status.PendingByType))
		for contentType := range status.PendingByType {
			types = append(types, contentType)
		}
		sort.Strings(types)
		typeRows := make([][]string, 0, len(types))
		for _, contentType := range types {
			typeRows = append(typeRows, []string{contentType, strconv.Itoa(status.PendingByType[contentType])})
		}
		b.WriteString(renderTable([]string{"Content type", "Pending"}, typeRows, 1))
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "  queue db: %s\n", status.QueueDBPath)
	fmt.Fprintf(&b, "  index db: %s\n", status.IndexDBPath)
	fmt.Fprintf(&b, "  lock:     %s\n", status.LockFilePath)
	return b.String()
}

func groupRow(name string, counts api.GroupCounts) []string {
	return []string{
		name,
		strconv.Itoa(counts.Pending),
		strconv.Itoa(counts.Running),
		strconv.Itoa(counts.Failed),
		yesNo(counts.IsActive),
	}
}

func writeStatusLine(b *strings.Builder, label string, ok bool, okText, badText string, colorize bool) {
	text := okText
	color := ansiGreen
	if !ok {
		text = badText
		color = ansiRed
	}
	if colorize {
		fmt.Fprintf(b, "  %-10s %s%s%s\n", label+":", color, text, ansiReset)
		return
	}
	fmt.Fprintf(b, "  %-10s %s\n", label+":", text)
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
