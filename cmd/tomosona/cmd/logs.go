package cmd

import (
	"regexp"

	"github.com/spf13/cobra"

	"github.com/jbl2024/tomosona/internal/logging"
	"github.com/jbl2024/tomosona/internal/ui"
)

func newLogsCmd() *cobra.Command {
	var explicit string
	var tailLines int
	var level string
	var pattern string
	var follow bool
	var showSource bool

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print recent log lines",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLogs(cmd, explicit, tailLines, level, pattern, follow, showSource)
		},
	}
	cmd.Flags().StringVar(&explicit, "file", "", "explicit log file path (defaults to ~/.tomosona/logs/tomosona.log)")
	cmd.Flags().IntVar(&tailLines, "lines", 100, "number of trailing lines to print")
	cmd.Flags().StringVar(&level, "level", "", "minimum level to show (debug, info, warn, error)")
	cmd.Flags().StringVar(&pattern, "grep", "", "only show lines matching this regular expression")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "keep reading as new lines are appended")
	cmd.Flags().BoolVar(&showSource, "show-source", false, "show the log source label")
	return cmd
}

func runLogs(cmd *cobra.Command, explicit string, tailLines int, level, pattern string, follow, showSource bool) error {
	path, err := logging.FindLogFile(explicit)
	if err != nil {
		return err
	}

	var re *regexp.Regexp
	if pattern != "" {
		re, err = regexp.Compile(pattern)
		if err != nil {
			return err
		}
	}

	viewer := logging.NewViewer(logging.ViewerConfig{
		Level:      level,
		Pattern:    re,
		NoColor:    ui.DetectNoColor(),
		ShowSource: showSource,
	}, cmd.OutOrStdout())

	n := tailLines
	if n <= 0 {
		n = 1 << 30
	}
	entries, err := viewer.Tail(path, n)
	if err != nil {
		return err
	}
	viewer.Print(entries)

	if !follow {
		return nil
	}

	ctx := cmd.Context()
	ch := make(chan logging.LogEntry)
	go func() {
		for entry := range ch {
			viewer.Print([]logging.LogEntry{entry})
		}
	}()
	return viewer.Follow(ctx, path, ch)
}
