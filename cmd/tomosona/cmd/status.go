package cmd

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jbl2024/tomosona/internal/app"
	"github.com/jbl2024/tomosona/internal/embed"
	"github.com/jbl2024/tomosona/internal/ui"
)

func newStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show index health and status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, jsonOutput)
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func runStatus(cmd *cobra.Command, jsonOutput bool) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	info, err := collectStatus(cmd, a)
	if err != nil {
		return err
	}

	noColor := ui.DetectNoColor()
	renderer := ui.NewStatusRenderer(cmd.OutOrStdout(), noColor)
	if jsonOutput {
		return renderer.RenderJSON(info)
	}
	return renderer.Render(info)
}

func collectStatus(cmd *cobra.Command, a *app.App) (ui.StatusInfo, error) {
	stats, err := a.Store.Stats(cmd.Context())
	if err != nil {
		return ui.StatusInfo{}, err
	}

	info := ui.StatusInfo{
		ProjectName: filepath.Base(a.Workspace.Root()),
		TotalFiles:  stats.TotalNotes,
		TotalChunks: stats.TotalChunks,
	}
	if stats.LastIndexed > 0 {
		info.LastIndexed = time.UnixMilli(stats.LastIndexed)
	}

	info.MetadataSize = fileSize(a.Workspace.DatabasePath())
	info.VectorSize = fileSize(a.Workspace.VectorIndexPath())
	info.TotalSize = info.MetadataSize + info.VectorSize

	embedderStatus := a.Embed.Status()
	info.EmbedderType = "static"
	switch embedderStatus.State {
	case embed.StateReady:
		info.EmbedderStatus = "ready"
		info.EmbedderModel = a.Embed.ModelLabel()
	case embed.StateFailed:
		info.EmbedderStatus = "error"
	default:
		info.EmbedderStatus = "offline"
	}
	info.WatcherStatus = "n/a"

	return info, nil
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
