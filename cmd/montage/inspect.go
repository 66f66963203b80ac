package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pkt.systems/montage/internal/appconfig"
	"pkt.systems/montage/internal/frames"
	"pkt.systems/montage/internal/persist"
	"pkt.systems/montage/internal/render"
	"pkt.systems/montage/schema"
	"pkt.systems/pslog"
)

func newInspectCmd() *cobra.Command {
	var cfgPath string
	var width int
	var playhead int64
	cmd := &cobra.Command{
		Use:   "inspect <project>",
		Short: "Render a persisted project timeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := pslog.Ctx(cmd.Context())
			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			store, err := persist.NewStoreWithLogger(cfg.StateDir, logger)
			if err != nil {
				return err
			}
			projectID := schema.ProjectID(args[0])
			snapshot, ok, err := store.Load(projectID)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("project %q not found in %s", projectID, cfg.StateDir)
			}
			rate := snapshot.FrameRate
			if rate == 0 {
				rate = cfg.FrameRate
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "project: %s (%d tracks, %d clips, %s)\n",
				projectID, len(snapshot.Tracks), len(snapshot.Clips),
				frames.ToDuration(snapshot.TotalFrames, rate))
			view := schema.TimelineSnapshot{
				Tracks:      snapshot.Tracks,
				Clips:       snapshot.Clips,
				TotalFrames: snapshot.TotalFrames,
			}
			fmt.Fprint(out, render.Timeline(view, rate, schema.Frame(playhead), width))
			return nil
		},
	}
	cmd.Flags().StringVar(&cfgPath, "config", "", "config file path (defaults to ~/.montage/config.yaml)")
	cmd.Flags().IntVar(&width, "width", 80, "lane width in cells")
	cmd.Flags().Int64Var(&playhead, "playhead", 0, "playhead frame to mark")
	return cmd
}
