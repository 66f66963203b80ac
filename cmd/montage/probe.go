package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pkt.systems/montage/internal/appconfig"
	"pkt.systems/montage/internal/frames"
	"pkt.systems/montage/internal/mediaprobe"
	"pkt.systems/montage/schema"
	"pkt.systems/pslog"
)

func newProbeCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "probe <media>",
		Short: "Probe a media file under the media root",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := pslog.Ctx(cmd.Context())
			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			resolver, err := mediaprobe.New(cfg.MediaRoot, cfg.FrameRate, logger)
			if err != nil {
				return err
			}
			info, err := resolver.Resolve(cmd.Context(), schema.MediaID(args[0]))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "media:    %s\n", info.ID)
			fmt.Fprintf(out, "frames:   %d @ %dfps\n", info.DurationFrames, cfg.FrameRate)
			fmt.Fprintf(out, "duration: %s\n", frames.ToDuration(info.DurationFrames, cfg.FrameRate))
			if info.Width > 0 {
				fmt.Fprintf(out, "video:    %dx%d\n", info.Width, info.Height)
			}
			fmt.Fprintf(out, "audio:    %v\n", info.HasAudio)
			return nil
		},
	}
	cmd.Flags().StringVar(&cfgPath, "config", "", "config file path (defaults to ~/.montage/config.yaml)")
	return cmd
}
