package main

import (
	"fmt"

	"resize-orchestrator/internal/app"
	"resize-orchestrator/internal/config"
	"resize-orchestrator/internal/domain"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/wb-go/wbf/zlog"
)

type runFlags struct {
	file       string
	width      int
	height     int
	keepAspect bool
	quality    int
	maxSizeKB  int
}

func main() {
	zlog.Init()

	root := &cobra.Command{
		Use:           "resizer",
		Short:         "Submit images to the resize service and track the job",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), runCmd())

	if err := root.Execute(); err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Command failed")
	}
}

func newApp() (*app.App, error) {
	cfg, err := config.MustLoad()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if level, err := zerolog.ParseLevel(cfg.Log.Level); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	a, err := app.NewApp(cfg, &zlog.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create app: %w", err)
	}
	return a, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the local control API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if err := a.Run(); err != nil {
				return err
			}
			zlog.Logger.Info().Msg("Server exited successfully")
			return nil
		},
	}
}

func runCmd() *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Resize one image and wait for the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			st, err := a.Process(f.file, func(p *domain.Parameters) {
				flags := cmd.Flags()
				if flags.Changed("width") {
					p.Width = f.width
				}
				if flags.Changed("height") {
					p.Height = f.height
				}
				if flags.Changed("keep-aspect") {
					p.MaintainAspectRatio = f.keepAspect
				}
				if flags.Changed("quality") {
					p.Quality = f.quality
				}
				if flags.Changed("max-size") {
					p.MaxSizeKB = f.maxSizeKB
				}
			})
			if err != nil {
				return err
			}

			printResult(cmd, st)
			if st.Status == domain.StatusFailed {
				return fmt.Errorf("job %s failed", st.JobID)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.file, "file", "f", "", "image to resize")
	flags.IntVar(&f.width, "width", 0, "target width in pixels")
	flags.IntVar(&f.height, "height", 0, "target height in pixels")
	flags.BoolVar(&f.keepAspect, "keep-aspect", domain.DefaultKeepAspect, "maintain the aspect ratio")
	flags.IntVar(&f.quality, "quality", domain.DefaultQuality, "output quality (1-100)")
	flags.IntVar(&f.maxSizeKB, "max-size", 0, "maximum output size in KB")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func printResult(cmd *cobra.Command, st domain.JobState) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "job:      %s\n", st.JobID)
	fmt.Fprintf(out, "status:   %s\n", st.Status)
	if st.ArtifactLocation != "" {
		fmt.Fprintf(out, "artifact: %s\n", st.ArtifactLocation)
	}
	if st.Source != nil {
		fmt.Fprintf(out, "source:   %dx%d %s\n", st.Source.Meta.Width, st.Source.Meta.Height, humanize.Bytes(uint64(st.Source.Meta.Size)))
	}
	if st.Processed != nil {
		fmt.Fprintf(out, "result:   %dx%d %s\n", st.Processed.Width, st.Processed.Height, humanize.Bytes(uint64(st.Processed.Size)))
	}
	if st.Error != nil {
		fmt.Fprintf(out, "error:    %s\n", st.Error)
	}
}
