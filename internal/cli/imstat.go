package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bourque/wfc3-tools/pkg/batch"
	"github.com/bourque/wfc3-tools/pkg/regionstats"
)

func newImstatCommand(a *app) *cobra.Command {
	var (
		coordsPath string
		outputDir  string
		ext        int
		workers    int
		exclusion  string
		histograms bool
	)

	cmd := &cobra.Command{
		Use:   "imstat --coords FILE IMAGE...",
		Short: "Compute sigma-clipped statistics for box and annulus regions",
		Long: `Compute statistics for rectangular box or annulus regions.

The coordinate file holds one region per line:
  box1x1 box1x2 box1y1 box1y2 box2x1 box2x2 box2y1 box2y2

If every box 2 is 0 0 0 0 the regions are the box 1 rectangles; otherwise
box 1 is the inner box excluded from the outer box 2. Statistics are saved
to <image>_<coords>.dat for each image.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			flags := cmd.Flags()
			if flags.Changed("output-dir") {
				cfg.Output.Dir = outputDir
			}
			if flags.Changed("ext") {
				cfg.Processing.Extension = ext
			}
			if flags.Changed("workers") {
				cfg.Processing.Workers = workers
			}
			if flags.Changed("exclusion") {
				cfg.Stats.Exclusion = exclusion
			}
			if flags.Changed("histograms") {
				cfg.Output.Histograms = histograms
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			opts, err := cfg.EngineOptions(a.log)
			if err != nil {
				return err
			}
			engine := regionstats.NewEngine(opts)

			runner := batch.NewRunner(batch.Params{
				Workers:       cfg.Processing.Workers,
				Extension:     cfg.Processing.Extension,
				OutputDir:     cfg.Output.Dir,
				Histograms:    cfg.Output.Histograms,
				HistogramBins: cfg.Stats.HistogramBins,
			}, engine, a.log)

			jobs := make([]batch.Job, len(args))
			for i, image := range args {
				jobs[i] = batch.Job{ImagePath: image, CoordsPath: coordsPath}
			}

			start := time.Now()
			results, err := runner.Run(context.Background(), jobs)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, res := range results {
				fmt.Fprintf(out, "%s: %d %s regions\n", res.Job.ImagePath, len(res.Stats), res.Shape)
				fmt.Fprintf(out, "  Statistics saved to: %s\n", res.StatsFile)
				if len(res.Histograms) > 0 {
					fmt.Fprintf(out, "  Histograms saved: %d\n", len(res.Histograms))
				}
			}
			a.log.WithField("elapsed", time.Since(start).Round(time.Millisecond)).Info("Done")
			return nil
		},
	}

	cmd.Flags().StringVarP(&coordsPath, "coords", "c", "", "File containing rectangle coordinates")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", ".", "Directory for statistics and histogram tables")
	cmd.Flags().IntVarP(&ext, "ext", "e", 0, "FITS extension to read")
	cmd.Flags().IntVarP(&workers, "workers", "w", 1, "Number of images processed at once")
	cmd.Flags().StringVar(&exclusion, "exclusion", "mask", "Annulus exclusion mode: mask or sentinel")
	cmd.Flags().BoolVar(&histograms, "histograms", true, "Write per-region histogram tables")
	_ = cmd.MarkFlagRequired("coords")

	return cmd
}
