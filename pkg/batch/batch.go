// Package batch runs region statistics over many images in parallel.
// Every job loads its own image, so jobs share no mutable state.
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/bourque/wfc3-tools/internal/models"
	"github.com/bourque/wfc3-tools/pkg/coords"
	"github.com/bourque/wfc3-tools/pkg/fitsimage"
	"github.com/bourque/wfc3-tools/pkg/regionstats"
	"github.com/bourque/wfc3-tools/pkg/report"
)

// Params holds the batch parameters
type Params struct {
	// Workers is how many jobs run at once
	Workers int

	// Extension is the FITS HDU read from every image
	Extension int

	// OutputDir receives the statistics and histogram tables
	OutputDir string

	// Histograms enables the per-region histogram tables
	Histograms bool

	// HistogramBins is the number of bins per histogram
	HistogramBins int
}

// Job pairs one image with the coordinate file describing its regions
type Job struct {
	ImagePath  string
	CoordsPath string
}

// Result is the outcome of one job
type Result struct {
	Job        Job
	Shape      models.RegionShape
	Stats      []models.RegionStatistics
	StatsFile  string
	Histograms []string
	Duration   time.Duration
}

// Runner processes jobs with a shared engine
type Runner struct {
	params Params
	engine *regionstats.Engine
	log    logrus.FieldLogger
}

// NewRunner creates a runner. A nil logger uses the standard logger.
func NewRunner(params Params, engine *regionstats.Engine, log logrus.FieldLogger) *Runner {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if params.Workers <= 0 {
		params.Workers = 1
	}
	if params.OutputDir == "" {
		params.OutputDir = "."
	}
	if params.HistogramBins <= 0 {
		params.HistogramBins = 30
	}
	return &Runner{params: params, engine: engine, log: log}
}

// Run processes every job. Results are in job order. The first failure
// cancels jobs that have not started yet and is returned.
func (r *Runner) Run(ctx context.Context, jobs []Job) ([]Result, error) {
	if len(jobs) == 0 {
		return nil, fmt.Errorf("no images to process")
	}
	if err := r.checkOutputNames(jobs); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(r.params.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	results := make([]Result, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.params.Workers)

	for i, job := range jobs {
		i, job := i, job // per-iteration copies (go directive < 1.22)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := r.process(job)
			if err != nil {
				return fmt.Errorf("%s: %w", job.ImagePath, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// checkOutputNames rejects jobs whose tables would land on the same file.
// Names only keep the base name of the image, so same-named images from
// different directories collide.
func (r *Runner) checkOutputNames(jobs []Job) error {
	owners := make(map[string]string, len(jobs))
	for _, job := range jobs {
		name := filepath.Clean(filepath.Join(r.params.OutputDir, report.StatsFilename(job.ImagePath, job.CoordsPath)))
		if other, ok := owners[name]; ok {
			return fmt.Errorf("%s and %s would both write %s", other, job.ImagePath, name)
		}
		owners[name] = job.ImagePath
	}
	return nil
}

// process runs one job to completion
func (r *Runner) process(job Job) (Result, error) {
	start := time.Now()
	log := r.log.WithFields(logrus.Fields{
		"image":  job.ImagePath,
		"coords": job.CoordsPath,
	})

	img, err := fitsimage.Load(job.ImagePath, r.params.Extension)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load image: %w", err)
	}

	rects, err := coords.ParseFile(job.CoordsPath)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read coordinates: %w", err)
	}

	shape, err := regionstats.ClassifyShape(rects)
	if err != nil {
		return Result{}, err
	}
	log.WithFields(logrus.Fields{
		"regions": len(rects),
		"shape":   shape.String(),
		"width":   img.Width,
		"height":  img.Height,
	}).Info("Computing region statistics")

	analyzed, err := r.engine.Analyze(img, rects)
	if err != nil {
		return Result{}, err
	}

	res := Result{Job: job, Shape: shape, Stats: make([]models.RegionStatistics, len(analyzed))}
	for i, a := range analyzed {
		res.Stats[i] = a.Stats
	}

	res.StatsFile = filepath.Join(r.params.OutputDir, report.StatsFilename(job.ImagePath, job.CoordsPath))
	if err := writeFile(res.StatsFile, func(f *os.File) error {
		return report.WriteStatistics(f, res.Stats)
	}); err != nil {
		return Result{}, fmt.Errorf("failed to write statistics: %w", err)
	}
	log.WithField("file", res.StatsFile).Info("Saved statistics")

	if r.params.Histograms {
		for i, a := range analyzed {
			name := filepath.Join(r.params.OutputDir, report.HistogramFilename(job.ImagePath, job.CoordsPath, i))
			if err := writeFile(name, func(f *os.File) error {
				return report.WriteHistogram(f, a.Values, r.params.HistogramBins)
			}); err != nil {
				return Result{}, fmt.Errorf("failed to write histogram for region %d: %w", i, err)
			}
			res.Histograms = append(res.Histograms, name)
		}
		log.WithField("count", len(res.Histograms)).Debug("Saved histograms")
	}

	res.Duration = time.Since(start)
	return res, nil
}

func writeFile(path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
