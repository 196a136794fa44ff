package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bourque/wfc3-tools/internal/models"
	"github.com/bourque/wfc3-tools/pkg/fitsimage"
	"github.com/bourque/wfc3-tools/pkg/profile"
	"github.com/bourque/wfc3-tools/pkg/report"
)

// averaging pairs a profile name with the function computing it
type averaging struct {
	name    string
	compute func(img *models.Image, b models.Box) ([]float64, error)
}

func newProfileCommand(a *app) *cobra.Command {
	var (
		plotType  string
		allSwitch bool
		saveDst   string
	)

	cmd := &cobra.Command{
		Use:   "profile TARGET",
		Short: "Compute average row and column profiles",
		Long: `Compute average row and/or column profiles over an image section.

TARGET is either a single image with extension and section, for example
  abcdefgh_flt.fits[1][100:300,550:650]
where the first range selects columns and the second rows, or a text file
listing one such image per line.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := profile.ParseKind(plotType)
			if err != nil {
				return err
			}

			targets, err := profile.ReadTargets(args[0])
			if err != nil {
				return err
			}

			if err := os.MkdirAll(saveDst, 0755); err != nil {
				return fmt.Errorf("failed to create destination: %w", err)
			}

			var averages []averaging
			if kind == profile.KindRow || kind == profile.KindBoth {
				averages = append(averages, averaging{"row", profile.RowAverages})
			}
			if kind == profile.KindColumn || kind == profile.KindBoth {
				averages = append(averages, averaging{"col", profile.ColumnAverages})
			}

			images := make([]*models.Image, len(targets))
			for i, t := range targets {
				img, err := fitsimage.Load(t.Path, t.Ext)
				if err != nil {
					return err
				}
				images[i] = img
				a.log.WithField("image", t.Label()).Debug("Loaded image")
			}

			for _, avg := range averages {
				profiles := make([][]float64, len(targets))
				for i, t := range targets {
					p, err := avg.compute(images[i], t.Section)
					if err != nil {
						return fmt.Errorf("%s: %w", t.Label(), err)
					}
					profiles[i] = p
				}

				var files []string
				if allSwitch {
					files, err = writeCombinedProfiles(saveDst, avg.name, targets, profiles)
				} else {
					files, err = writeSingleProfiles(saveDst, avg.name, targets, profiles)
				}
				if err != nil {
					return err
				}
				for _, f := range files {
					fmt.Fprintf(cmd.OutOrStdout(), "Saved profile to %s\n", f)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&plotType, "type", "p", "both", `Profiles to produce: "row", "col" or "both"`)
	cmd.Flags().BoolVarP(&allSwitch, "all", "a", false, "Write all images into one table per extension")
	cmd.Flags().StringVarP(&saveDst, "dst", "s", ".", "Directory the tables are saved to")

	return cmd
}

// writeSingleProfiles writes one table per image. Targets that would
// share a table are rejected before anything is written.
func writeSingleProfiles(dst, name string, targets []profile.Target, profiles [][]float64) ([]string, error) {
	files := make([]string, len(targets))
	owners := make(map[string]string, len(targets))
	for i, t := range targets {
		stem := strings.SplitN(filepath.Base(t.Path), ".", 2)[0]
		path := filepath.Join(dst, fmt.Sprintf("%s_avg_%s_ext%d.dat", stem, name, t.Ext))
		if other, ok := owners[path]; ok {
			return nil, fmt.Errorf("%s and %s %s would both write %s (use --all to combine them)",
				other, t.Label(), t.Section, path)
		}
		owners[path] = t.Label() + " " + t.Section.String()
		files[i] = path
	}

	for i, t := range targets {
		if err := writeProfileFile(files[i], []string{t.Label()}, [][]float64{profiles[i]}); err != nil {
			return nil, err
		}
	}
	return files, nil
}

// writeCombinedProfiles writes one table per extension holding every image
func writeCombinedProfiles(dst, name string, targets []profile.Target, profiles [][]float64) ([]string, error) {
	byExt := make(map[int][]int)
	for i, t := range targets {
		byExt[t.Ext] = append(byExt[t.Ext], i)
	}

	exts := make([]int, 0, len(byExt))
	for ext := range byExt {
		exts = append(exts, ext)
	}
	sort.Ints(exts)

	files := make([]string, 0, len(exts))
	for _, ext := range exts {
		var names []string
		var columns [][]float64
		for _, i := range byExt[ext] {
			names = append(names, targets[i].Label())
			columns = append(columns, profiles[i])
		}

		path := filepath.Join(dst, fmt.Sprintf("avg_%s_ext%d.dat", name, ext))
		if err := writeProfileFile(path, names, columns); err != nil {
			return nil, err
		}
		files = append(files, path)
	}
	return files, nil
}

func writeProfileFile(path string, names []string, profiles [][]float64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := report.WriteProfiles(f, names, profiles); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
