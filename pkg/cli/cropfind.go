package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/filmscan/scantag/internal/config"
	"github.com/filmscan/scantag/internal/cropfind"
	"github.com/filmscan/scantag/internal/logger"
	"github.com/filmscan/scantag/internal/walker"
	"github.com/spf13/cobra"
)

func newCropfindCommand(cfg *config.Config) *cobra.Command {
	var (
		searchDir string
		renameDir string
		unnameDir string
		toCSV     string
		fromCSV   string
	)

	cmd := &cobra.Command{
		Use:   "cropfind [flags]",
		Short: "Detect crop mask regions and record them in names or CSV",
		Long: `Searches masked scans for the exact crop mask color, computes each mask's
bounding box and records the geometry as a file name suffix or a CSV file.
Renamed files carry the geometry into the metadata write step; --unname
reverts the renaming.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCropfind(cfg, cropfindArgs{
				search:        searchDir,
				rename:        renameDir,
				renameChanged: cmd.Flags().Changed("rename"),
				unname:        unnameDir,
				unnameChanged: cmd.Flags().Changed("unname"),
				toCSV:         toCSV,
				toCSVChanged:  cmd.Flags().Changed("to-csv"),
				fromCSV:       fromCSV,
			})
		},
	}

	cmd.Flags().StringVar(&searchDir, "search", "", "Directory with masked images to search for crop areas")
	cmd.Flags().StringVar(&renameDir, "rename", "", "Rename files using detected or loaded crop data, optionally in the given directory")
	cmd.Flags().Lookup("rename").NoOptDefVal = "."
	cmd.Flags().StringVar(&unnameDir, "unname", "", "Revert crop-data renaming, optionally in the given directory")
	cmd.Flags().Lookup("unname").NoOptDefVal = "."
	cmd.Flags().StringVar(&toCSV, "to-csv", "", "Write crop data to a CSV file (default crop.csv in the search directory)")
	cmd.Flags().Lookup("to-csv").NoOptDefVal = "crop.csv"
	cmd.Flags().StringVar(&fromCSV, "from-csv", "", "Rename from previously saved crop data instead of searching")
	cmd.Flags().IntVar(&cfg.Crop.DirDepth, "dirdepth", -1, "Max directory depth, -1 for no limit")
	cmd.Flags().StringVar(&cfg.Crop.Color, "crop-color", "0,0,0", "Mask color: one integer for grayscale, three comma-separated for RGB, decimal or 0x hex")
	cmd.Flags().IntVar(&cfg.Crop.CheckMultiple, "check-multiple", 8, "Require crop dimensions to be a multiple of this value")
	cmd.Flags().StringVar(&cfg.Crop.Wildcards, "wildcards", "*.tif,*.tiff", "Comma-separated list of file patterns")

	return cmd
}

type cropfindArgs struct {
	search        string
	rename        string
	renameChanged bool
	unname        string
	unnameChanged bool
	toCSV         string
	toCSVChanged  bool
	fromCSV       string
}

func runCropfind(cfg *config.Config, a cropfindArgs) error {
	w := walker.New(cfg.Crop.Wildcards, cfg.Crop.DirDepth)

	if a.unnameChanged {
		return cropfind.Unname(a.unname, w)
	}

	switch {
	case a.search != "":
		if info, err := os.Stat(a.search); err != nil || !info.IsDir() {
			return fmt.Errorf("search directory %s does not exist", a.search)
		}
		color, err := cropfind.ParseColor(cfg.Crop.Color)
		if err != nil {
			return err
		}
		finder := &cropfind.Finder{Color: color, CheckMultiple: cfg.Crop.CheckMultiple}
		records, err := finder.Search(a.search, w)
		if err != nil {
			return err
		}
		if a.toCSVChanged {
			csvPath := a.toCSV
			if !filepath.IsAbs(csvPath) {
				csvPath = filepath.Join(a.search, csvPath)
			}
			if err := cropfind.WriteCSV(csvPath, records); err != nil {
				return err
			}
		}
		if a.renameChanged {
			renameDir := a.rename
			if renameDir == "." {
				renameDir = a.search
			}
			return cropfind.Rename(renameDir, w, records)
		}
		return nil

	case a.fromCSV != "":
		if !a.renameChanged {
			return fmt.Errorf("--rename is required when using --from-csv")
		}
		csvPath := a.fromCSV
		if !filepath.IsAbs(csvPath) {
			csvPath = filepath.Join(a.rename, csvPath)
		}
		records, err := cropfind.ReadCSV(csvPath)
		if err != nil {
			return err
		}
		logger.Info("Loaded crop data from: %s", csvPath)
		return cropfind.Rename(a.rename, w, records)

	default:
		return fmt.Errorf("--search or --from-csv is required")
	}
}
