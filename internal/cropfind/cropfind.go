// Package cropfind locates mask-colored crop regions in scanned TIFFs and
// records or applies the detected geometry through file names and CSV.
package cropfind

import (
	"encoding/csv"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/image/tiff"

	"github.com/filmscan/scantag/internal/logger"
	"github.com/filmscan/scantag/internal/walker"
)

// Record is one file's detection result. Geometry fields are -1 when the
// status is not "ok" or a multiple warning.
type Record struct {
	File   string
	Left   int
	Top    int
	Width  int
	Height int
	Status string
}

const (
	StatusOK       = "ok"
	StatusNotFound = "!found"
	StatusError    = "error"
)

func statusMultiple(n int) string { return fmt.Sprintf("!mult%d", n) }

func errorRecord(rel string) Record {
	return Record{File: rel, Left: -1, Top: -1, Width: -1, Height: -1, Status: StatusError}
}

// Finder scans directories for mask regions.
type Finder struct {
	Color         []int // 1 component for grayscale, 3 for RGB
	CheckMultiple int
}

// ParseColor accepts a comma-separated list of non-negative integers,
// decimal or 0x-prefixed hex.
func ParseColor(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 1 && len(parts) != 3 {
		return nil, fmt.Errorf("crop color needs 1 or 3 components, got %d", len(parts))
	}
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseInt(strings.TrimSpace(p), 0, 64)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("crop color component %q is not a non-negative integer", p)
		}
		out = append(out, int(n))
	}
	return out, nil
}

// Search walks base and detects the crop region in every matching file.
// Per-file problems are recorded in the result rather than aborting the walk.
func (f *Finder) Search(base string, w *walker.Walker) ([]Record, error) {
	var records []Record
	lastDir := "\x00"
	err := w.Walk(base, func(rel string) error {
		if dir := filepath.ToSlash(filepath.Dir(rel)); dir != lastDir {
			logger.Info("Processing directory: %s", dir)
			lastDir = dir
		}
		rec := f.detectFile(base, rel)
		records = append(records, rec)
		return nil
	})
	return records, err
}

func (f *Finder) detectFile(base, rel string) Record {
	fh, err := os.Open(filepath.Join(base, rel))
	if err != nil {
		logger.Error("%s: %v", rel, err)
		return errorRecord(rel)
	}
	defer fh.Close()
	img, err := tiff.Decode(fh)
	if err != nil {
		logger.Error("%s: %v", rel, err)
		return errorRecord(rel)
	}
	rec, err := f.Detect(img)
	rec.File = rel
	switch {
	case err != nil:
		logger.Error("%s: %v", rel, err)
	case rec.Status == StatusNotFound:
		logger.Info("%s: no crop area found", rel)
	default:
		logger.Info("%s: crop area found (%d, %d, %d, %d), %s",
			rel, rec.Left, rec.Top, rec.Width, rec.Height, rec.Status)
	}
	return rec
}

// Detect finds the bounding box of pixels matching the mask color exactly,
// comparing samples in the image's native bit depth.
func (f *Finder) Detect(img image.Image) (Record, error) {
	match, err := f.matcher(img)
	if err != nil {
		return errorRecord(""), err
	}

	b := img.Bounds()
	left, top := b.Max.X, b.Max.Y
	right, bottom := b.Min.X-1, b.Min.Y-1
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if !match(x, y) {
				continue
			}
			if x < left {
				left = x
			}
			if x > right {
				right = x
			}
			if y < top {
				top = y
			}
			if y > bottom {
				bottom = y
			}
		}
	}
	if right < left {
		return Record{Left: -1, Top: -1, Width: -1, Height: -1, Status: StatusNotFound}, nil
	}

	rec := Record{
		Left:   left - b.Min.X,
		Top:    top - b.Min.Y,
		Width:  right - left + 1,
		Height: bottom - top + 1,
		Status: StatusOK,
	}
	if f.CheckMultiple > 1 && (rec.Width%f.CheckMultiple != 0 || rec.Height%f.CheckMultiple != 0) {
		rec.Status = statusMultiple(f.CheckMultiple)
	}
	return rec, nil
}

// matcher builds an exact per-pixel comparison for the concrete pixel format,
// validating the mask color's component count and range first.
func (f *Finder) matcher(img image.Image) (func(x, y int) bool, error) {
	checkRange := func(max int) error {
		for _, c := range f.Color {
			if c > max {
				return fmt.Errorf("crop color %v out of range for this bit depth (0..%d)", f.Color, max)
			}
		}
		return nil
	}
	needComponents := func(n int, kind string) error {
		if len(f.Color) != n {
			return fmt.Errorf("%s image needs a %d-component crop color, got %d", kind, n, len(f.Color))
		}
		return nil
	}

	switch im := img.(type) {
	case *image.Gray:
		if err := needComponents(1, "grayscale"); err != nil {
			return nil, err
		}
		if err := checkRange(0xff); err != nil {
			return nil, err
		}
		want := uint8(f.Color[0])
		return func(x, y int) bool { return im.GrayAt(x, y).Y == want }, nil
	case *image.Gray16:
		if err := needComponents(1, "grayscale"); err != nil {
			return nil, err
		}
		if err := checkRange(0xffff); err != nil {
			return nil, err
		}
		want := uint16(f.Color[0])
		return func(x, y int) bool { return im.Gray16At(x, y).Y == want }, nil
	case *image.RGBA, *image.NRGBA:
		if err := needComponents(3, "RGB"); err != nil {
			return nil, err
		}
		if err := checkRange(0xff); err != nil {
			return nil, err
		}
		r8, g8, b8 := uint32(f.Color[0]), uint32(f.Color[1]), uint32(f.Color[2])
		return func(x, y int) bool {
			r, g, b, _ := img.At(x, y).RGBA()
			return r>>8 == r8 && g>>8 == g8 && b>>8 == b8
		}, nil
	case *image.RGBA64, *image.NRGBA64:
		if err := needComponents(3, "RGB"); err != nil {
			return nil, err
		}
		if err := checkRange(0xffff); err != nil {
			return nil, err
		}
		r16, g16, b16 := uint32(f.Color[0]), uint32(f.Color[1]), uint32(f.Color[2])
		return func(x, y int) bool {
			r, g, b, _ := img.At(x, y).RGBA()
			return r == r16 && g == g16 && b == b16
		}, nil
	default:
		return nil, fmt.Errorf("unsupported pixel format %T, only integer grayscale and RGB TIFFs are supported", img)
	}
}

// WriteCSV saves records with a header row. The file and status columns are
// quoted, geometry stays numeric.
func WriteCSV(path string, records []Record) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := fmt.Fprintln(f, `"file","left","top","width","height","status"`); err != nil {
		return err
	}
	for _, r := range records {
		_, err := fmt.Fprintf(f, "%q,%d,%d,%d,%d,%q\n",
			r.File, r.Left, r.Top, r.Width, r.Height, r.Status)
		if err != nil {
			return err
		}
	}
	logger.Info("Crop data written to: %s", path)
	return nil
}

// ReadCSV loads records previously saved by WriteCSV. The header row is
// skipped; short or malformed rows are an error.
func ReadCSV(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	rd := csv.NewReader(f)
	rows, err := rd.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	records := make([]Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) != 6 {
			return nil, fmt.Errorf("%s: row %d has %d columns, want 6", path, i+2, len(row))
		}
		rec := Record{File: row[0], Status: row[5]}
		for j, dst := range []*int{&rec.Left, &rec.Top, &rec.Width, &rec.Height} {
			n, err := strconv.Atoi(strings.TrimSpace(row[j+1]))
			if err != nil {
				return nil, fmt.Errorf("%s: row %d column %q is not an integer", path, i+2, row[j+1])
			}
			*dst = n
		}
		records = append(records, rec)
	}
	return records, nil
}

// Suffix renders the geometry suffix appended to a renamed file's stem.
func (r Record) Suffix() string {
	return fmt.Sprintf("_C%d-%d-%d-%d", r.Left, r.Top, r.Width, r.Height)
}

// Rename appends each record's geometry suffix to the matching files under
// base. Files without a usable record are reported and left alone; a status
// other than "ok" renames with a warning.
func Rename(base string, w *walker.Walker, records []Record) error {
	byFile := make(map[string]Record, len(records))
	for _, r := range records {
		byFile[r.File] = r
	}
	return w.Walk(base, func(rel string) error {
		rec, ok := byFile[rel]
		if !ok {
			logger.Warn("%s: no crop data found", rel)
			return nil
		}
		if rec.Left < 0 || rec.Top < 0 || rec.Width <= 0 || rec.Height <= 0 {
			logger.Warn("%s: invalid crop data (%d,%d,%d,%d)", rel, rec.Left, rec.Top, rec.Width, rec.Height)
			return nil
		}
		ext := filepath.Ext(rel)
		stem := strings.TrimSuffix(filepath.Base(rel), ext)
		suffix := rec.Suffix()
		if !strings.Contains(stem, "__") {
			// keep the geometry block separated from single-underscore fields
			suffix = "_" + suffix
		}
		newName := stem + suffix + ext
		oldPath := filepath.Join(base, filepath.FromSlash(rel))
		if err := os.Rename(oldPath, filepath.Join(filepath.Dir(oldPath), newName)); err != nil {
			logger.Error("%s: %v", rel, err)
			return nil
		}
		if rec.Status != StatusOK {
			logger.Warn("%s -> %s [status = %s]", filepath.Base(rel), newName, rec.Status)
		} else {
			logger.Info("%s -> %s", filepath.Base(rel), newName)
		}
		return nil
	})
}

var cropSuffixRe = regexp.MustCompile(`_C\d+-\d+-\d+-\d+`)

// Unname strips geometry suffixes added by Rename, restoring the original
// file names.
func Unname(base string, w *walker.Walker) error {
	return w.Walk(base, func(rel string) error {
		ext := filepath.Ext(rel)
		stem := strings.TrimSuffix(filepath.Base(rel), ext)
		newStem := cropSuffixRe.ReplaceAllString(stem, "")
		if newStem == stem {
			return nil
		}
		newStem = strings.TrimSuffix(newStem, "_")
		oldPath := filepath.Join(base, filepath.FromSlash(rel))
		if err := os.Rename(oldPath, filepath.Join(filepath.Dir(oldPath), newStem+ext)); err != nil {
			logger.Error("%s: %v", rel, err)
			return nil
		}
		logger.Info("%s -> %s", filepath.Base(rel), newStem+ext)
		return nil
	})
}
