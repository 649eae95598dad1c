// Package scanner probes the tags a film scanner embedded in the source
// image. The probe is read-only and its output is restricted to an allow-list
// renamed into the Scanner namespace.
package scanner

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	exiftool "github.com/barasher/go-exiftool"
	"github.com/rwcarlsen/goexif/exif"

	"github.com/filmscan/scantag/internal/logger"
	"github.com/filmscan/scantag/internal/tags"
)

// NikonScan maker-note fields worth keeping, in output order.
var nikonScanFields = []string{
	"FilmType",
	"MultiSample",
	"BitDepth",
	"MasterGain",
	"ColorGain",
	"ScanImageEnhancer",
	"DigitalICE",
	"ROCInfo",
	"GEMInfo",
	"DigitalDEEShadowAdj",
	"DigitalDEEThreshold",
	"DigitalDEEHighlightAdj",
}

// Result holds the probe output: the allow-listed scanner tags plus the
// embedded modification date consumed by the CreateDate autofill rule.
type Result struct {
	Tags       *tags.Map
	ModifyDate string
}

// Probe reads scanner metadata from image files. The base EXIF fields come
// from an in-process decode; maker notes go through the external tool.
type Probe struct {
	mu sync.Mutex // the external tool is a single process, one caller at a time
	et *exiftool.Exiftool
}

// New creates a probe. toolPath may be empty to use the tool from $PATH.
func New(toolPath string) (*Probe, error) {
	var opts []func(*exiftool.Exiftool) error
	if toolPath != "" {
		opts = append(opts, exiftool.SetExiftoolBinaryPath(toolPath))
	}
	et, err := exiftool.NewExiftool(opts...)
	if err != nil {
		return nil, fmt.Errorf("starting exiftool for maker-note probe: %w", err)
	}
	return &Probe{et: et}, nil
}

// Close shuts the maker-note probe down.
func (p *Probe) Close() error {
	if p.et != nil {
		return p.et.Close()
	}
	return nil
}

// Read probes one image. Absent fields are omitted, never an error; only an
// unreadable file fails.
func (p *Probe) Read(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	res := &Result{Tags: tags.NewMap()}

	x, err := exif.Decode(f)
	if err != nil {
		// no EXIF at all is a valid scan source
		logger.Debug("No EXIF in %s: %v", path, err)
		return res, nil
	}

	model := stringField(x, exif.Model)
	software := stringField(x, exif.Software)
	if model != "" {
		res.Tags.Set("Scanner:Model", tags.String(model))
	}
	if software != "" {
		res.Tags.Set("Scanner:Software:Name", tags.String(software))
	}
	if dt := stringField(x, exif.DateTime); dt != "" {
		res.ModifyDate = strings.ReplaceAll(dt, ".", ":")
	}

	if strings.Contains(strings.ToLower(model), "nikon") &&
		strings.Contains(strings.ToLower(software), "nikon") {
		p.readNikonScan(path, software, res.Tags)
	}

	return res, nil
}

func stringField(x *exif.Exif, name exif.FieldName) string {
	t, err := x.Get(name)
	if err != nil {
		return ""
	}
	s, err := t.StringVal()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// readNikonScan pulls the NikonScan maker-note block through exiftool and
// folds the allow-listed fields into the Scanner:Software group.
func (p *Probe) readNikonScan(path, software string, m *tags.Map) {
	p.mu.Lock()
	fms := p.et.ExtractMetadata(path)
	p.mu.Unlock()
	if len(fms) == 0 || fms[0].Err != nil {
		if len(fms) > 0 {
			logger.Debug("Maker-note probe failed for %s: %v", path, fms[0].Err)
		}
		return
	}
	fields := fms[0].Fields

	for _, name := range nikonScanFields {
		raw, ok := fields[name]
		if !ok {
			continue
		}
		m.Set("Scanner:Software:"+name, fieldValue(raw))
	}

	// Nikon Scan writes negative gains 0.01 higher than shown in its UI
	if strings.Contains(software, "Nikon Scan") {
		if v, ok := m.Get("Scanner:Software:MasterGain"); ok {
			m.Set("Scanner:Software:MasterGain", tags.String(fixGain(v.Text())))
			// gain present means the scan ran with auto exposure unless stated
			m.Insert("Scanner:Software:AutoExposure", tags.Bool(true), "Scanner:Software:MasterGain")
		}
		if v, ok := m.Get("Scanner:Software:ColorGain"); ok {
			parts := strings.Fields(v.Text())
			fixed := make([]string, len(parts))
			for i, part := range parts {
				fixed[i] = fixGain(part)
			}
			m.Set("Scanner:Software:ColorGain", tags.String(strings.Join(fixed, ", ")))
		}
	}
}

// fixGain corrects one gain figure: negative values are lowered by 0.01 and
// reformatted in shortest form.
func fixGain(s string) string {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return s
	}
	if v < 0 {
		v -= 0.01
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func fieldValue(raw interface{}) tags.Value {
	switch v := raw.(type) {
	case string:
		return tags.String(v)
	case float64:
		if v == float64(int64(v)) {
			return tags.Int(int64(v))
		}
		return tags.Float(v)
	case bool:
		return tags.Bool(v)
	default:
		return tags.String(fmt.Sprintf("%v", v))
	}
}
