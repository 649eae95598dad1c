package resolver

import (
	"fmt"
	"strconv"
	"time"

	"github.com/filmscan/scantag/internal/logger"
	"github.com/filmscan/scantag/internal/tags"
)

const exifTimeLayout = "2006:01:02 15:04:05"

// autofillRules run in fixed order; a rule may read the output of an earlier
// rule in the same pass but rules never re-run.
var autofillRules = []func(m *tags.Map, env Env) error{
	fillDocumentName,
	fillModifyDate,
	fillShutterSpeed,
	fillAperture,
	fillImageSize,
	fillCreateDate,
	fillGPSLatitudeRef,
	fillGPSLongitudeRef,
	fillGPSAltitudeRef,
	fillGPSProcessingMethod,
}

// Autofill fills every tag still holding AUTO from the environment and from
// already-resolved tags.
func Autofill(m *tags.Map, env Env) error {
	for _, rule := range autofillRules {
		if err := rule(m, env); err != nil {
			return err
		}
	}
	return nil
}

func isAuto(m *tags.Map, key string) bool {
	return m.GetOr(key, tags.Unset()).Marker() == tags.Auto
}

// fillDocumentName rebuilds the original frame identity from the film and
// strip identifiers decoded out of the filename.
func fillDocumentName(m *tags.Map, _ Env) error {
	if !isAuto(m, "DocumentName") {
		return nil
	}
	filmID := m.GetOr("Extra:FilmID", tags.Unset()).Str()
	stripID := m.GetOr("Extra:StripID", tags.Unset()).Str()
	if filmID == "" || stripID == "" {
		m.Set("DocumentName", tags.String(""))
		logger.Warn("Can't assign DocumentName, not enough data")
		return nil
	}
	filmFrame := m.GetOr("Extra:FilmFrameNumber", tags.Int(0)).Int64()
	stripFrame := m.GetOr("Extra:StripFrameNumber", tags.Int(0)).Int64()
	m.Set("DocumentName", tags.String(
		fmt.Sprintf("%s-%02d_S%s-%d", filmID, filmFrame, stripID, stripFrame)))
	return nil
}

func fillModifyDate(m *tags.Map, env Env) error {
	if !isAuto(m, "ModifyDate") {
		return nil
	}
	now := env.Now()
	m.Set("ModifyDate", tags.String(now.Format(exifTimeLayout)))
	if v, ok := m.Get("OffsetTime"); ok && v.Writable() && v.Marker() == tags.Auto {
		m.Set("OffsetTime", tags.String(now.Format("-07:00")))
	}
	return nil
}

func fillShutterSpeed(m *tags.Map, _ Env) error {
	if isAuto(m, "ShutterSpeedValue") {
		m.Set("ShutterSpeedValue", m.GetOr("ExposureTime", tags.Sentinel(tags.Skip)))
	}
	return nil
}

func fillAperture(m *tags.Map, _ Env) error {
	if isAuto(m, "ApertureValue") {
		m.Set("ApertureValue", m.GetOr("FNumber", tags.Sentinel(tags.Skip)))
	}
	return nil
}

// fillImageSize reads the dimensions of the working copy, after any crop or
// rotation has been applied to it.
func fillImageSize(m *tags.Map, env Env) error {
	if !isAuto(m, "ExifImageWidth") && !isAuto(m, "ExifImageHeight") {
		return nil
	}
	if env.ImageSize == nil {
		return nil
	}
	w, h, err := env.ImageSize()
	if err != nil {
		return fmt.Errorf("reading image size: %w", err)
	}
	if isAuto(m, "ExifImageWidth") {
		m.Set("ExifImageWidth", tags.Int(int64(w)))
	}
	if isAuto(m, "ExifImageHeight") {
		m.Set("ExifImageHeight", tags.Int(int64(h)))
	}
	return nil
}

// fillCreateDate takes the scan timestamp from the source file's embedded
// modification date. Without one the tag stays AUTO and finalize fails the
// image.
func fillCreateDate(m *tags.Map, env Env) error {
	if !isAuto(m, "CreateDate") || env.ModifyDate == "" {
		return nil
	}
	m.Set("CreateDate", tags.String(env.ModifyDate))
	if isAuto(m, "OffsetTimeDigitized") {
		if t, err := time.ParseInLocation(exifTimeLayout, env.ModifyDate, env.Now().Location()); err == nil {
			m.Set("OffsetTimeDigitized", tags.String(t.Format("-07:00")))
		}
	}
	return nil
}

func fillGPSLatitudeRef(m *tags.Map, _ Env) error {
	return fillGeoRef(m, "GPSLatitudeRef", "GPSLatitude", "N", "S")
}

func fillGPSLongitudeRef(m *tags.Map, _ Env) error {
	return fillGeoRef(m, "GPSLongitudeRef", "GPSLongitude", "E", "W")
}

// fillGeoRef derives the hemisphere letter from a signed or letter-prefixed
// coordinate, leaving the coordinate itself positive.
func fillGeoRef(m *tags.Map, refKey, valKey, pos, neg string) error {
	if !isAuto(m, refKey) {
		return nil
	}
	v := m.GetOr(valKey, tags.Sentinel(tags.Skip))
	if v.IsMarker() {
		m.Set(refKey, tags.Sentinel(tags.Skip))
		return nil
	}
	switch {
	case v.Kind() == tags.KindString:
		s := v.Str()
		if len(s) > 1 && (s[:1] == pos || s[:1] == neg) {
			f, err := strconv.ParseFloat(s[1:], 64)
			if err != nil {
				return fmt.Errorf("%s value %q can't be parsed", valKey, s)
			}
			m.Set(refKey, tags.String(s[:1]))
			m.Set(valKey, tags.Float(f))
			return nil
		}
		return fmt.Errorf("%s value %q can't be parsed", valKey, s)
	case v.IsNumber():
		if v.Float64() >= 0 {
			m.Set(refKey, tags.String(pos))
		} else {
			m.Set(refKey, tags.String(neg))
			m.Set(valKey, tags.Float(-v.Float64()))
		}
		return nil
	}
	return fmt.Errorf("%s value can't be processed", valKey)
}

func fillGPSAltitudeRef(m *tags.Map, _ Env) error {
	if !isAuto(m, "GPSAltitudeRef") {
		return nil
	}
	v := m.GetOr("GPSAltitude", tags.Sentinel(tags.Skip))
	if v.IsMarker() {
		m.Set("GPSAltitudeRef", tags.Sentinel(tags.Skip))
		return nil
	}
	if !v.IsNumber() {
		return fmt.Errorf("GPSAltitude value can't be processed")
	}
	if v.Float64() >= 0 {
		m.Set("GPSAltitudeRef", tags.String(tags.GPSAltitudeRefNames[0]))
	} else {
		m.Set("GPSAltitudeRef", tags.String(tags.GPSAltitudeRefNames[1]))
		m.Set("GPSAltitude", tags.Float(-v.Float64()))
	}
	return nil
}

// fillGPSProcessingMethod marks hand-entered coordinates as MANUAL once both
// are concrete.
func fillGPSProcessingMethod(m *tags.Map, _ Env) error {
	if !isAuto(m, "GPSProcessingMethod") {
		return nil
	}
	lat := m.GetOr("GPSLatitude", tags.Sentinel(tags.Skip))
	lon := m.GetOr("GPSLongitude", tags.Sentinel(tags.Skip))
	if !lat.IsMarker() && !lon.IsMarker() {
		m.Set("GPSProcessingMethod", tags.String(tags.GPSProcessingMethodNames[3]))
	} else {
		m.Set("GPSProcessingMethod", tags.Sentinel(tags.Skip))
	}
	return nil
}
