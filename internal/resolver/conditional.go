package resolver

import (
	"github.com/filmscan/scantag/internal/tags"
)

// conditionalRules run in declaration order on the fully merged mapping;
// each rule sees the output of the previous one. Rules run once, no fixpoint.
var conditionalRules = []func(m *tags.Map){
	panasonicC325EF,
}

func applyConditional(m *tags.Map) {
	for _, rule := range conditionalRules {
		rule(m)
	}
}

// panasonicC325EF fills in the fixed optics of the Panasonic C-325EF /
// C-D325EF point-and-shoot: fixed shutter, two-step aperture coupled to the
// flash, built-in 34mm lens.
func panasonicC325EF(m *tags.Map) {
	if m.GetOr("Make", tags.Unset()).Str() != "Panasonic" {
		return
	}
	model := m.GetOr("Model", tags.Unset()).Str()
	if model != "C-D325EF" && model != "C-325EF" {
		return
	}

	// flash is built-in automatic, default to "did not fire" when unknown
	if v, ok := m.Get("EXIF:Flash"); ok && v.Writable() && v.IsMarker() {
		m.Set("EXIF:Flash", tags.String(tags.FlashNames[24]))
	}

	exposure := tags.String("1/130")
	if writable(m, "ExposureTime") {
		m.Set("ExposureTime", exposure)
	}
	if writable(m, "ShutterSpeedValue") {
		m.Set("ShutterSpeedValue", exposure)
	}

	aperture := 9.0
	if v, ok := m.Get("EXIF:Flash"); ok {
		if fired, err := tags.FlashFired(v); err == nil && fired {
			aperture = 5.6
		}
	}
	if writable(m, "FNumber") {
		m.Set("FNumber", tags.Float(aperture))
	}
	if writable(m, "ApertureValue") {
		m.Set("ApertureValue", tags.Float(aperture))
	}

	if writable(m, "FocalLength") {
		m.Set("FocalLength", tags.Float(34.0))
	}
	if writable(m, "FocalLengthIn35mmFormat") {
		m.Set("FocalLengthIn35mmFormat", tags.Float(34.0))
	}

	if writable(m, "LensInfo") {
		m.Set("LensInfo", tags.List(
			tags.Float(34.0), tags.Float(34.0), tags.Float(5.6), tags.Float(5.6)))
	}
	if writable(m, "LensMake") {
		m.Set("LensMake", tags.String("Panasonic"))
	}
	if writable(m, "LensModel") {
		m.Set("LensModel", tags.String("Built-in, fixed-focus prime lens (1.3m-inf.)"))
	}
}
