package tags

import "fmt"

// EXIF Flash (0x9209) value names.
var FlashNames = map[int]string{
	0:  "No Flash",
	1:  "Fired",
	5:  "Fired, Return not detected",
	7:  "Fired, Return detected",
	8:  "On, Did not fire",
	9:  "On, Fired",
	13: "On, Return not detected",
	15: "On, Return detected",
	16: "Off, Did not fire",
	20: "Off, Did not fire, Return not detected",
	24: "Auto, Did not fire",
	25: "Auto, Fired",
	29: "Auto, Fired, Return not detected",
	31: "Auto, Fired, Return detected",
	32: "No flash function",
	48: "Off, No flash function",
	65: "Fired, Red-eye reduction",
	69: "Fired, Red-eye reduction, Return not detected",
	71: "Fired, Red-eye reduction, Return detected",
	73: "On, Red-eye reduction",
	77: "On, Red-eye reduction, Return not detected",
	79: "On, Red-eye reduction, Return detected",
	80: "Off, Red-eye reduction",
	88: "Auto, Did not fire, Red-eye reduction",
	89: "Auto, Fired, Red-eye reduction",
	93: "Auto, Fired, Red-eye reduction, Return not detected",
	95: "Auto, Fired, Red-eye reduction, Return detected",
}

var flashFired = map[int]bool{
	1: true, 5: true, 7: true, 9: true, 25: true, 29: true, 31: true,
	65: true, 69: true, 71: true, 73: true, 77: true, 79: true,
	89: true, 93: true, 95: true,
}

var flashNotFired = map[int]bool{
	0: true, 8: true, 16: true, 20: true, 24: true, 88: true,
	32: true, 48: true,
}

// FlashFired reports whether the flash fired for a Flash tag value given
// either as the numeric code or as its enum text.
func FlashFired(v Value) (bool, error) {
	code := -1
	switch {
	case v.Kind() == KindInt:
		code = int(v.Int64())
		if _, ok := FlashNames[code]; !ok {
			return false, fmt.Errorf("unknown EXIF Flash value %d", code)
		}
	case v.Kind() == KindString:
		for k, name := range FlashNames {
			if name == v.Str() {
				code = k
				break
			}
		}
		if code < 0 {
			return false, fmt.Errorf("unknown EXIF Flash value %q", v.Str())
		}
	default:
		return false, fmt.Errorf("invalid EXIF Flash value type")
	}
	if flashFired[code] {
		return true, nil
	}
	if flashNotFired[code] {
		return false, nil
	}
	return false, nil
}

// EXIF Orientation (0x0112) value names.
var OrientationNames = map[int]string{
	1: "Horizontal (normal)",
	2: "Mirror horizontal",
	3: "Rotate 180",
	4: "Mirror vertical",
	5: "Mirror horizontal and rotate 270 CW",
	6: "Rotate 90 CW",
	7: "Mirror horizontal and rotate 90 CW",
	8: "Rotate 270 CW",
}

// EXIF ColorSpace (0xA001) value names. Adobe RGB and the wide-gamut values
// are not standard EXIF but appear in scanner output.
var ColorSpaceNames = map[int]string{
	0x0001: "sRGB",
	0x0002: "Adobe RGB",
	0xfffd: "Wide Gamut RGB",
	0xfffe: "ICC Profile",
	0xffff: "Uncalibrated",
}

// EXIF FileSource (0xA300) value names.
var FileSourceNames = map[int]string{
	1: "Film Scanner",
	2: "Reflection Print Scanner",
	3: "Digital Camera",
}

// EXIF ExposureMode (0xA402) value names.
var ExposureModeNames = map[int]string{
	0: "Auto",
	1: "Manual",
	2: "Auto bracket",
}

// EXIF WhiteBalance (0xA403) value names.
var WhiteBalanceNames = map[int]string{
	0: "Auto",
	1: "Manual",
}

// GPS AltitudeRef (0x0005) value names.
var GPSAltitudeRefNames = map[int]string{
	0: "Above Sea Level",
	1: "Below Sea Level",
	2: "Positive Sea Level (sea-level ref)",
	3: "Negative Sea Level (sea-level ref)",
}

// GPS ProcessingMethod (0x001B) value names.
var GPSProcessingMethodNames = map[int]string{
	0: "GPS",
	1: "CELLID",
	2: "WLAN",
	3: "MANUAL",
}
