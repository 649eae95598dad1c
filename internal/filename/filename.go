// Package filename decodes the metadata block that can be appended to a
// scanned image's basename: `<original>__<field>_<field>..._<ext>`, each
// field identified by its first character.
package filename

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/filmscan/scantag/internal/tags"
	"github.com/filmscan/scantag/pkg/common"
)

const (
	blockSeparator = "__"
	fieldSeparator = "_"
	// underscores inside free-text fields travel as an HTML entity
	escapedUnderscore = "&#95;"
)

// Decode extracts the tag mapping encoded in relPath, the image path relative
// to the base directory. The identity tags (Extra:File*) are always present;
// encoded fields are added when the basename carries a block.
func Decode(relPath string) (*tags.Map, error) {
	m := tags.NewMap()

	base := filepath.Base(relPath)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	dir := filepath.ToSlash(filepath.Dir(relPath))
	if dir == "." {
		dir = ""
	}

	fileID := stem
	block := ""
	if i := strings.Index(stem, blockSeparator); i >= 0 {
		if i > 0 {
			fileID = stem[:i]
		}
		block = stem[i+len(blockSeparator):]
	}

	m.Set("Extra:FileID", tags.String(fileID))
	m.Set("Extra:FileNameBase", tags.String(stem))
	m.Set("Extra:FileNameExtension", tags.String(strings.TrimPrefix(ext, ".")))
	m.Set("Extra:FilePath", tags.String(filepath.ToSlash(relPath)))
	m.Set("Extra:FileDirectory", tags.String(dir))

	if block == "" {
		return m, nil
	}

	for _, token := range strings.Split(block, fieldSeparator) {
		if token == "" {
			continue
		}
		if err := decodeToken(token, m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func decodeToken(token string, m *tags.Map) error {
	body := token[1:]
	fail := func(grammar, msg string) error {
		return &common.FilenameDecodeError{Token: token, Grammar: grammar, Message: msg}
	}

	switch token[0] {
	case 'F': // film ID and optional frame number on film
		const grammar = "F<FILM_ID>[-<FRAME>]"
		id, frame, hasFrame, err := splitIDFrame(body)
		if err != nil || id == "" {
			return fail(grammar, "film identifier or frame number missing")
		}
		m.Set("ReelName", tags.String(id))
		m.Set("Extra:FilmID", tags.String(id))
		if hasFrame {
			m.Set("ImageNumber", tags.Int(frame))
			m.Set("Extra:FilmFrameNumber", tags.Int(frame))
		}
	case 'S': // strip ID and optional frame number on strip
		const grammar = "S<STRIP_ID>[-<FRAME>]"
		id, frame, hasFrame, err := splitIDFrame(body)
		if err != nil || id == "" {
			return fail(grammar, "strip identifier or frame number missing")
		}
		m.Set("Extra:StripID", tags.String(id))
		if hasFrame {
			m.Set("Extra:StripFrameNumber", tags.Int(frame))
		}
	case 'N': // image number
		const grammar = "N<IMAGE_NUMBER>"
		n, err := decodeInt(body)
		if err != nil {
			return fail(grammar, "image number missing or not an integer")
		}
		m.Set("ImageNumber", tags.Int(n))
	case 'C': // crop rectangle, trailing fields may be omitted
		const grammar = "C<LEFT>[-<TOP>[-<WIDTH>[-<HEIGHT>]]]"
		if body == "" {
			return fail(grammar, "crop value missing")
		}
		parts := strings.Split(body, "-")
		if len(parts) > 4 {
			return fail(grammar, "too many crop components")
		}
		var crop []tags.Value
		for _, part := range parts {
			n, err := decodeInt(part)
			if err != nil {
				return fail(grammar, fmt.Sprintf("component %q is not an integer", part))
			}
			if n < 0 {
				return fail(grammar, "crop values can't be negative")
			}
			crop = append(crop, tags.Int(n))
		}
		m.Set(tags.TagTransformCrop, tags.List(crop...))
		m.Set(tags.TagTransformEnabled, tags.Bool(true))
	case 'R': // rotation angle with optional flips
		const grammar = "R<ANGLE|90CW|90CCW>[H][V]"
		flipH := strings.Contains(body, "H")
		flipV := strings.Contains(body, "V")
		angle := strings.NewReplacer("H", "", "V", "").Replace(body)
		var rotate int64
		switch angle {
		case "":
			rotate = 0
		case "90CW":
			rotate = 90
		case "90CCW":
			rotate = 270
		default:
			n, err := decodeInt(angle)
			if err != nil {
				return fail(grammar, "rotation angle not recognized")
			}
			rotate = n
		}
		m.Set(tags.TagTransformRotate, tags.Int(rotate))
		m.Set(tags.TagTransformFlip, tags.List(tags.Bool(flipH), tags.Bool(flipV)))
		m.Set(tags.TagTransformEnabled, tags.Bool(true))
	case 'Z': // compression identifier
		const grammar = "Z<COMPRESSION_ID>"
		if body == "" {
			return fail(grammar, "compression identifier missing")
		}
		m.Set(tags.TagTransformCompr, tags.List(tags.String(body)))
		m.Set(tags.TagTransformEnabled, tags.Bool(true))
	case 'T': // exposure time in seconds, or 'DENOM for 1/DENOM
		const grammar = "T<SECONDS|'DENOMINATOR>"
		if body == "" {
			return fail(grammar, "exposure time missing")
		}
		if strings.HasPrefix(body, "'") {
			denom, err := decodeInt(body[1:])
			if err != nil {
				return fail(grammar, "denominator is not an integer")
			}
			m.Set("ExposureTime", tags.String(fmt.Sprintf("1/%d", denom)))
		} else {
			sec, err := decodeFloat(body)
			if err != nil {
				return fail(grammar, "seconds value is not a number")
			}
			m.Set("ExposureTime", tags.Float(sec))
		}
	case 'A': // aperture F-number
		const grammar = "A<F-NUMBER>"
		f, err := decodeFloat(body)
		if err != nil {
			return fail(grammar, "aperture value missing or not a number")
		}
		m.Set("FNumber", tags.Float(f))
	case 'I': // ISO
		const grammar = "I<ISO>"
		n, err := decodeInt(body)
		if err != nil {
			return fail(grammar, "ISO value missing or not an integer")
		}
		m.Set("ISO", tags.Int(n))
	case 'X': // flash, numeric EXIF code
		const grammar = "X<EXIF_FLASH_CODE>"
		n, err := decodeInt(body)
		if err != nil {
			return fail(grammar, "flash code missing or not an integer")
		}
		name, ok := tags.FlashNames[int(n)]
		if !ok {
			return fail(grammar, fmt.Sprintf("unknown flash code %d", n))
		}
		m.Set("EXIF:Flash", tags.String(name))
	case 'O': // orientation
		const grammar = "O<1-8|90CW|90CCW|180>"
		var code int64
		switch body {
		case "90CW":
			code = 6
		case "90CCW":
			code = 8
		case "180":
			code = 3
		default:
			n, err := decodeInt(body)
			if err != nil {
				return fail(grammar, "orientation value missing")
			}
			code = n
		}
		if code < 1 || code > 8 {
			return fail(grammar, fmt.Sprintf("orientation code %d out of range", code))
		}
		m.Set("Orientation", tags.String(tags.OrientationNames[int(code)]))
	case 'L': // lens focal length in mm
		const grammar = "L<FOCAL_LENGTH>"
		n, err := decodeInt(body)
		if err != nil {
			return fail(grammar, "focal length missing or not an integer")
		}
		m.Set("FocalLength", tags.Int(n))
	case 'M': // camera model and maker
		model, maker, _ := strings.Cut(body, "@")
		if model != "" {
			m.Set("Model", tags.String(model))
		}
		if maker != "" {
			m.Set("Make", tags.String(maker))
		}
	case 'D': // datetime of original capture with optional timezone offset
		const grammar = "D<YYYY>[-MM[-DD[-hh[-mm[-ss]]]]][@<tzh>[-<tzm>]]"
		if body == "" {
			return fail(grammar, "datetime value missing")
		}
		dt, offset, hasOffset := strings.Cut(body, "@")
		if dt != "" {
			fields := [6]int64{}
			parts := strings.Split(dt, "-")
			if len(parts) > 6 {
				return fail(grammar, "too many datetime components")
			}
			for i, part := range parts {
				n, err := decodeInt(part)
				if err != nil {
					return fail(grammar, fmt.Sprintf("component %q is not an integer", part))
				}
				fields[i] = n
			}
			if fields[0] < 0 || fields[0] > 9999 {
				return fail(grammar, "year must fit 4 digits")
			}
			for _, v := range fields[1:] {
				if v < 0 || v > 99 {
					return fail(grammar, "components after the year must fit 2 digits")
				}
			}
			m.Set("DateTimeOriginal", tags.String(fmt.Sprintf(
				"%04d:%02d:%02d %02d:%02d:%02d",
				fields[0], fields[1], fields[2], fields[3], fields[4], fields[5])))
		}
		if hasOffset && offset != "" {
			oh, om, _, err := splitIDFrameInts(offset)
			if err != nil {
				return fail(grammar, "timezone offset is not numeric")
			}
			if oh < -24 || oh > 24 {
				return fail(grammar, "offset hours must be within ±24")
			}
			if om < 0 || om > 59 {
				return fail(grammar, "offset minutes must be between 0 and 59")
			}
			m.Set("OffsetTimeOriginal", tags.String(fmt.Sprintf("%+03d:%02d", oh, om)))
		}
	case 'G': // GNSS coordinates and optional altitude
		const grammar = "G<{m|N|S}LAT>,<{m|E|W}LON>[,<ALT>]"
		parts := strings.Split(strings.ReplaceAll(body, " ", ""), ",")
		if len(parts) < 2 || len(parts) > 3 {
			return fail(grammar, "location needs latitude and longitude")
		}
		lat, err := decodeGeo(parts[0], 'N', 'S')
		if err != nil {
			return fail(grammar, "latitude can't be parsed")
		}
		lon, err := decodeGeo(parts[1], 'E', 'W')
		if err != nil {
			return fail(grammar, "longitude can't be parsed")
		}
		m.Set("GPSLatitude", tags.Float(lat))
		m.Set("GPSLongitude", tags.Float(lon))
		if len(parts) == 3 {
			alt, err := decodeFloat(parts[2])
			if err != nil {
				return fail(grammar, "altitude is not a number")
			}
			m.Set("GPSAltitude", tags.Float(alt))
		}
	case 'H': // image title
		m.Set("ImageTitle", tags.String(unescape(body)))
	case 'E': // image description
		m.Set("ImageDescription", tags.String(unescape(body)))
	case 'U': // user comment
		m.Set("UserComment", tags.String(unescape(body)))
	case 'W': // raw tag override
		const grammar = "W<TAG>@<VALUE>"
		name, value, ok := strings.Cut(body, "@")
		if !ok || name == "" {
			return fail(grammar, "tag name or value missing")
		}
		m.Set(name, tags.String(unescape(value)))
	default:
		// unrecognized prefixes are ignored; schema admission filters strictness
	}
	return nil
}

func unescape(s string) string {
	return strings.ReplaceAll(s, escapedUnderscore, "_")
}

// decodeInt parses an integer where a leading 'm' marks a negative value
// (filenames can't carry '-' without colliding with range syntax).
func decodeInt(s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty")
	}
	neg := false
	if strings.HasPrefix(s, "m") {
		neg = true
		s = s[1:]
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	if neg {
		n = -n
	}
	return n, nil
}

func decodeFloat(s string) (float64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty")
	}
	neg := false
	if strings.HasPrefix(s, "m") {
		neg = true
		s = s[1:]
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if neg {
		f = -f
	}
	return f, nil
}

// decodeGeo parses a coordinate with either a hemisphere letter prefix or a
// sign prefix.
func decodeGeo(s string, pos, neg byte) (float64, error) {
	sign := 1.0
	if len(s) > 0 {
		switch s[0] {
		case pos:
			s = s[1:]
		case neg:
			sign = -1.0
			s = s[1:]
		}
	}
	f, err := decodeFloat(s)
	if err != nil {
		return 0, err
	}
	return sign * f, nil
}

// splitIDFrame splits `<ID>[-<FRAME>]` at the last dash so identifiers may
// contain dashes themselves.
func splitIDFrame(s string) (id string, frame int64, hasFrame bool, err error) {
	i := strings.LastIndex(s, "-")
	if i < 0 {
		return s, 0, false, nil
	}
	id = s[:i]
	frame, err = decodeInt(s[i+1:])
	if err != nil {
		return "", 0, false, err
	}
	return id, frame, true, nil
}

// splitIDFrameInts parses `<H>[-<M>]` into two integers, minutes default 0.
func splitIDFrameInts(s string) (h, m int64, hasM bool, err error) {
	first, rest, found := strings.Cut(s, "-")
	h, err = decodeInt(first)
	if err != nil {
		return 0, 0, false, err
	}
	if found {
		m, err = decodeInt(rest)
		if err != nil {
			return 0, 0, false, err
		}
		return h, m, true, nil
	}
	return h, 0, false, nil
}
