package exiftool

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/filmscan/scantag/internal/tags"
	"github.com/filmscan/scantag/pkg/common"
)

// namespaces used only inside resolution, never written to the file
var servicePrefixes = []string{
	"ImageTransform:",
	"Script:",
	"Scanner:",
	"ImageHistory:",
	"Extra:",
}

var exifDateShape = regexp.MustCompile(`^\d{4}:\d{2}:\d{2} \d{2}:\d{2}:\d{2}$`)

// dateTags accept syntactically valid but semantically impossible values via
// raw assignment, for scans whose source date is only partially known.
var dateTags = map[string]bool{
	"DateTimeOriginal": true,
	"ModifyDate":       true,
	"CreateDate":       true,
}

// BuildArgs serializes the final tag mapping into exiftool arguments.
// Service namespaces are stripped; with a locked schema, tags failing
// admission are dropped. DELETE becomes a delete instruction, SKIP and
// OPTIONAL emit nothing, concrete values become set instructions.
func BuildArgs(m *tags.Map, schema *tags.Map) ([]string, error) {
	locked := tags.Locked(m)
	var args []string

	for _, name := range m.Keys() {
		if isService(name) {
			continue
		}
		if locked && !schema.Has(name) {
			continue
		}
		v, _ := m.Get(name)

		switch v.Marker() {
		case tags.Delete:
			args = append(args, fmt.Sprintf("-%s=", name))
			continue
		case tags.Skip, tags.Optional:
			continue
		case tags.Auto:
			return nil, &common.UnresolvedAutoTag{Tag: name}
		case tags.Mandatory:
			return nil, &common.UnresolvedMandatoryTag{Tag: name}
		}
		if v.IsUnset() {
			continue
		}

		text := v.Text()
		// newlines travel as HTML entities, decoded by the tool's -E mode
		text = strings.ReplaceAll(text, "\n", "&#xd;&#xa;")

		if text == "" {
			// assigning an empty value needs the append-empty operator
			args = append(args, fmt.Sprintf("-%s^=", name))
			continue
		}
		if dateTags[name] && exifDateShape.MatchString(text) {
			if _, err := time.Parse("2006:01:02 15:04:05", text); err != nil {
				// shape is right but the calendar disagrees; write raw
				args = append(args, fmt.Sprintf("-%s#=%s", name, text))
				continue
			}
		}
		args = append(args, fmt.Sprintf("-%s=%s", name, text))
	}
	return args, nil
}

func isService(name string) bool {
	for _, p := range servicePrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}
