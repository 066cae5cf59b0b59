// Package bytesize parses and formats human-readable byte quantities used
// throughout configuration (quotas, upload limits, pack-size ceilings).
package bytesize

import (
	"fmt"
	"strconv"
	"strings"
)

// Size is a count of bytes that knows how to parse suffixed strings such as
// "500MiB" or "2Gi" and format itself back for logs and config dumps.
type Size uint64

const (
	Byte Size = 1

	KB Size = 1000
	MB Size = 1000 * KB
	GB Size = 1000 * MB
	TB Size = 1000 * GB

	KiB Size = 1024
	MiB Size = 1024 * KiB
	GiB Size = 1024 * MiB
	TiB Size = 1024 * GiB
)

var suffixes = []struct {
	name string
	unit Size
}{
	{"TiB", TiB}, {"TB", TB}, {"Ti", TiB}, {"T", TB},
	{"GiB", GiB}, {"GB", GB}, {"Gi", GiB}, {"G", GB},
	{"MiB", MiB}, {"MB", MB}, {"Mi", MiB}, {"M", MB},
	{"KiB", KiB}, {"KB", KB}, {"Ki", KiB}, {"K", KB},
	{"B", Byte}, {"", Byte},
}

// Parse converts a string like "10MiB", "2.5GB" or "1024" into a Size. An
// empty (or all-whitespace) string is an error.
func Parse(raw string) (Size, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("bytesize: empty value")
	}

	for _, suf := range suffixes {
		if suf.name == "" {
			continue
		}
		if strings.HasSuffix(strings.ToLower(s), strings.ToLower(suf.name)) {
			numPart := strings.TrimSpace(s[:len(s)-len(suf.name)])
			if numPart == "" {
				continue
			}
			n, err := strconv.ParseFloat(numPart, 64)
			if err != nil {
				continue
			}
			return Size(n * float64(suf.unit)), nil
		}
	}

	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bytesize: cannot parse %q: %w", raw, err)
	}
	return Size(n), nil
}

// MustParse is Parse but panics on error; intended for package-level defaults.
func MustParse(raw string) Size {
	s, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return s
}

func (s Size) String() string {
	switch {
	case s >= TiB:
		return fmt.Sprintf("%.2fTiB", float64(s)/float64(TiB))
	case s >= GiB:
		return fmt.Sprintf("%.2fGiB", float64(s)/float64(GiB))
	case s >= MiB:
		return fmt.Sprintf("%.2fMiB", float64(s)/float64(MiB))
	case s >= KiB:
		return fmt.Sprintf("%.2fKiB", float64(s)/float64(KiB))
	default:
		return fmt.Sprintf("%dB", uint64(s))
	}
}

// UnmarshalYAML lets Size appear directly in YAML config files as a string.
func (s *Size) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	parsed, err := Parse(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
