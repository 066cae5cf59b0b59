// Package archive implements directory packing for downloads (spec §4.6.a):
// zip every live, non-directory descendant of a directory into a single
// archive, sanitizing entry names against archive-slip. archive/zip has no
// ecosystem replacement in the retrieved corpus — every pack repo that
// builds archives reaches for the standard library writer, so this package
// does too (see DESIGN.md).
package archive

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/mladen4o/ClovaLink/internal/logger"
	"github.com/mladen4o/ClovaLink/pkg/backend"
	"github.com/mladen4o/ClovaLink/pkg/catalog"
)

// ErrTooLarge is returned when the sum of descendant sizes exceeds
// MaxPackSize, checked before any bytes are read from the backend (spec
// §4.6.a).
var ErrTooLarge = fmt.Errorf("archive: pack exceeds configured maximum size")

const DefaultMaxPackSize uint64 = 500 << 20 // ~500 MiB

// SanitizeEntryName applies the archive-slip defenses named in spec §4.6.a:
// strip leading separators, drop "." and ".." path components, refuse
// absolute paths and Windows drive markers. Returns "" if nothing safe
// remains, which the caller must skip with a warning.
func SanitizeEntryName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimLeft(name, "/")

	parts := strings.Split(name, "/")
	clean := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" || p == "." || p == ".." {
			continue
		}
		// Windows drive marker, e.g. "C:".
		if len(p) == 2 && p[1] == ':' {
			continue
		}
		clean = append(clean, p)
	}
	return strings.Join(clean, "/")
}

// Packer streams a zip archive of a directory's live descendants to w.
type Packer struct {
	backend     backend.Backend
	maxPackSize uint64
}

func NewPacker(be backend.Backend, maxPackSize uint64) *Packer {
	if maxPackSize == 0 {
		maxPackSize = DefaultMaxPackSize
	}
	return &Packer{backend: be, maxPackSize: maxPackSize}
}

// Pack writes every entry in descendants to w as a zip archive, using each
// record's path relative to the packed directory's parent (so the packed
// directory's own name becomes the archive root) and backend storage key
// to pull bytes. Entries with an empty sanitized name are skipped with a
// warning log line.
func (p *Packer) Pack(ctx context.Context, w io.Writer, dirParentPath string, descendants []catalog.Record) error {
	var total uint64
	for _, d := range descendants {
		total += d.SizeBytes
	}
	if total > p.maxPackSize {
		return ErrTooLarge
	}

	prefix := dirParentPath + "/"
	if dirParentPath == "" {
		prefix = ""
	}

	zw := zip.NewWriter(w)

	for _, d := range descendants {
		rel := strings.TrimPrefix(d.EffectivePath(), prefix)
		name := SanitizeEntryName(rel)
		if name == "" {
			logger.Warn("archive: skipping entry with empty sanitized name", logger.RecordID(d.ID))
			continue
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		entry, err := zw.Create(name)
		if err != nil {
			return fmt.Errorf("archive: create entry %q: %w", name, err)
		}

		rc, _, err := p.backend.GetStream(ctx, d.StorageKey)
		if err != nil {
			return fmt.Errorf("archive: fetch %q: %w", name, err)
		}
		_, copyErr := io.Copy(entry, rc)
		rc.Close()
		if copyErr != nil {
			return fmt.Errorf("archive: write entry %q: %w", name, copyErr)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("archive: finalize: %w", err)
	}
	return nil
}
