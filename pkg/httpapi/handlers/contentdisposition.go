package handlers

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"
)

// reservedOrPathChars are characters that could break out of a header value
// or be reinterpreted as a path separator by a downstream client.
const reservedOrPathChars = `/\:*?"<>|`

// sanitizeFilename implements spec §6's Content-Disposition sanitation
// rule: strip control characters and CR/LF unconditionally, then replace
// path and reserved characters with an underscore.
func sanitizeFilename(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r == '\r' || r == '\n' || unicode.IsControl(r):
			continue
		case strings.ContainsRune(reservedOrPathChars, r):
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}
	sanitized := b.String()
	if sanitized == "" {
		return "download"
	}
	return sanitized
}

// isSafeASCII reports whether name can be emitted as a bare quoted-string
// filename parameter without further escaping: pure ASCII, no embedded
// quote, no newline (already stripped by sanitizeFilename but checked
// again defensively since this function may see other inputs).
func isSafeASCII(name string) bool {
	for _, r := range name {
		if r > unicode.MaxASCII || r == '"' || r == '\n' || r == '\r' {
			return false
		}
	}
	return true
}

// contentDispositionHeader builds an attachment Content-Disposition value
// safe from header injection (spec §6). Non-ASCII names get both a quoted
// ASCII fallback and an RFC 5987 filename* extended parameter.
func contentDispositionHeader(rawName string) string {
	safe := sanitizeFilename(rawName)
	if isSafeASCII(safe) {
		return fmt.Sprintf(`attachment; filename="%s"`, strings.ReplaceAll(safe, `"`, "_"))
	}

	ascii := asciiFallback(safe)
	encoded := url.PathEscape(safe)
	return fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`, ascii, encoded)
}

// asciiFallback replaces every non-ASCII rune with underscore for clients
// that don't understand RFC 5987 extended parameters.
func asciiFallback(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if r > unicode.MaxASCII || r == '"' {
			b.WriteByte('_')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
