package cache

import (
	"encoding/hex"
	"strings"

	"github.com/zeebo/blake3"
)

// maxNameLength keeps "<name>.<ext>" well under the 255 byte limit of common
// filesystems.
const maxNameLength = 200

// digestLength is the number of hex characters of the blake3 digest appended
// to truncated names.
const digestLength = 32

// secureName reduces s to characters safe in a single path segment: path
// separators and whitespace become "_", anything outside [A-Za-z0-9_.,-] is
// dropped and leading or trailing "." and "_" are trimmed.
func secureName(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	pendingSep := false
	for _, r := range s {
		switch {
		case r == '/' || r == '\\' || r == ' ' || r == '\t' || r == '\n' || r == '\r':
			pendingSep = true
			continue
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '_', r == '.', r == ',', r == '-':
		default:
			continue
		}
		if pendingSep && sb.Len() > 0 {
			sb.WriteByte('_')
		}
		pendingSep = false
		sb.WriteRune(r)
	}
	return strings.Trim(sb.String(), "._")
}

// fileName maps serialized commands to a file name base. Names that would be
// empty or too long get a digest of the full text so distinct chains never
// share a file.
func fileName(commands string) string {
	name := secureName(commands)
	if name != "" && len(name) <= maxNameLength {
		return name
	}

	sum := blake3.Sum256([]byte(commands))
	digest := hex.EncodeToString(sum[:])[:digestLength]
	if name == "" {
		return digest
	}
	return name[:maxNameLength-digestLength-1] + "-" + digest
}
