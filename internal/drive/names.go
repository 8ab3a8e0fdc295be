package drive

import (
	"regexp"
	"strings"
)

var folderURLPattern = regexp.MustCompile(`/folders/([a-zA-Z0-9_-]+)`)

// FolderID pulls the folder id out of a pasted Drive link. Input without a
// /folders/<id> segment is treated as the id itself.
func FolderID(input string) string {
	if m := folderURLPattern.FindStringSubmatch(input); m != nil {
		return m[1]
	}
	return strings.TrimSpace(input)
}

// Sanitize makes name usable as a single path segment.
func Sanitize(name string) string {
	out := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		if r < 0x20 || r == 0x7f {
			return '_'
		}
		return r
	}, name)

	// "", "." and ".." are not usable as file names.
	if strings.Trim(out, ".") == "" {
		return strings.Repeat("_", max(len(out), 1))
	}
	return out
}
