package cli

import (
	"net/url"
	"path/filepath"
	"runtime"
	"strings"
)

// sanitizePath cleans a path that arrived by paste or drag-and-drop.
// Terminals and file managers decorate dropped paths in different ways:
// Tk-style braces, shell quotes, backslash-escaped spaces and file:// URIs.
// Only the first line is used when several files are dropped at once.
func sanitizePath(raw string) string {
	s := strings.TrimSpace(raw)
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	s = strings.Trim(s, "{}")
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		s = s[1 : len(s)-1]
	}

	if strings.HasPrefix(s, "file://") {
		if u, err := url.Parse(s); err == nil && u.Path != "" {
			s = u.Path
			if runtime.GOOS == "windows" {
				s = strings.TrimPrefix(s, "/")
			}
		} else {
			s = strings.TrimPrefix(s, "file://")
		}
	} else if runtime.GOOS != "windows" {
		s = strings.ReplaceAll(s, `\ `, " ")
	}
	return s
}

// defaultSavePath suggests <dir>/<name>_sketch.png next to the source.
func defaultSavePath(source string) string {
	if source == "" {
		return "sketch.png"
	}
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	return filepath.Join(filepath.Dir(source), base+"_sketch.png")
}
