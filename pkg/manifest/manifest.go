// Package manifest looks up the face-recognition usage-disclosure string
// the host application must declare before a face-based prompt may be
// shown (NSFaceIDUsageDescription in the bundle's Info.plist).
package manifest

import (
	"os"
	"path/filepath"

	"howett.net/plist"
)

const faceUsageKey = "NSFaceIDUsageDescription"

// Source resolves the application's face-recognition usage disclosure.
type Source interface {
	// FaceUsageDescription returns the declared disclosure string and
	// whether a non-empty declaration exists.
	FaceUsageDescription() (string, bool)
}

// Static is a Source backed by an in-memory key/value set; embedding hosts
// that carry their own configuration can hand it over directly.
type Static map[string]string

func (s Static) FaceUsageDescription() (string, bool) {
	v, ok := s[faceUsageKey]
	return v, ok && v != ""
}

// Bundle reads the disclosure from an application bundle's Info.plist.
type Bundle struct {
	// Path of the Info.plist. Empty means "locate it relative to the
	// running executable" (Contents/MacOS/<exe> -> Contents/Info.plist).
	Path string
}

func (b *Bundle) FaceUsageDescription() (string, bool) {
	path := b.Path
	if path == "" {
		exe, err := os.Executable()
		if err != nil {
			return "", false
		}
		path = filepath.Join(filepath.Dir(exe), "..", "Info.plist")
	}

	f, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer func() {
		_ = f.Close()
	}()

	var keys map[string]any
	if err := plist.NewDecoder(f).Decode(&keys); err != nil {
		return "", false
	}

	v, ok := keys[faceUsageKey].(string)
	return v, ok && v != ""
}
