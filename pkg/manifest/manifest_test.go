package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const infoPlist = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>CFBundleIdentifier</key>
	<string>com.example.vault</string>
	<key>NSFaceIDUsageDescription</key>
	<string>Face ID unlocks your vault</string>
</dict>
</plist>
`

func TestStatic_FaceUsageDescription(t *testing.T) {
	declared := Static{"NSFaceIDUsageDescription": "Face ID unlocks your vault"}
	v, ok := declared.FaceUsageDescription()
	assert.True(t, ok)
	assert.Equal(t, "Face ID unlocks your vault", v)

	empty := Static{"NSFaceIDUsageDescription": ""}
	_, ok = empty.FaceUsageDescription()
	assert.False(t, ok)

	_, ok = Static{}.FaceUsageDescription()
	assert.False(t, ok)
}

func TestBundle_FaceUsageDescription(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Info.plist")
	require.NoError(t, os.WriteFile(path, []byte(infoPlist), 0o600))

	b := &Bundle{Path: path}
	v, ok := b.FaceUsageDescription()
	assert.True(t, ok)
	assert.Equal(t, "Face ID unlocks your vault", v)
}

func TestBundle_FaceUsageDescription_Missing(t *testing.T) {
	missingFile := &Bundle{Path: filepath.Join(t.TempDir(), "Info.plist")}
	_, ok := missingFile.FaceUsageDescription()
	assert.False(t, ok)

	path := filepath.Join(t.TempDir(), "Info.plist")
	withoutKey := `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>CFBundleIdentifier</key>
	<string>com.example.vault</string>
</dict>
</plist>
`
	require.NoError(t, os.WriteFile(path, []byte(withoutKey), 0o600))

	b := &Bundle{Path: path}
	_, ok = b.FaceUsageDescription()
	assert.False(t, ok)
}
