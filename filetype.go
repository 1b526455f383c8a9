// SPDX-License-Identifier: EPL-2.0

package audmix

import (
	"fmt"
	"path/filepath"
	"strings"
)

// FileType tags the encoding of a File.
type FileType int

const (
	WAV FileType = iota
	MPEG
	OGG
	AIFF
)

var fileTypeNames = map[FileType]string{
	WAV:  "wav",
	MPEG: "mp3",
	OGG:  "ogg",
	AIFF: "aiff",
}

// String returns the decoder registry key for t.
func (t FileType) String() string {
	if name, ok := fileTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("FileType(%d)", int(t))
}

var extensions = map[string]FileType{
	".wav":  WAV,
	".wave": WAV,
	".mp3":  MPEG,
	".ogg":  OGG,
	".oga":  OGG,
	".aif":  AIFF,
	".aiff": AIFF,
}

// ParseFileType picks a type from a file name's extension.
func ParseFileType(name string) (FileType, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if t, ok := extensions[ext]; ok {
		return t, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
}

// File is an encoded audio payload. It is both the input record and the
// result of Combine.
type File struct {
	Bytes []byte
	Type  FileType
}
