// Package transcript reads pasted or exported meeting transcripts from disk.
// Exports from meeting tools arrive as UTF-8, UTF-16 with a byte order mark,
// or Windows-1252. All are returned as UTF-8 with Unix line endings. WebVTT
// caption files are flattened to one line per speaker turn.
package transcript

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// MaxSize bounds how much of a transcript file is read.
const MaxSize = 10 << 20

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// Encoding names the detected source encoding.
type Encoding string

const (
	EncodingUTF8        Encoding = "utf-8"
	EncodingUTF16LE     Encoding = "utf-16le"
	EncodingUTF16BE     Encoding = "utf-16be"
	EncodingWindows1252 Encoding = "windows-1252"
)

// Detect guesses the encoding of data from its BOM and UTF-8 validity.
func Detect(data []byte) Encoding {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return EncodingUTF8
	case bytes.HasPrefix(data, bomUTF16LE):
		return EncodingUTF16LE
	case bytes.HasPrefix(data, bomUTF16BE):
		return EncodingUTF16BE
	case utf8.Valid(data):
		return EncodingUTF8
	default:
		return EncodingWindows1252
	}
}

func decoderFor(enc Encoding) encoding.Encoding {
	switch enc {
	case EncodingUTF16LE:
		return unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM)
	case EncodingUTF16BE:
		return unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM)
	case EncodingWindows1252:
		return charmap.Windows1252
	default:
		return unicode.UTF8BOM
	}
}

// Decode converts data to normalized UTF-8 text.
func Decode(data []byte) (string, Encoding, error) {
	enc := Detect(data)
	out, _, err := transform.Bytes(decoderFor(enc).NewDecoder(), data)
	if err != nil {
		return "", enc, fmt.Errorf("decoding %s transcript: %w", enc, err)
	}
	return normalize(string(out)), enc, nil
}

// Read decodes a transcript from r.
func Read(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxSize+1))
	if err != nil {
		return "", fmt.Errorf("reading transcript: %w", err)
	}
	if len(data) > MaxSize {
		return "", fmt.Errorf("transcript exceeds %d bytes", MaxSize)
	}
	text, _, err := Decode(data)
	if err != nil || !IsVTT(text) {
		return text, err
	}
	cues, err := ParseVTT(text)
	if err != nil {
		return "", fmt.Errorf("parsing WebVTT transcript: %w", err)
	}
	return FlattenVTT(cues), nil
}

// ReadFile decodes the transcript at path. A path of "-" reads stdin.
func ReadFile(path string) (string, error) {
	if path == "-" {
		return Read(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening transcript: %w", err)
	}
	defer f.Close()
	return Read(f)
}

func normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.TrimSpace(s)
}
