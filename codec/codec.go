// Package codec centralizes encoding of persisted manifests and HTTP payloads.
//
// Cached linearization manifests record the codec name, so changing the
// default codec never breaks decoding of blobs written by an older build.
package codec

import (
	"fmt"
	"io"
)

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// Default is the codec used for newly written manifests and CLI output.
var Default Codec = GoJSON{}

// ByName returns a built-in codec by the name stored in a manifest.
func ByName(name string) (Codec, bool) {
	switch name {
	case JSON{}.Name():
		return JSON{}, true
	case GoJSON{}.Name():
		return GoJSON{}, true
	default:
		return nil, false
	}
}

// WriteLine encodes v with c and writes it as one newline-terminated line.
// A nil codec means Default.
func WriteLine(w io.Writer, c Codec, v any) error {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		return fmt.Errorf("codec %s: %w", c.Name(), err)
	}
	_, err = w.Write(append(b, '\n'))
	return err
}

// MustMarshal encodes v or panics. It is meant for values whose encoding
// cannot fail, such as configuration structs hashed into cache keys.
func MustMarshal(c Codec, v any) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("codec %s marshal failed: %w", c.Name(), err))
	}
	return b
}
