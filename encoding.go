package scopefs

import (
	"errors"
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
)

// ErrUnknownEncoding is returned when an encoding name passed to ReadFile
// or ReadCache.Get has no usable IANA charset registration.
var ErrUnknownEncoding = errors.New("unknown encoding")

// lookupEncoding resolves an IANA charset name. The empty name selects raw
// bytes and yields a nil encoding.
func lookupEncoding(name string) (encoding.Encoding, error) {
	if name == "" {
		return nil, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownEncoding)
	}
	return enc, nil
}

// decode converts data from the named charset to UTF-8. Raw bytes pass
// through untouched.
func decode(data []byte, name string) ([]byte, error) {
	enc, err := lookupEncoding(name)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return data, nil
	}
	return enc.NewDecoder().Bytes(data)
}
