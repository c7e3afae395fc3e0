// Package codec centralizes record and manifest encoding.
//
// All persisted artifacts (version record files, version metadata, the
// manifest, the exact-fingerprint dump) are JSON today, but every writer
// goes through a Codec so the encoder can be swapped in one place.
package codec

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	default:
		return nil, false
	}
}

// Default is the codec used when none is configured.
var Default Codec = GoJSON{}
