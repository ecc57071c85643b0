package profile

import (
	"fmt"
	"io"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Load reads a profile file. Fields it leaves out keep their Default values.
func Load(path string) (*Description, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open profile: %w", err)
	}
	defer f.Close()

	d, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// Decode parses a TOML profile and validates it. Unknown keys are errors so
// that typos do not silently fall back to defaults.
func Decode(r io.Reader) (*Description, error) {
	d := Default()
	dec := toml.NewDecoder(r).DisallowUnknownFields()
	if err := dec.Decode(d); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// Encode writes d as TOML.
func Encode(w io.Writer, d *Description) error {
	enc := toml.NewEncoder(w)
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	return nil
}
