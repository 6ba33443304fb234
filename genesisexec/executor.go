// Package genesisexec drives a runtime blob's genesis-builder entry points:
// listing the presets a runtime ships, fetching a preset's JSON, and building
// the genesis storage for a JSON config. The chainspec package consumes this
// through the Executor interface; the wasm-backed implementation lives in
// this package too.
package genesisexec

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rony4d/go-chainspec-builder/utils/scale"
)

// ErrUnknownPreset reports a preset name the runtime does not ship.
var ErrUnknownPreset = errors.New("unknown genesis config preset")

// Storage is genesis storage produced by a runtime: top-trie key/value pairs
// plus per-child-trie maps keyed by the child storage key.
type Storage struct {
	Top      map[string][]byte
	Children map[string]map[string][]byte
}

// NewStorage returns an empty Storage with both maps allocated.
func NewStorage() Storage {
	return Storage{
		Top:      make(map[string][]byte),
		Children: make(map[string]map[string][]byte),
	}
}

// Executor runs genesis-builder entry points of a runtime blob.
type Executor interface {
	// PresetNames lists the named presets the runtime ships.
	PresetNames(code []byte) ([]string, error)

	// GetPreset fetches the JSON genesis config for the named preset, or
	// the runtime's default config when name is empty. An unknown name
	// yields ErrUnknownPreset.
	GetPreset(code []byte, name string) (json.RawMessage, error)

	// BuildState runs the runtime's genesis build over the given full JSON
	// config and returns the storage it wrote.
	BuildState(code []byte, config json.RawMessage) (Storage, error)
}

// ----------------------------------------------------------------------------
// Wire values of the genesis-builder entry points
// ----------------------------------------------------------------------------

// encodePresetID encodes the Option<&str> argument of the get-preset call.
func encodePresetID(name string) []byte {
	w := scale.NewWriter()
	if name == "" {
		w.Option(false)
	} else {
		w.Option(true)
		w.String(name)
	}
	return w.Output()
}

// decodePresetJSON decodes the Option<Vec<u8>> result of the get-preset call.
// An absent option means the runtime does not know the preset.
func decodePresetJSON(raw []byte, name string) (json.RawMessage, error) {
	var blob []byte
	err := scale.Unmarshal(raw, func(r *scale.Reader) error {
		if r.Option() {
			blob = r.Bytes()
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("decode genesis preset result: %w", err)
	}
	if blob == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	return json.RawMessage(blob), nil
}

// decodePresetNames decodes the Vec<String> result of the preset-names call.
func decodePresetNames(raw []byte) ([]string, error) {
	var names []string
	err := scale.Unmarshal(raw, func(r *scale.Reader) error {
		count := r.CompactUint()
		if count > scale.MaxAlloc {
			return scale.ErrTooLargeAlloc
		}
		names = make([]string, 0, count)
		for i := uint64(0); i < count; i++ {
			names = append(names, r.String())
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("decode genesis preset names: %w", err)
	}
	return names, nil
}

// decodeBuildResult decodes the Result<(), String> returned by the
// state-build call, turning an Err into a Go error.
func decodeBuildResult(raw []byte) error {
	var runtimeErr string
	var failed bool
	err := scale.Unmarshal(raw, func(r *scale.Reader) error {
		switch r.Byte() {
		case 0x00:
		case 0x01:
			failed = true
			runtimeErr = r.String()
		default:
			return scale.ErrMalformedEncoding
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("decode genesis build result: %w", err)
	}
	if failed {
		return fmt.Errorf("genesis build rejected by runtime: %s", runtimeErr)
	}
	return nil
}
