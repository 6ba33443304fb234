package metadata

import (
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/rlp"
)

// Snapshots are the persisted form of Prefixed metadata used by introspecting
// resolvers and fixtures. RLP keeps the container deterministic and free of
// any dependence on the runtime's own codec.

var errBadMagic = errors.New("metadata snapshot: bad magic number")

// Encode serializes a Prefixed metadata tree into snapshot form.
func Encode(p *Prefixed) ([]byte, error) {
	return rlp.EncodeToBytes(p)
}

// Decode parses a snapshot, verifying the magic prefix. The version tag is
// deliberately not validated here: unsupported versions must surface from
// inspection (with ErrUnsupportedVersion), not from loading.
func Decode(raw []byte) (*Prefixed, error) {
	p := new(Prefixed)
	if err := rlp.DecodeBytes(raw, p); err != nil {
		return nil, fmt.Errorf("metadata snapshot: %w", err)
	}
	if p.Magic != MagicNumber {
		return nil, errBadMagic
	}
	return p, nil
}

// Source fetches runtime metadata for a chain identity. It is the boundary
// to however metadata is actually obtained; resolvers only see this.
type Source interface {
	FetchRuntimeMetadata(chainID string) (*Prefixed, error)
}

// FileSource serves every chain identity from one snapshot file.
type FileSource struct {
	Path string
}

func (s FileSource) FetchRuntimeMetadata(chainID string) (*Prefixed, error) {
	raw, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read metadata snapshot: %w", err)
	}
	return Decode(raw)
}
