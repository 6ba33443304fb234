// Package chainspec models chain specification documents and the operations
// the builder performs on them: creating specs from a runtime blob, updating
// embedded code, converting plain genesis to raw storage form, and managing
// code substitutes.
package chainspec

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var (
	// ErrAlreadyRaw reports a raw-conversion attempt on a document whose
	// genesis is already in raw form.
	ErrAlreadyRaw = errors.New("chain spec genesis is already in raw form")

	// ErrDocumentParse reports a document that is not a valid chain spec.
	ErrDocumentParse = errors.New("invalid chain spec document")

	// ErrMissingFile reports an input file that could not be read.
	ErrMissingFile = errors.New("missing input file")

	// ErrGenesisBuild reports a runtime genesis build that failed.
	ErrGenesisBuild = errors.New("genesis state build failed")
)

// CodeStorageKey is the well-known top-trie key of the runtime code, the
// hex form of ":code".
const CodeStorageKey = "0x3a636f6465"

// ChainType classifies how a chain is meant to be used.
type ChainType string

const (
	Development ChainType = "Development"
	Local       ChainType = "Local"
	Live        ChainType = "Live"
)

func (t ChainType) valid() bool {
	switch t {
	case Development, Local, Live:
		return true
	}
	return false
}

// ChainTypeFromString parses the lowercase CLI spelling of a chain type.
func ChainTypeFromString(s string) (ChainType, error) {
	switch s {
	case "dev", "development":
		return Development, nil
	case "local":
		return Local, nil
	case "live":
		return Live, nil
	default:
		return "", fmt.Errorf("unknown chain type %q (want dev, local or live)", s)
	}
}

// ChainSpec is a chain specification document. Field order and naming match
// the on-disk JSON form, including the snake_case parachain extensions.
type ChainSpec struct {
	Name               string          `json:"name"`
	ID                 string          `json:"id"`
	ChainType          ChainType       `json:"chainType"`
	BootNodes          []string        `json:"bootNodes"`
	TelemetryEndpoints json.RawMessage `json:"telemetryEndpoints"`
	ProtocolID         *string         `json:"protocolId"`
	ForkID             string          `json:"forkId,omitempty"`
	Properties         json.RawMessage `json:"properties,omitempty"`
	RelayChain         string          `json:"relay_chain,omitempty"`
	ParaID             *uint32         `json:"para_id,omitempty"`
	CodeSubstitutes    CodeSubstitutes `json:"codeSubstitutes"`
	Genesis            Genesis         `json:"genesis"`
}

// Genesis holds exactly one of the two genesis forms: a runtime-built plain
// form or pre-built raw storage.
type Genesis struct {
	RuntimeGenesis *RuntimeGenesis
	Raw            *RawGenesis
}

// IsRaw reports whether the genesis is in raw storage form.
func (g *Genesis) IsRaw() bool {
	return g.Raw != nil
}

type genesisJSON struct {
	RuntimeGenesis *RuntimeGenesis `json:"runtimeGenesis,omitempty"`
	Raw            *RawGenesis     `json:"raw,omitempty"`
}

func (g Genesis) MarshalJSON() ([]byte, error) {
	if (g.RuntimeGenesis == nil) == (g.Raw == nil) {
		return nil, fmt.Errorf("%w: genesis must hold exactly one of runtimeGenesis and raw", ErrDocumentParse)
	}
	return json.Marshal(genesisJSON{RuntimeGenesis: g.RuntimeGenesis, Raw: g.Raw})
}

func (g *Genesis) UnmarshalJSON(raw []byte) error {
	var v genesisJSON
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	if (v.RuntimeGenesis == nil) == (v.Raw == nil) {
		return fmt.Errorf("%w: genesis must hold exactly one of runtimeGenesis and raw", ErrDocumentParse)
	}
	if v.RuntimeGenesis != nil {
		if err := v.RuntimeGenesis.validate(); err != nil {
			return err
		}
	}
	g.RuntimeGenesis = v.RuntimeGenesis
	g.Raw = v.Raw
	return nil
}

// RuntimeGenesis is the plain genesis form: the runtime code plus exactly one
// of a partial config patch or a full config.
type RuntimeGenesis struct {
	Code   hexutil.Bytes   `json:"code"`
	Patch  json.RawMessage `json:"patch,omitempty"`
	Config json.RawMessage `json:"config,omitempty"`
}

func (rg *RuntimeGenesis) validate() error {
	if (rg.Patch == nil) == (rg.Config == nil) {
		return fmt.Errorf("%w: runtimeGenesis must hold exactly one of patch and config", ErrDocumentParse)
	}
	return nil
}

// RawGenesis is genesis storage in its final key/value form, hex-encoded.
type RawGenesis struct {
	Top             map[string]hexutil.Bytes            `json:"top"`
	ChildrenDefault map[string]map[string]hexutil.Bytes `json:"childrenDefault"`
}

// CodeSubstitutes maps block numbers to replacement runtime code. The JSON
// form keys by decimal block-number strings and orders them numerically.
type CodeSubstitutes map[idx.Block]hexutil.Bytes

func (c CodeSubstitutes) MarshalJSON() ([]byte, error) {
	blocks := make([]idx.Block, 0, len(c))
	for b := range c {
		blocks = append(blocks, b)
	}
	sort.Slice(blocks, func(i, j int) bool { return blocks[i] < blocks[j] })

	buf := []byte{'{'}
	for i, b := range blocks {
		if i > 0 {
			buf = append(buf, ',')
		}
		key, err := json.Marshal(strconv.FormatUint(uint64(b), 10))
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(c[b])
		if err != nil {
			return nil, err
		}
		buf = append(buf, key...)
		buf = append(buf, ':')
		buf = append(buf, val...)
	}
	return append(buf, '}'), nil
}

func (c *CodeSubstitutes) UnmarshalJSON(raw []byte) error {
	var m map[string]hexutil.Bytes
	if err := json.Unmarshal(raw, &m); err != nil {
		return err
	}
	out := make(CodeSubstitutes, len(m))
	for k, v := range m {
		b, err := strconv.ParseUint(k, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: code substitute key %q is not a block number", ErrDocumentParse, k)
		}
		out[idx.Block(b)] = v
	}
	*c = out
	return nil
}

// Parse decodes and validates a chain spec document.
func Parse(raw []byte) (*ChainSpec, error) {
	s := new(ChainSpec)
	if err := json.Unmarshal(raw, s); err != nil {
		if errors.Is(err, ErrDocumentParse) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrDocumentParse, err)
	}
	if !s.ChainType.valid() {
		return nil, fmt.Errorf("%w: unknown chainType %q", ErrDocumentParse, s.ChainType)
	}
	return s, nil
}

// JSON renders the document in its pretty-printed on-disk form.
func (s *ChainSpec) JSON() ([]byte, error) {
	if s.BootNodes == nil {
		s.BootNodes = []string{}
	}
	out, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}
