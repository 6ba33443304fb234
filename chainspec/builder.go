package chainspec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/rony4d/go-chainspec-builder/genesisexec"
)

// Load reads and parses a chain spec document from disk.
func Load(path string) (*ChainSpec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingFile, err)
	}
	return Parse(raw)
}

// Save writes the document to disk in its pretty-printed form.
func (s *ChainSpec) Save(path string) error {
	out, err := s.JSON()
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o644)
}

// UpdateCode replaces the runtime code wherever the document's genesis form
// keeps it: the ":code" top-trie entry for raw genesis, the runtimeGenesis
// code field otherwise. Everything else is left untouched.
func (s *ChainSpec) UpdateCode(code []byte) {
	if s.Genesis.IsRaw() {
		if s.Genesis.Raw.Top == nil {
			s.Genesis.Raw.Top = make(map[string]hexutil.Bytes)
		}
		s.Genesis.Raw.Top[CodeStorageKey] = append(hexutil.Bytes(nil), code...)
		return
	}
	s.Genesis.RuntimeGenesis.Code = append(hexutil.Bytes(nil), code...)
}

// UpdateCodeInJSON applies UpdateCode to a serialized document, returning the
// re-rendered JSON. Fixtures and scripts use this to normalize specs that
// only differ in embedded code.
func UpdateCodeInJSON(doc, code []byte) ([]byte, error) {
	s, err := Parse(doc)
	if err != nil {
		return nil, err
	}
	s.UpdateCode(code)
	return s.JSON()
}

// AddCodeSubstitute records replacement runtime code taking effect at the
// given block, overwriting any substitute already registered for it.
func (s *ChainSpec) AddCodeSubstitute(block idx.Block, code []byte) {
	if s.CodeSubstitutes == nil {
		s.CodeSubstitutes = make(CodeSubstitutes)
	}
	s.CodeSubstitutes[block] = append(hexutil.Bytes(nil), code...)
}

// ConvertToRaw replaces a plain genesis with the raw storage the runtime
// builds for it. A patch config is first completed against the runtime's
// default config; a full config is used as-is. The runtime code ends up under
// the ":code" top-trie key. Converting an already-raw document fails with
// ErrAlreadyRaw.
func (s *ChainSpec) ConvertToRaw(exec genesisexec.Executor) error {
	if s.Genesis.IsRaw() {
		return ErrAlreadyRaw
	}
	rg := s.Genesis.RuntimeGenesis

	config := rg.Config
	if rg.Patch != nil {
		defaults, err := exec.GetPreset(rg.Code, "")
		if err != nil {
			return fmt.Errorf("%w: %v", ErrGenesisBuild, err)
		}
		config, err = mergeJSON(defaults, rg.Patch)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrGenesisBuild, err)
		}
	}

	storage, err := exec.BuildState(rg.Code, config)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGenesisBuild, err)
	}

	raw := &RawGenesis{
		Top:             make(map[string]hexutil.Bytes, len(storage.Top)+1),
		ChildrenDefault: make(map[string]map[string]hexutil.Bytes, len(storage.Children)),
	}
	for k, v := range storage.Top {
		raw.Top[hexutil.Encode([]byte(k))] = hexutil.Bytes(v)
	}
	raw.Top[CodeStorageKey] = rg.Code
	for child, entries := range storage.Children {
		m := make(map[string]hexutil.Bytes, len(entries))
		for k, v := range entries {
			m[hexutil.Encode([]byte(k))] = hexutil.Bytes(v)
		}
		raw.ChildrenDefault[hexutil.Encode([]byte(child))] = m
	}

	s.Genesis = Genesis{Raw: raw}
	return nil
}

// ----------------------------------------------------------------------------
// Creation
// ----------------------------------------------------------------------------

// GenesisSource selects where a new spec's genesis config comes from.
type GenesisSource interface {
	isGenesisSource()
}

// DefaultGenesis uses the runtime's default config, stored as a full config.
type DefaultGenesis struct{}

// NamedPreset uses one of the runtime's named presets, stored as a patch.
type NamedPreset struct {
	Name string
}

// PatchGenesis stores the given partial config as a patch.
type PatchGenesis struct {
	Patch json.RawMessage
}

// FullGenesis stores the given config as the complete genesis config.
type FullGenesis struct {
	Config json.RawMessage
}

func (DefaultGenesis) isGenesisSource() {}
func (NamedPreset) isGenesisSource()    {}
func (PatchGenesis) isGenesisSource()   {}
func (FullGenesis) isGenesisSource()    {}

// CreateParams describes a spec to create. Zero-valued Name, ID and ChainType
// fall back to "Custom", "custom" and Development.
type CreateParams struct {
	Name       string
	ID         string
	ChainType  ChainType
	ParaID     *uint32
	RelayChain string
	Raw        bool
	Code       []byte
	Source     GenesisSource
}

// Create builds a new chain spec document around the given runtime code. The
// executor resolves default and named-preset genesis sources, and performs
// the raw conversion when requested.
func Create(exec genesisexec.Executor, p CreateParams) (*ChainSpec, error) {
	name, id, chainType := p.Name, p.ID, p.ChainType
	if name == "" {
		name = "Custom"
	}
	if id == "" {
		id = "custom"
	}
	if chainType == "" {
		chainType = Development
	}
	if !chainType.valid() {
		return nil, fmt.Errorf("%w: unknown chainType %q", ErrDocumentParse, chainType)
	}

	rg := &RuntimeGenesis{Code: append(hexutil.Bytes(nil), p.Code...)}
	switch src := p.Source.(type) {
	case DefaultGenesis, nil:
		config, err := exec.GetPreset(p.Code, "")
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrGenesisBuild, err)
		}
		rg.Config = config
	case NamedPreset:
		patch, err := exec.GetPreset(p.Code, src.Name)
		if err != nil {
			return nil, err
		}
		rg.Patch = patch
	case PatchGenesis:
		rg.Patch = src.Patch
	case FullGenesis:
		rg.Config = src.Config
	default:
		return nil, fmt.Errorf("unknown genesis source %T", p.Source)
	}

	s := &ChainSpec{
		Name:            name,
		ID:              id,
		ChainType:       chainType,
		BootNodes:       []string{},
		RelayChain:      p.RelayChain,
		ParaID:          p.ParaID,
		CodeSubstitutes: make(CodeSubstitutes),
		Genesis:         Genesis{RuntimeGenesis: rg},
	}

	if p.Raw {
		if err := s.ConvertToRaw(exec); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// mergeJSON deep-merges patch over base. Objects merge recursively, a null
// in the patch removes the key, and every other patch value replaces the base
// value wholesale. The merge works on raw message fragments, never decoding
// leaf values: numbers past float64 precision (genesis balances routinely
// exceed 2^53) pass through byte-faithfully.
func mergeJSON(base, patch json.RawMessage) (json.RawMessage, error) {
	if !json.Valid(base) {
		return nil, fmt.Errorf("merge base: invalid JSON")
	}
	if !json.Valid(patch) {
		return nil, fmt.Errorf("merge patch: invalid JSON")
	}
	return mergeValues(base, patch), nil
}

func mergeValues(base, patch json.RawMessage) json.RawMessage {
	var bm, pm map[string]json.RawMessage
	if json.Unmarshal(base, &bm) != nil || json.Unmarshal(patch, &pm) != nil ||
		bm == nil || pm == nil {
		// either side is not an object: the patch value wins wholesale
		return patch
	}
	out := make(map[string]json.RawMessage, len(bm)+len(pm))
	for k, v := range bm {
		out[k] = v
	}
	for k, v := range pm {
		if string(bytes.TrimSpace(v)) == "null" {
			delete(out, k)
			continue
		}
		if cur, ok := out[k]; ok {
			out[k] = mergeValues(cur, v)
		} else {
			out[k] = v
		}
	}
	merged, err := json.Marshal(out)
	if err != nil {
		// values are validated fragments, so this cannot happen
		return patch
	}
	return merged
}
