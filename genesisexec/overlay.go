package genesisexec

import (
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/blake2b"

	"github.com/rony4d/go-chainspec-builder/utils/scale"
)

// overlay collects the storage writes a runtime makes while building genesis
// state. Keys are kept as strings so plain map lookups work on raw bytes.
type overlay struct {
	storage Storage
}

func newOverlay() *overlay {
	return &overlay{storage: NewStorage()}
}

func (o *overlay) set(key, value []byte) {
	o.storage.Top[string(key)] = append([]byte(nil), value...)
}

func (o *overlay) get(key []byte) ([]byte, bool) {
	v, ok := o.storage.Top[string(key)]
	return v, ok
}

func (o *overlay) clear(key []byte) {
	delete(o.storage.Top, string(key))
}

func (o *overlay) exists(key []byte) bool {
	_, ok := o.storage.Top[string(key)]
	return ok
}

// clearPrefix removes every key under prefix and reports how many were
// removed.
func (o *overlay) clearPrefix(prefix []byte) uint32 {
	var removed uint32
	p := string(prefix)
	for k := range o.storage.Top {
		if strings.HasPrefix(k, p) {
			delete(o.storage.Top, k)
			removed++
		}
	}
	return removed
}

// nextKey returns the smallest stored key strictly greater than key in byte
// order, or nil when none exists.
func (o *overlay) nextKey(key []byte) []byte {
	var next string
	found := false
	for k := range o.storage.Top {
		if k > string(key) && (!found || k < next) {
			next = k
			found = true
		}
	}
	if !found {
		return nil
	}
	return []byte(next)
}

// appendItem appends one SCALE-encoded item to the Vec stored under key,
// maintaining the compact item-count prefix. A missing or malformed current
// value starts a fresh single-item vector, matching the host's replace-on-
// corruption behavior.
func (o *overlay) appendItem(key, item []byte) {
	current, ok := o.storage.Top[string(key)]
	if ok {
		var count uint64
		var tail []byte
		err := scale.Unmarshal(current, func(r *scale.Reader) error {
			count = r.CompactUint()
			tail = r.Raw(len(current) - prefixLen(count))
			return nil
		})
		if err == nil {
			w := scale.NewWriter()
			w.CompactUint(count + 1)
			w.Raw(tail)
			w.Raw(item)
			o.storage.Top[string(key)] = w.Output()
			return
		}
	}
	w := scale.NewWriter()
	w.CompactUint(1)
	w.Raw(item)
	o.storage.Top[string(key)] = w.Output()
}

func prefixLen(count uint64) int {
	w := scale.NewWriter()
	w.CompactUint(count)
	return len(w.Output())
}

func (o *overlay) childSet(child, key, value []byte) {
	m, ok := o.storage.Children[string(child)]
	if !ok {
		m = make(map[string][]byte)
		o.storage.Children[string(child)] = m
	}
	m[string(key)] = append([]byte(nil), value...)
}

func (o *overlay) childGet(child, key []byte) ([]byte, bool) {
	m, ok := o.storage.Children[string(child)]
	if !ok {
		return nil, false
	}
	v, ok := m[string(key)]
	return v, ok
}

func (o *overlay) childClear(child, key []byte) {
	if m, ok := o.storage.Children[string(child)]; ok {
		delete(m, string(key))
	}
}

// root digests the overlay's top entries in sorted key order. Genesis builds
// only need a deterministic commitment over the written state, not a real
// trie root; nothing downstream interprets the value.
func (o *overlay) root() common.Hash {
	keys := make([]string, 0, len(o.storage.Top))
	for k := range o.storage.Top {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h, _ := blake2b.New256(nil)
	for _, k := range keys {
		w := scale.NewWriter()
		w.Bytes([]byte(k))
		w.Bytes(o.storage.Top[k])
		h.Write(w.Output())
	}
	return common.BytesToHash(h.Sum(nil))
}
