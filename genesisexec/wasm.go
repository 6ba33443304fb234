package genesisexec

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sirupsen/logrus"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/rony4d/go-chainspec-builder/utils/scale"
)

// Runtime entry points of the genesis-builder API.
const (
	entryPresetNames = "GenesisBuilder_preset_names"
	entryGetPreset   = "GenesisBuilder_get_preset"
	entryBuildState  = "GenesisBuilder_build_state"
)

// WasmExecutor runs genesis-builder calls inside a wasm runtime blob. Every
// call gets a fresh instance and a fresh storage overlay; host functions the
// blob imports but genesis building never reaches are stubbed to zeros.
type WasmExecutor struct {
	// Log receives the runtime's ext_logging lines. Nil uses the standard
	// logger.
	Log *logrus.Logger
}

var _ Executor = (*WasmExecutor)(nil)

func (e *WasmExecutor) logger() *logrus.Logger {
	if e.Log != nil {
		return e.Log
	}
	return logrus.StandardLogger()
}

func (e *WasmExecutor) PresetNames(code []byte) ([]string, error) {
	out, _, err := e.call(code, entryPresetNames, nil)
	if err != nil {
		return nil, err
	}
	return decodePresetNames(out)
}

func (e *WasmExecutor) GetPreset(code []byte, name string) (json.RawMessage, error) {
	out, _, err := e.call(code, entryGetPreset, encodePresetID(name))
	if err != nil {
		return nil, err
	}
	return decodePresetJSON(out, name)
}

func (e *WasmExecutor) BuildState(code []byte, config json.RawMessage) (Storage, error) {
	arg := scale.NewWriter()
	arg.Bytes(config)
	out, ov, err := e.call(code, entryBuildState, arg.Output())
	if err != nil {
		return Storage{}, err
	}
	if err := decodeBuildResult(out); err != nil {
		return Storage{}, err
	}
	return ov.storage, nil
}

// call instantiates the blob, invokes entry(arg) and returns the entry's
// result bytes together with the storage overlay the call populated.
func (e *WasmExecutor) call(code []byte, entry string, arg []byte) ([]byte, *overlay, error) {
	ctx := context.Background()

	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)

	compiled, err := r.CompileModule(ctx, code)
	if err != nil {
		return nil, nil, fmt.Errorf("compile runtime blob: %w", err)
	}

	host := &hostState{ov: newOverlay(), log: e.logger()}
	if err := instantiateHost(ctx, r, compiled, host); err != nil {
		return nil, nil, err
	}

	mod, err := r.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().
		WithName("runtime").
		WithStartFunctions())
	if err != nil {
		return nil, nil, fmt.Errorf("instantiate runtime blob: %w", err)
	}

	fn := mod.ExportedFunction(entry)
	if fn == nil {
		return nil, nil, fmt.Errorf("runtime blob does not export %s", entry)
	}

	ptr := host.alloc(mod, uint32(len(arg)))
	if len(arg) > 0 && !mod.Memory().Write(ptr, arg) {
		return nil, nil, fmt.Errorf("write %s argument out of memory bounds", entry)
	}

	res, err := fn.Call(ctx, uint64(ptr), uint64(len(arg)))
	if err != nil {
		return nil, nil, fmt.Errorf("call %s: %w", entry, err)
	}
	if len(res) != 1 {
		return nil, nil, fmt.Errorf("call %s: expected a single result span", entry)
	}
	out, ok := readSpan(mod, res[0])
	if !ok {
		return nil, nil, fmt.Errorf("call %s: result span out of memory bounds", entry)
	}
	return out, host.ov, nil
}

// ----------------------------------------------------------------------------
// Host side
// ----------------------------------------------------------------------------

// hostState is the per-call state the host functions close over: the storage
// overlay and a bump allocator serving both the guest's mallocs and the
// host's own result buffers.
type hostState struct {
	ov   *overlay
	log  *logrus.Logger
	heap uint32
}

const wasmPageSize = 64 * 1024

func (h *hostState) alloc(mod api.Module, size uint32) uint32 {
	if h.heap == 0 {
		if g := mod.ExportedGlobal("__heap_base"); g != nil {
			h.heap = uint32(g.Get())
		} else {
			h.heap = mod.Memory().Size()
		}
	}
	size = (size + 7) &^ 7
	ptr := h.heap
	h.heap += size
	if h.heap > mod.Memory().Size() {
		over := h.heap - mod.Memory().Size()
		mod.Memory().Grow((over + wasmPageSize - 1) / wasmPageSize)
	}
	return ptr
}

func readSpan(mod api.Module, span uint64) ([]byte, bool) {
	ptr, size := uint32(span), uint32(span>>32)
	view, ok := mod.Memory().Read(ptr, size)
	if !ok {
		return nil, false
	}
	return append([]byte(nil), view...), true
}

func (h *hostState) writeSpan(mod api.Module, data []byte) uint64 {
	ptr := h.alloc(mod, uint32(len(data)))
	mod.Memory().Write(ptr, data)
	return uint64(ptr) | uint64(len(data))<<32
}

func (h *hostState) writePtr(mod api.Module, data []byte) uint32 {
	ptr := h.alloc(mod, uint32(len(data)))
	mod.Memory().Write(ptr, data)
	return ptr
}

// mustSpan reads an argument span, panicking out of the call on a bad
// pointer. wazero converts the panic into an error from Call.
func mustSpan(mod api.Module, span uint64) []byte {
	b, ok := readSpan(mod, span)
	if !ok {
		panic(fmt.Errorf("host argument span out of memory bounds"))
	}
	return b
}

func encodeOptionBytes(v []byte, present bool) []byte {
	w := scale.NewWriter()
	w.Option(present)
	if present {
		w.Bytes(v)
	}
	return w.Output()
}

// instantiateHost builds the "env" module backing the blob's imports. Known
// host functions get real implementations over hostState; everything else is
// stubbed with a matching signature returning zeros, so blobs importing hosts
// genesis building never calls still instantiate.
func instantiateHost(ctx context.Context, r wazero.Runtime, compiled wazero.CompiledModule, h *hostState) error {
	builder := r.NewHostModuleBuilder("env")
	seen := make(map[string]bool)

	for _, def := range compiled.ImportedFunctions() {
		moduleName, name, isImport := def.Import()
		if !isImport || moduleName != "env" || seen[name] {
			continue
		}
		seen[name] = true

		impl := h.hostFunc(name)
		if impl == nil {
			results := def.ResultTypes()
			impl = func(_ context.Context, _ api.Module, stack []uint64) {
				for i := range results {
					stack[i] = 0
				}
			}
		}
		builder.NewFunctionBuilder().
			WithGoModuleFunction(api.GoModuleFunc(impl), def.ParamTypes(), def.ResultTypes()).
			Export(name)
	}

	if _, err := builder.Instantiate(ctx); err != nil {
		return fmt.Errorf("instantiate host module: %w", err)
	}
	return nil
}

// hostFunc returns the implementation of a known host import, or nil.
func (h *hostState) hostFunc(name string) api.GoModuleFunc {
	switch name {
	case "ext_allocator_malloc_version_1":
		return func(_ context.Context, mod api.Module, stack []uint64) {
			stack[0] = uint64(h.alloc(mod, uint32(stack[0])))
		}
	case "ext_allocator_free_version_1":
		return func(_ context.Context, _ api.Module, _ []uint64) {}

	case "ext_storage_set_version_1":
		return func(_ context.Context, mod api.Module, stack []uint64) {
			h.ov.set(mustSpan(mod, stack[0]), mustSpan(mod, stack[1]))
		}
	case "ext_storage_get_version_1":
		return func(_ context.Context, mod api.Module, stack []uint64) {
			v, ok := h.ov.get(mustSpan(mod, stack[0]))
			stack[0] = h.writeSpan(mod, encodeOptionBytes(v, ok))
		}
	case "ext_storage_read_version_1":
		return func(_ context.Context, mod api.Module, stack []uint64) {
			v, ok := h.ov.get(mustSpan(mod, stack[0]))
			outPtr, outLen := uint32(stack[1]), uint32(stack[1]>>32)
			offset := uint32(stack[2])
			if !ok || offset > uint32(len(v)) {
				stack[0] = h.writeSpan(mod, []byte{0x00})
				return
			}
			rest := v[offset:]
			n := uint32(len(rest))
			if n > outLen {
				n = outLen
			}
			mod.Memory().Write(outPtr, rest[:n])
			w := scale.NewWriter()
			w.Option(true)
			var le [4]byte
			binary.LittleEndian.PutUint32(le[:], uint32(len(rest)))
			w.Raw(le[:])
			stack[0] = h.writeSpan(mod, w.Output())
		}
	case "ext_storage_clear_version_1":
		return func(_ context.Context, mod api.Module, stack []uint64) {
			h.ov.clear(mustSpan(mod, stack[0]))
		}
	case "ext_storage_exists_version_1":
		return func(_ context.Context, mod api.Module, stack []uint64) {
			if h.ov.exists(mustSpan(mod, stack[0])) {
				stack[0] = 1
			} else {
				stack[0] = 0
			}
		}
	case "ext_storage_clear_prefix_version_1":
		return func(_ context.Context, mod api.Module, stack []uint64) {
			h.ov.clearPrefix(mustSpan(mod, stack[0]))
		}
	case "ext_storage_clear_prefix_version_2":
		return func(_ context.Context, mod api.Module, stack []uint64) {
			removed := h.ov.clearPrefix(mustSpan(mod, stack[0]))
			// KillStorageResult::AllRemoved(n); overlays have no limit
			w := scale.NewWriter()
			w.Byte(0x00)
			var le [4]byte
			binary.LittleEndian.PutUint32(le[:], removed)
			w.Raw(le[:])
			stack[0] = h.writeSpan(mod, w.Output())
		}
	case "ext_storage_append_version_1":
		return func(_ context.Context, mod api.Module, stack []uint64) {
			h.ov.appendItem(mustSpan(mod, stack[0]), mustSpan(mod, stack[1]))
		}
	case "ext_storage_next_key_version_1":
		return func(_ context.Context, mod api.Module, stack []uint64) {
			next := h.ov.nextKey(mustSpan(mod, stack[0]))
			stack[0] = h.writeSpan(mod, encodeOptionBytes(next, next != nil))
		}
	case "ext_storage_root_version_1":
		return func(_ context.Context, mod api.Module, stack []uint64) {
			stack[0] = h.writeSpan(mod, h.ov.root().Bytes())
		}
	case "ext_storage_root_version_2":
		return func(_ context.Context, mod api.Module, stack []uint64) {
			stack[0] = h.writeSpan(mod, h.ov.root().Bytes())
		}

	case "ext_default_child_storage_set_version_1":
		return func(_ context.Context, mod api.Module, stack []uint64) {
			h.ov.childSet(mustSpan(mod, stack[0]), mustSpan(mod, stack[1]), mustSpan(mod, stack[2]))
		}
	case "ext_default_child_storage_get_version_1":
		return func(_ context.Context, mod api.Module, stack []uint64) {
			v, ok := h.ov.childGet(mustSpan(mod, stack[0]), mustSpan(mod, stack[1]))
			stack[0] = h.writeSpan(mod, encodeOptionBytes(v, ok))
		}
	case "ext_default_child_storage_clear_version_1":
		return func(_ context.Context, mod api.Module, stack []uint64) {
			h.ov.childClear(mustSpan(mod, stack[0]), mustSpan(mod, stack[1]))
		}

	case "ext_hashing_twox_64_version_1":
		return h.hashFunc(twox64)
	case "ext_hashing_twox_128_version_1":
		return h.hashFunc(twox128)
	case "ext_hashing_twox_256_version_1":
		return h.hashFunc(twox256)
	case "ext_hashing_blake2_128_version_1":
		return h.hashFunc(blake2b128)
	case "ext_hashing_blake2_256_version_1":
		return h.hashFunc(blake2b256)
	case "ext_hashing_keccak_256_version_1":
		return h.hashFunc(func(data []byte) []byte { return crypto.Keccak256(data) })

	case "ext_logging_log_version_1":
		return func(_ context.Context, mod api.Module, stack []uint64) {
			level := uint32(stack[0])
			target := string(mustSpan(mod, stack[1]))
			message := string(mustSpan(mod, stack[2]))
			h.log.WithField("target", target).Log(runtimeLogLevel(level), message)
		}
	case "ext_logging_max_level_version_1":
		return func(_ context.Context, _ api.Module, stack []uint64) {
			stack[0] = 4 // trace; filtering happens on the host logger
		}

	case "ext_misc_print_utf8_version_1":
		return func(_ context.Context, mod api.Module, stack []uint64) {
			h.log.Info(string(mustSpan(mod, stack[0])))
		}
	case "ext_misc_print_hex_version_1":
		return func(_ context.Context, mod api.Module, stack []uint64) {
			h.log.Info(hexutil.Encode(mustSpan(mod, stack[0])))
		}
	case "ext_misc_print_num_version_1":
		return func(_ context.Context, _ api.Module, stack []uint64) {
			h.log.Info(stack[0])
		}
	}
	return nil
}

func (h *hostState) hashFunc(hash func([]byte) []byte) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		stack[0] = uint64(h.writePtr(mod, hash(mustSpan(mod, stack[0]))))
	}
}

func runtimeLogLevel(level uint32) logrus.Level {
	switch level {
	case 0:
		return logrus.ErrorLevel
	case 1:
		return logrus.WarnLevel
	case 2:
		return logrus.InfoLevel
	case 3:
		return logrus.DebugLevel
	default:
		return logrus.TraceLevel
	}
}
