package launcher

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/Fantom-foundation/lachesis-base/inter/idx"
	"github.com/sirupsen/logrus"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/rony4d/go-chainspec-builder/chainspec"
	"github.com/rony4d/go-chainspec-builder/flags"
	"github.com/rony4d/go-chainspec-builder/genesisexec"
)

// Builder wires the chain-spec commands into a CLI app. The zero value runs
// runtimes with the wasm executor and prints to stdout; tests override Exec,
// RuntimeCode and Stdout to run hermetically.
type Builder struct {
	// Exec runs genesis-builder calls. Nil means the wasm executor.
	Exec genesisexec.Executor

	// RuntimeCode, when set, is used instead of reading the blob from the
	// runtime path flag.
	RuntimeCode []byte

	// Stdout receives command output. Nil means os.Stdout.
	Stdout io.Writer
}

// Launch runs the chain-spec builder CLI with the given arguments.
func Launch(args []string) error {
	return new(Builder).Launch(args)
}

func (b *Builder) Launch(args []string) error {
	return b.App().Run(args)
}

func (b *Builder) App() *cli.App {
	app := flags.NewApp()
	app.Flags = flags.CommonFlags()
	app.Before = setupLogging
	app.Commands = []cli.Command{
		{
			Name:  "create",
			Usage: "Create a new chain spec around a runtime blob",
			Flags: []cli.Flag{
				flags.RuntimeFlag,
				flags.ChainNameFlag,
				flags.ChainIDFlag,
				flags.ChainTypeFlag,
				flags.ParaIDFlag,
				flags.RelayChainFlag,
				flags.RawStorageFlag,
				flags.DefaultConfigFlag,
				flags.NamedPresetFlag,
				flags.PatchPathFlag,
				flags.FullPathFlag,
			},
			Action: b.createAction,
		},
		{
			Name:      "update-code",
			Usage:     "Replace the runtime code embedded in an existing chain spec",
			ArgsUsage: "[<chain-spec-path>] <runtime-wasm-path>",
			Flags:     []cli.Flag{flags.RuntimeFlag},
			Action:    b.updateCodeAction,
		},
		{
			Name:      "convert-to-raw",
			Usage:     "Convert a plain-genesis chain spec to raw storage form",
			ArgsUsage: "<chain-spec-path>",
			Action:    b.convertToRawAction,
		},
		{
			Name:      "add-code-substitute",
			Usage:     "Register replacement runtime code for a given block height",
			ArgsUsage: "[<chain-spec-path>] <runtime-wasm-path>",
			Flags:     []cli.Flag{flags.RuntimeFlag, flags.BlockHeightFlag},
			Action:    b.addCodeSubstituteAction,
		},
		{
			Name:   "list-presets",
			Usage:  "List the genesis config presets a runtime ships",
			Flags:  []cli.Flag{flags.RuntimeFlag},
			Action: b.listPresetsAction,
		},
		{
			Name:   "display-preset",
			Usage:  "Print a runtime's genesis config preset (default config when unnamed)",
			Flags:  []cli.Flag{flags.RuntimeFlag, flags.NamedPresetFlag},
			Action: b.displayPresetAction,
		},
	}
	return app
}

func (b *Builder) exec() genesisexec.Executor {
	if b.Exec != nil {
		return b.Exec
	}
	return &genesisexec.WasmExecutor{}
}

func (b *Builder) stdout() io.Writer {
	if b.Stdout != nil {
		return b.Stdout
	}
	return os.Stdout
}

// runtimeCode loads the runtime blob from the runtime path flag, unless the
// builder carries injected code.
func (b *Builder) runtimeCode(ctx *cli.Context) ([]byte, error) {
	path := ctx.String("runtime-wasm-path")
	if path == "" && ctx.NArg() > 0 {
		path = ctx.Args().First()
	}
	return b.runtimeCodeFrom(ctx, path)
}

func (b *Builder) runtimeCodeFrom(ctx *cli.Context, path string) ([]byte, error) {
	if b.RuntimeCode != nil {
		return b.RuntimeCode, nil
	}
	if path == "" {
		path = ctx.String("runtime-wasm-path")
	}
	if path == "" {
		return nil, fmt.Errorf("no runtime blob given (use --%s)", "runtime-wasm-path")
	}
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", chainspec.ErrMissingFile, err)
	}
	return code, nil
}

func specPath(ctx *cli.Context) string {
	return ctx.GlobalString("chain-spec-path")
}

// editPaths resolves the edit-command argument shape: an optional positional
// chain-spec input (defaulting to the -c output path) followed by an optional
// runtime blob path.
func editPaths(ctx *cli.Context) (specIn, runtimePath string) {
	specIn = specPath(ctx)
	switch ctx.NArg() {
	case 0:
	case 1:
		runtimePath = ctx.Args().Get(0)
	default:
		specIn = ctx.Args().Get(0)
		runtimePath = ctx.Args().Get(1)
	}
	return specIn, runtimePath
}

func (b *Builder) createAction(ctx *cli.Context) error {
	code, err := b.runtimeCode(ctx)
	if err != nil {
		return err
	}

	chainType, err := chainspec.ChainTypeFromString(ctx.String("chain-type"))
	if err != nil {
		return err
	}

	source, err := genesisSource(ctx)
	if err != nil {
		return err
	}

	params := chainspec.CreateParams{
		Name:       ctx.String("chain-name"),
		ID:         ctx.String("chain-id"),
		ChainType:  chainType,
		RelayChain: ctx.String("relay-chain"),
		Raw:        ctx.Bool("raw-storage"),
		Code:       code,
		Source:     source,
	}
	if ctx.IsSet("para-id") {
		id := uint32(ctx.Uint("para-id"))
		params.ParaID = &id
	}

	spec, err := chainspec.Create(b.exec(), params)
	if err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"name": spec.Name,
		"id":   spec.ID,
		"raw":  spec.Genesis.IsRaw(),
	}).Info("chain spec created")
	return spec.Save(specPath(ctx))
}

// genesisSource picks the genesis source from the mutually exclusive create
// flags. No flag at all means the runtime's default config.
func genesisSource(ctx *cli.Context) (chainspec.GenesisSource, error) {
	var sources []chainspec.GenesisSource
	if ctx.Bool("default") {
		sources = append(sources, chainspec.DefaultGenesis{})
	}
	if name := ctx.String("named-preset"); name != "" {
		sources = append(sources, chainspec.NamedPreset{Name: name})
	}
	if path := ctx.String("patch-path"); path != "" {
		patch, err := readJSONFile(path)
		if err != nil {
			return nil, err
		}
		sources = append(sources, chainspec.PatchGenesis{Patch: patch})
	}
	if path := ctx.String("full-path"); path != "" {
		config, err := readJSONFile(path)
		if err != nil {
			return nil, err
		}
		sources = append(sources, chainspec.FullGenesis{Config: config})
	}

	switch len(sources) {
	case 0:
		return chainspec.DefaultGenesis{}, nil
	case 1:
		return sources[0], nil
	default:
		return nil, fmt.Errorf("at most one of --default, --named-preset, --patch-path and --full-path may be given")
	}
}

func readJSONFile(path string) (json.RawMessage, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", chainspec.ErrMissingFile, err)
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("%w: %s is not valid JSON", chainspec.ErrDocumentParse, path)
	}
	return json.RawMessage(raw), nil
}

func (b *Builder) updateCodeAction(ctx *cli.Context) error {
	in, runtimePath := editPaths(ctx)
	code, err := b.runtimeCodeFrom(ctx, runtimePath)
	if err != nil {
		return err
	}
	spec, err := chainspec.Load(in)
	if err != nil {
		return err
	}
	spec.UpdateCode(code)
	return spec.Save(specPath(ctx))
}

func (b *Builder) convertToRawAction(ctx *cli.Context) error {
	in := specPath(ctx)
	if ctx.NArg() > 0 {
		in = ctx.Args().First()
	}
	spec, err := chainspec.Load(in)
	if err != nil {
		return err
	}
	if err := spec.ConvertToRaw(b.exec()); err != nil {
		return err
	}
	return spec.Save(specPath(ctx))
}

func (b *Builder) addCodeSubstituteAction(ctx *cli.Context) error {
	in, runtimePath := editPaths(ctx)
	code, err := b.runtimeCodeFrom(ctx, runtimePath)
	if err != nil {
		return err
	}
	spec, err := chainspec.Load(in)
	if err != nil {
		return err
	}
	spec.AddCodeSubstitute(idx.Block(ctx.Uint64("block-height")), code)
	return spec.Save(specPath(ctx))
}

func (b *Builder) listPresetsAction(ctx *cli.Context) error {
	code, err := b.runtimeCode(ctx)
	if err != nil {
		return err
	}
	names, err := b.exec().PresetNames(code)
	if err != nil {
		return err
	}
	if names == nil {
		names = []string{}
	}
	out, err := json.Marshal(struct {
		Presets []string `json:"presets"`
	}{Presets: names})
	if err != nil {
		return err
	}
	fmt.Fprintln(b.stdout(), string(out))
	return nil
}

func (b *Builder) displayPresetAction(ctx *cli.Context) error {
	code, err := b.runtimeCode(ctx)
	if err != nil {
		return err
	}
	preset, err := b.exec().GetPreset(code, ctx.String("named-preset"))
	if err != nil {
		return err
	}
	fmt.Fprintln(b.stdout(), string(preset))
	return nil
}
