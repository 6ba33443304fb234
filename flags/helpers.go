package flags

import (
	"gopkg.in/urfave/cli.v1"
)

// CommonFlags returns the base set of CLI flags shared across commands.

func CommonFlags() []cli.Flag {
	return []cli.Flag{
		ChainSpecPathFlag,
		cli.StringFlag{
			Name:  "log.format",
			Usage: "Log output format (text|json)",
			Value: "text",
		},
		cli.IntFlag{
			Name:  "log.verbosity",
			Usage: "Logging verbosity (0=fatal,1=error,2=warn,3=info,4=debug,5=trace)",
			Value: 3,
		},
	}
}

var (
	ChainSpecPathFlag = cli.StringFlag{
		Name:  "chain-spec-path, c",
		Usage: "Path where the chain spec file is written (or read from, for edit commands)",
		Value: "./chain_spec.json",
	}
	RuntimeFlag = cli.StringFlag{
		Name:  "runtime-wasm-path, r",
		Usage: "Path to the runtime wasm blob",
	}
	ChainNameFlag = cli.StringFlag{
		Name:  "chain-name, n",
		Usage: "Human readable chain name",
		Value: "Custom",
	}
	ChainIDFlag = cli.StringFlag{
		Name:  "chain-id, i",
		Usage: "Chain identifier",
		Value: "custom",
	}
	ChainTypeFlag = cli.StringFlag{
		Name:  "chain-type, t",
		Usage: "Type of the chain (dev|local|live)",
		Value: "dev",
	}
	ParaIDFlag = cli.UintFlag{
		Name:  "para-id",
		Usage: "Parachain id to include in the spec",
	}
	RelayChainFlag = cli.StringFlag{
		Name:  "relay-chain",
		Usage: "Relay chain the parachain connects to",
	}
	RawStorageFlag = cli.BoolFlag{
		Name:  "raw-storage, s",
		Usage: "Convert the genesis to raw storage form while creating",
	}
	DefaultConfigFlag = cli.BoolFlag{
		Name:  "default",
		Usage: "Use the runtime's default genesis config",
	}
	NamedPresetFlag = cli.StringFlag{
		Name:  "named-preset, p",
		Usage: "Use a named genesis config preset shipped by the runtime",
	}
	PatchPathFlag = cli.StringFlag{
		Name:  "patch-path",
		Usage: "Path to a JSON file patching the default genesis config",
	}
	FullPathFlag = cli.StringFlag{
		Name:  "full-path",
		Usage: "Path to a JSON file with the complete genesis config",
	}
	BlockHeightFlag = cli.Uint64Flag{
		Name:  "block-height",
		Usage: "Block number at which the code substitute takes effect",
	}
)
