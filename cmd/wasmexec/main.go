// Command wasmexec decodes, links, and invokes a single exported function
// from a WebAssembly 1.0 binary module, per the CLI surface in the
// embedding API: wasmexec <module.wasm> <export> [args...].
package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vertexdlt/wasmexec/internal/hostenv"
	"github.com/vertexdlt/wasmexec/vm"
	"github.com/vertexdlt/wasmexec/wasm"
)

var (
	gasLimit uint64
	verbose  bool
)

var rootCmd = &cobra.Command{
	Use:           "wasmexec <module.wasm> <export> [args...]",
	Short:         "Decode, link, and invoke an exported function of a WebAssembly module",
	Args:          cobra.MinimumNArgs(2),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().Uint64Var(&gasLimit, "gas", 0, "gas budget (0 = unbounded)")
	rootCmd.Flags().BoolVar(&verbose, "verbose", false, "log link/trap diagnostics to stderr")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCodeFor(err))
	}
}

func run(cmd *cobra.Command, args []string) error {
	if verbose {
		logger, _ := zap.NewDevelopment()
		vm.SetLogger(logger)
	}

	path, export, rawArgs := args[0], args[1], args[2:]

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	module, err := wasm.Decode(f)
	if err != nil {
		printError("malformed", err)
		return err
	}

	store := hostenv.New(nil)
	inst, err := vm.Instantiate(module, store.Imports())
	if err != nil {
		printError("link error", err)
		return err
	}
	if gasLimit > 0 {
		inst.SetGasPolicy(vm.SimpleGasPolicy{}, gasLimit)
	}

	callArgs, err := coerceArgs(inst, export, rawArgs)
	if err != nil {
		printError("malformed", err)
		return err
	}

	results, err := inst.Invoke(export, callArgs...)
	if err != nil {
		var trapErr *vm.TrapError
		if errors.As(err, &trapErr) {
			printError("trap", err)
		} else {
			printError("link error", err)
		}
		return err
	}

	for _, r := range results {
		fmt.Println(r)
	}
	return nil
}

// coerceArgs parses rawArgs as decimal integers or floats, according to the
// value type the export's declared signature names at each position.
func coerceArgs(inst *vm.Instance, export string, rawArgs []string) ([]vm.Value, error) {
	exp, ok := inst.Module.Exports[export]
	if !ok {
		return nil, fmt.Errorf("export not found: %s", export)
	}
	fi := inst.Module.Store.Funcs[exp.Addr]
	if len(rawArgs) != len(fi.Type.Params) {
		return nil, fmt.Errorf("export %s takes %d argument(s), got %d", export, len(fi.Type.Params), len(rawArgs))
	}
	values := make([]vm.Value, len(rawArgs))
	for i, raw := range rawArgs {
		switch fi.Type.Params[i] {
		case wasm.ValueTypeI32:
			n, err := strconv.ParseInt(raw, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("argument %d: %w", i, err)
			}
			values[i] = vm.I32(int32(n))
		case wasm.ValueTypeI64:
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("argument %d: %w", i, err)
			}
			values[i] = vm.I64(n)
		case wasm.ValueTypeF32:
			n, err := strconv.ParseFloat(raw, 32)
			if err != nil {
				return nil, fmt.Errorf("argument %d: %w", i, err)
			}
			values[i] = vm.F32(float32(n))
		case wasm.ValueTypeF64:
			n, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("argument %d: %w", i, err)
			}
			values[i] = vm.F64(n)
		default:
			return nil, fmt.Errorf("argument %d: unsupported value type", i)
		}
	}
	return values, nil
}

func printError(kind string, err error) {
	color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "%s: ", kind)
	fmt.Fprintln(os.Stderr, err)
}

// exitCodeFor maps a run() failure onto the exit codes the embedding API
// documents: 1 trap, 2 link error, 3 malformed, 1 for anything else (e.g. a
// bad CLI invocation or unreadable file).
func exitCodeFor(err error) int {
	var trapErr *vm.TrapError
	if errors.As(err, &trapErr) {
		return 1
	}
	var linkErr *vm.LinkError
	if errors.As(err, &linkErr) {
		return 2
	}
	var malformedErr *wasm.MalformedError
	if errors.As(err, &malformedErr) {
		return 3
	}
	return 1
}
