package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"bpfjit/pkg/bpf"
	"bpfjit/pkg/config"
	"bpfjit/pkg/jit"
)

var rootCmd = &cobra.Command{
	Use:           "bpfjit",
	Short:         "eBPF to 64-bit PowerPC JIT compiler",
	Long:          `bpfjit translates eBPF bytecode into ppc64 (ELFv1) or ppc64le (ELFv2) machine code and runs it on a built-in simulator`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("config", "", "TOML configuration file")
	rootCmd.PersistentFlags().String("target", "", "code generation target (ppc64|ppc64le)")
	rootCmd.PersistentFlags().CountP("verbose", "v", "log compiler passes (-vv adds a listing)")
	rootCmd.PersistentFlags().Bool("no-jit", false, "disable the compiler; run falls back to the interpreter")
	rootCmd.PersistentFlags().String("cache-dir", "", "persistent compiled-image cache directory")
}

func main() {
	rootCmd.Version = Version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "bpfjit:", err)
		os.Exit(1)
	}
}

// loadConfig layers the configuration file, the environment and the command line flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return cfg, err
	}
	if path != "" {
		if cfg, err = config.Load(path); err != nil {
			return cfg, err
		}
	}
	if cfg, err = cfg.FromEnv(); err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("target") {
		if cfg.JIT.Target, err = flags.GetString("target"); err != nil {
			return cfg, fmt.Errorf("failed to get target flag: %w", err)
		}
	}
	if flags.Changed("verbose") {
		if cfg.JIT.Verbose, err = flags.GetCount("verbose"); err != nil {
			return cfg, fmt.Errorf("failed to get verbose flag: %w", err)
		}
	}
	noJIT, err := flags.GetBool("no-jit")
	if err != nil {
		return cfg, fmt.Errorf("failed to get no-jit flag: %w", err)
	}
	if noJIT {
		cfg.JIT.Enabled = false
	}
	if flags.Changed("cache-dir") {
		if cfg.Cache.Dir, err = flags.GetString("cache-dir"); err != nil {
			return cfg, fmt.Errorf("failed to get cache-dir flag: %w", err)
		}
	}
	return cfg, cfg.Validate()
}

func compilerOptions(cmd *cobra.Command) (config.Config, jit.Options, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return cfg, jit.Options{}, err
	}
	logger := log.New(cmd.ErrOrStderr(), "", log.LstdFlags)
	opts, err := cfg.Options(logger)
	return cfg, opts, err
}

// loadProgram reads bytecode from path: assembler text for .s/.asm/.bpf files, the raw
// 8-byte wire format otherwise.
func loadProgram(path string) (bpf.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".s", ".asm", ".bpf":
		prog, err := bpf.Assemble(string(data))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return prog, nil
	default:
		prog, err := bpf.UnmarshalProgram(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return prog, nil
	}
}
