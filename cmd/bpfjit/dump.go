package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"bpfjit/pkg/jit"
)

var dumpCmd = &cobra.Command{
	Use:   "dump [flags] <program>",
	Short: "Compile a program and print bytecode interleaved with the generated code",
	Args:  cobra.ExactArgs(1),
	RunE:  runDump,
}

func init() {
	dumpCmd.Flags().String("color", "auto", "colorize output (auto|on|off)")
}

func useColor(mode string) (bool, error) {
	switch mode {
	case "auto":
		return !color.NoColor, nil
	case "on":
		return true, nil
	case "off":
		return false, nil
	default:
		return false, fmt.Errorf("unknown color mode %q (auto|on|off)", mode)
	}
}

func runDump(cmd *cobra.Command, args []string) error {
	cfg, opts, err := compilerOptions(cmd)
	if err != nil {
		return err
	}
	mode, err := cmd.Flags().GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}
	colored, err := useColor(mode)
	if err != nil {
		return err
	}
	if colored {
		color.NoColor = false
	}
	prog, err := loadProgram(args[0])
	if err != nil {
		return err
	}
	s, err := newSession(cfg, opts)
	if err != nil {
		return err
	}
	defer s.Close()
	p, _, err := s.compile(prog)
	if err != nil {
		return err
	}
	if cmd.OutOrStdout() == os.Stdout {
		return jit.Dump(color.Output, prog, p, colored)
	}
	return jit.Dump(cmd.OutOrStdout(), prog, p, colored)
}
