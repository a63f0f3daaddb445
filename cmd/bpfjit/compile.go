package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/vmihailenco/msgpack/v5"
)

var compileCmd = &cobra.Command{
	Use:   "compile [flags] <program>",
	Short: "Compile a program and report the generated code",
	Long:  `Compile an eBPF program (assembler text or raw bytecode) and optionally save the relocatable image`,
	Args:  cobra.ExactArgs(1),
	RunE:  runCompile,
}

func init() {
	compileCmd.Flags().StringP("output", "o", "", "write the relocatable image (msgpack) to this file")
}

func runCompile(cmd *cobra.Command, args []string) error {
	cfg, opts, err := compilerOptions(cmd)
	if err != nil {
		return err
	}
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return fmt.Errorf("failed to get output flag: %w", err)
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
	p, cached, err := s.compile(prog)
	if err != nil {
		return err
	}

	source := "compiled"
	if cached {
		source = "cached"
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %s %d slots into %d words for %s\n", args[0], source, len(prog), p.Words, p.Target)
	fmt.Fprintf(out, "  id %s  image 0x%x  frame %d  seen 0x%04x\n", p.ID, p.CodeAddr(), p.FrameSize, p.Seen)

	if output == "" {
		return nil
	}
	data, err := msgpack.Marshal(p.Export())
	if err != nil {
		return fmt.Errorf("encode image: %w", err)
	}
	return os.WriteFile(output, data, 0o644)
}
