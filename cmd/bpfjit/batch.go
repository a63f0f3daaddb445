package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"bpfjit/pkg/bpf"
	"bpfjit/pkg/jit"
)

var batchCmd = &cobra.Command{
	Use:   "batch [flags] <program>...",
	Short: "Compile many programs in parallel",
	Long:  `Compile every program given, up to --jobs at a time, and report the outcome of each`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runBatch,
}

func init() {
	batchCmd.Flags().IntP("jobs", "j", 0, "parallel compilations (default from config, then one per CPU)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, opts, err := compilerOptions(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("jobs") {
		if opts.Jobs, err = cmd.Flags().GetInt("jobs"); err != nil {
			return fmt.Errorf("failed to get jobs flag: %w", err)
		}
	}
	progs := make([]bpf.Program, len(args))
	for i, path := range args {
		if progs[i], err = loadProgram(path); err != nil {
			return err
		}
	}

	s, err := newSession(cfg, opts)
	if err != nil {
		return err
	}
	defer s.Close()
	results, err := jit.CompileAll(cmd.Context(), progs, s.placed, s.heap, opts)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PROGRAM\tSLOTS\tWORDS\tFRAME\tRESULT")
	failed := 0
	for i, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(tw, "%s\t%d\t-\t-\t%v\n", args[i], len(progs[i]), r.Err)
			continue
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\tok\n", args[i], len(progs[i]), r.Program.Words, r.Program.FrameSize)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d programs not compiled", failed, len(args))
	}
	return nil
}
