package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vmihailenco/msgpack/v5"

	"bpfjit/pkg/jit"
)

var runCmd = &cobra.Command{
	Use:   "run [flags] <program|image.img> [r1 [r2 ... r5]]",
	Short: "Compile a program and execute it on the simulator",
	Long: `Compile an eBPF program and run the native code on the ppc64 simulator. Programs the
compiler rejects, and all programs under --no-jit, run on the interpreter instead`,
	Args: cobra.RangeArgs(1, 6),
	RunE: runExecution,
}

func init() {
	runCmd.Flags().String("data", "", "file mapped writable at 0x20000000; R1 points at it unless given")
	runCmd.Flags().Bool("compare", false, "also interpret the program and check both results agree")
}

func parseArgs(ss []string) ([]uint64, error) {
	out := make([]uint64, len(ss))
	for i, s := range ss {
		v, err := strconv.ParseUint(s, 0, 64)
		if err != nil {
			n, serr := strconv.ParseInt(s, 0, 64)
			if serr != nil {
				return nil, fmt.Errorf("argument %d: bad number %q", i+1, s)
			}
			v = uint64(n)
		}
		out[i] = v
	}
	return out, nil
}

func runExecution(cmd *cobra.Command, args []string) error {
	cfg, opts, err := compilerOptions(cmd)
	if err != nil {
		return err
	}
	dataPath, err := cmd.Flags().GetString("data")
	if err != nil {
		return fmt.Errorf("failed to get data flag: %w", err)
	}
	compare, err := cmd.Flags().GetBool("compare")
	if err != nil {
		return fmt.Errorf("failed to get compare flag: %w", err)
	}
	regs, err := parseArgs(args[1:])
	if err != nil {
		return err
	}

	s, err := newSession(cfg, opts)
	if err != nil {
		return err
	}
	defer s.Close()
	var data []byte
	if dataPath != "" {
		if data, err = os.ReadFile(dataPath); err != nil {
			return err
		}
		if err := s.mapData(append([]byte(nil), data...)); err != nil {
			return err
		}
		if len(regs) == 0 {
			regs = []uint64{dataBase}
		}
	}

	out := cmd.OutOrStdout()
	if strings.HasSuffix(args[0], ".img") {
		p, err := loadImage(s, args[0])
		if err != nil {
			return err
		}
		ret, err := s.call(p, regs)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "r0 = %d (0x%x) [native, %d steps]\n", ret, ret, s.machine.Steps)
		return nil
	}

	prog, err := loadProgram(args[0])
	if err != nil {
		return err
	}
	p, _, err := s.compile(prog)
	if err != nil {
		if !errors.Is(err, jit.ErrDisabled) && !jit.IsCompileError(err) {
			return err
		}
		ret, ierr := s.interpret(prog, regs)
		if ierr != nil {
			return ierr
		}
		fmt.Fprintf(out, "r0 = %d (0x%x) [interpreted: %v]\n", ret, ret, err)
		return nil
	}

	ret, err := s.call(p, regs)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "r0 = %d (0x%x) [native, %d steps]\n", ret, ret, s.machine.Steps)
	if compare {
		if len(data) > 0 {
			if err := s.mem.Write(dataBase, data); err != nil {
				return err
			}
		}
		want, err := s.interpret(prog, regs)
		if err != nil {
			return fmt.Errorf("interpreter: %w", err)
		}
		if want != ret {
			return fmt.Errorf("interpreter returned 0x%x, native code 0x%x", want, ret)
		}
		fmt.Fprintln(out, "interpreter agrees")
	}
	return nil
}

func loadImage(s *session, path string) (*jit.CompiledProgram, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var img jit.Image
	if err := msgpack.Unmarshal(data, &img); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s.install(img)
}
