package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// execute runs the root command with args and returns its output. Flags are reset first
// since cobra keeps parsed values between executions.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	reset := func(f *pflag.Flag) {
		if err := f.Value.Set(f.DefValue); err != nil {
			t.Fatalf("reset --%s: %v", f.Name, err)
		}
		f.Changed = false
	}
	rootCmd.PersistentFlags().VisitAll(reset)
	for _, c := range rootCmd.Commands() {
		c.Flags().VisitAll(reset)
	}
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeProgram(t *testing.T, name, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunNative(t *testing.T) {
	prog := writeProgram(t, "add.s", "mov64 r0, r1\nadd64 r0, r2\nexit\n")
	for _, target := range []string{"ppc64", "ppc64le"} {
		out, err := execute(t, "run", "--target", target, "--compare", prog, "40", "2")
		if err != nil {
			t.Fatalf("%s: %v\n%s", target, err, out)
		}
		if !strings.Contains(out, "r0 = 42 (0x2a) [native") || !strings.Contains(out, "interpreter agrees") {
			t.Errorf("%s: output:\n%s", target, out)
		}
	}
}

func TestRunFallsBackToInterpreter(t *testing.T) {
	prog := writeProgram(t, "ldabs.s", "mov64 r0, 7\njeq32 r0, 7, +1\nmov64 r0, 1\nexit\n")
	out, err := execute(t, "run", "--target", "ppc64le", prog)
	if err != nil {
		t.Fatalf("%v\n%s", err, out)
	}
	if !strings.Contains(out, "r0 = 7 (0x7) [interpreted: unsupported opcode") {
		t.Errorf("output:\n%s", out)
	}
}

func TestRunWithData(t *testing.T) {
	prog := writeProgram(t, "sum.s", "ldxb r0, [r1+0]\nldxb r2, [r1+1]\nadd64 r0, r2\nstxb [r1+2], r0\nexit\n")
	data := filepath.Join(t.TempDir(), "data.bin")
	if err := os.WriteFile(data, []byte{3, 4, 0}, 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := execute(t, "run", "--target", "ppc64", "--compare", "--data", data, prog)
	if err != nil {
		t.Fatalf("%v\n%s", err, out)
	}
	if !strings.Contains(out, "r0 = 7 (0x7)") || !strings.Contains(out, "interpreter agrees") {
		t.Errorf("output:\n%s", out)
	}
}

func TestCompileImageAndRun(t *testing.T) {
	prog := writeProgram(t, "call.s", "call 8\nadd64 r0, 5\nexit\n")
	img := filepath.Join(t.TempDir(), "call.img")
	out, err := execute(t, "compile", "--target", "ppc64", "-o", img, prog)
	if err != nil {
		t.Fatalf("%v\n%s", err, out)
	}
	if !strings.Contains(out, "compiled 3 slots into") {
		t.Errorf("compile output:\n%s", out)
	}
	out, err = execute(t, "run", "--target", "ppc64", img)
	if err != nil {
		t.Fatalf("%v\n%s", err, out)
	}
	if !strings.Contains(out, "r0 = 5 (0x5) [native") {
		t.Errorf("run output:\n%s", out)
	}
	if _, err := execute(t, "run", "--target", "ppc64le", img); err == nil {
		t.Error("ran a ppc64 image on a ppc64le session")
	}
}

func TestCompileCached(t *testing.T) {
	prog := writeProgram(t, "one.s", "mov64 r0, 1\nexit\n")
	dir := filepath.Join(t.TempDir(), "cache")
	if out, err := execute(t, "compile", "--cache-dir", dir, prog); err != nil || !strings.Contains(out, ": compiled") {
		t.Fatalf("first: %v\n%s", err, out)
	}
	out, err := execute(t, "compile", "--cache-dir", dir, prog)
	if err != nil || !strings.Contains(out, ": cached") {
		t.Errorf("second: %v\n%s", err, out)
	}
}

func TestDumpAndBatch(t *testing.T) {
	good := writeProgram(t, "good.s", "mov64 r0, 1\nexit\n")
	bad := writeProgram(t, "bad.s", "mov64 r0, 1\ndiv64 r0, 0\nexit\n")
	out, err := execute(t, "dump", "--color", "off", good)
	if err != nil {
		t.Fatalf("%v\n%s", err, out)
	}
	for _, want := range []string{"flen=2", "   0: mov64 r0, 1", "epilogue:", "blr"} {
		if !strings.Contains(out, want) {
			t.Errorf("dump lacks %q:\n%s", want, out)
		}
	}

	out, err = execute(t, "batch", "-j", "2", good, bad)
	if err == nil || !strings.Contains(err.Error(), "1 of 2 programs") {
		t.Errorf("batch error = %v", err)
	}
	if !strings.Contains(out, "division by constant zero") {
		t.Errorf("batch output:\n%s", out)
	}
}

func TestLoadConfigFlagErrors(t *testing.T) {
	cmd := &cobra.Command{Use: "x"}
	cmd.Flags().String("config", "", "")
	cmd.Flags().Int("target", 0, "")
	if err := cmd.Flags().Set("target", "1"); err != nil {
		t.Fatal(err)
	}
	_, err := loadConfig(cmd)
	if err == nil || !strings.Contains(err.Error(), "failed to get target flag") {
		t.Errorf("target: err = %v", err)
	}

	cmd = &cobra.Command{Use: "x"}
	cmd.Flags().String("config", "", "")
	if _, err := loadConfig(cmd); err == nil || !strings.Contains(err.Error(), "failed to get no-jit flag") {
		t.Errorf("no-jit: err = %v", err)
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "ppc64le") || !strings.Contains(out, "ELFv1") {
		t.Errorf("output:\n%s", out)
	}
}
