package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"bpfjit/pkg/ppc64"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bpfjit.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeFile(t, `
[jit]
target = "ppc64"
verbose = 1
toc = "0x1000"

[cache]
dir = "/tmp/cache"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	want := Default()
	want.JIT.Target = "ppc64"
	want.JIT.Verbose = 1
	want.JIT.TOC = "0x1000"
	want.Cache.Dir = "/tmp/cache"
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config (-want +got):\n%s", diff)
	}

	opts, err := cfg.Options(nil)
	if err != nil {
		t.Fatal(err)
	}
	if opts.Target.Name != ppc64.BigEndian.Name || opts.TOC != 0x1000 || !opts.Enabled || opts.Verbose != 1 {
		t.Errorf("options = %+v", opts)
	}
}

func TestLoadRejects(t *testing.T) {
	for name, body := range map[string]string{
		"unknown key":  "[jit]\ntarget = \"ppc64\"\nturbo = true\n",
		"bad target":   "[jit]\ntarget = \"x86\"\n",
		"bad toc":      "[jit]\ntoc = \"zz\"\n",
		"negative":     "[jit]\njobs = -1\n",
		"invalid toml": "[jit\n",
	} {
		if _, err := Load(writeFile(t, body)); err == nil {
			t.Errorf("%s: accepted", name)
		}
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvEnable, "false")
	t.Setenv(EnvTarget, "ppc64")
	t.Setenv(EnvVerbose, "2")
	t.Setenv(EnvJobs, "3")
	t.Setenv(EnvTOC, "0x8000")
	t.Setenv(EnvCacheDir, "/var/cache/bpfjit")
	cfg, err := Default().FromEnv()
	if err != nil {
		t.Fatal(err)
	}
	want := Default()
	want.JIT = JITConfig{Enabled: false, Target: "ppc64", Verbose: 2, Jobs: 3, TOC: "0x8000"}
	want.Cache.Dir = "/var/cache/bpfjit"
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config (-want +got):\n%s", diff)
	}
}

func TestFromEnvUnset(t *testing.T) {
	for _, name := range []string{EnvEnable, EnvTarget, EnvVerbose, EnvJobs, EnvTOC, EnvCacheDir} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
	cfg, err := Default().FromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("config changed without variables (-want +got):\n%s", diff)
	}
}

func TestFromEnvSeesChanges(t *testing.T) {
	t.Setenv(EnvJobs, "3")
	cfg, err := Default().FromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.JIT.Jobs != 3 {
		t.Fatalf("jobs = %d, want 3", cfg.JIT.Jobs)
	}
	t.Setenv(EnvJobs, "5")
	if cfg, err = Default().FromEnv(); err != nil {
		t.Fatal(err)
	}
	if cfg.JIT.Jobs != 5 {
		t.Errorf("jobs = %d after changing %s, want 5", cfg.JIT.Jobs, EnvJobs)
	}
}

func TestWriteRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := Default().Write(&buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "[jit]") {
		t.Errorf("encoded config lacks [jit]:\n%s", buf.String())
	}
	cfg, err := Load(writeFile(t, buf.String()))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("round trip (-want +got):\n%s", diff)
	}
}
