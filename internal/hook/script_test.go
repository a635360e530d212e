package hook

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunInvokesScriptWithEnvAndReason(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "hook.sh")
	out := filepath.Join(dir, "out.txt")
	contents := "#!/bin/sh\necho \"$1 $DHCPCD_IFACE\" > " + out + "\n"
	if err := os.WriteFile(script, []byte(contents), 0o755); err != nil {
		t.Fatalf("writing script: %v", err)
	}

	r := NewRunner(1, testLogger())
	err := r.Run(context.Background(), script, "eth0", "BOUND", []string{"DHCPCD_IFACE=eth0"})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	r.Wait()

	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading script output: %v", err)
	}
	want := "BOUND eth0\n"
	if string(got) != want {
		t.Errorf("script output = %q, want %q", got, want)
	}
}

func TestRunReturnsErrorOnFailure(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "fail.sh")
	if err := os.WriteFile(script, []byte("#!/bin/sh\nexit 1\n"), 0o755); err != nil {
		t.Fatalf("writing script: %v", err)
	}

	r := NewRunner(1, testLogger())
	if err := r.Run(context.Background(), script, "eth0", "RELEASE", nil); err == nil {
		t.Error("expected error from failing script")
	}
}

func TestRunPoolFullDropsExecution(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "ok.sh")
	if err := os.WriteFile(script, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("writing script: %v", err)
	}

	r := NewRunner(1, testLogger())
	r.sem <- struct{}{} // simulate a full pool
	if err := r.Run(context.Background(), script, "eth0", "BOUND", nil); err != nil {
		t.Errorf("Run with full pool should drop silently, got error: %v", err)
	}
	<-r.sem
}
