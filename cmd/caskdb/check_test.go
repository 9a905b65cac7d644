package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/0xRadioAc7iv/go-caskdb/caskdb"
)

func writeLog(t *testing.T) (string, int64) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "data.db")

	s, err := caskdb.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Set("a", "1"); err != nil {
		t.Fatal(err)
	}
	if err := s.Set("b", "2"); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	return path, info.Size()
}

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	c := newRootCmd()
	c.SetOut(&out)
	c.SetErr(&out)
	c.SetArgs(args)

	err := c.Execute()
	return out.String(), err
}

func TestCheckIntactLog(t *testing.T) {
	path, _ := writeLog(t)

	out, err := runRoot(t, "check", path)
	if err != nil {
		t.Fatalf("check failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "ok: 2 records") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestCheckTruncatesCorruptTail(t *testing.T) {
	path, size := writeLog(t)
	recordSize := size / 2

	if err := os.Truncate(path, size-1); err != nil {
		t.Fatal(err)
	}

	if _, err := runRoot(t, "check", path); err == nil {
		t.Fatal("expected check to fail without --truncate")
	}

	out, err := runRoot(t, "check", path, "--truncate")
	if err != nil {
		t.Fatalf("check --truncate failed: %v\n%s", err, out)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != recordSize {
		t.Fatalf("size after truncate = %d, want %d", info.Size(), recordSize)
	}

	s, err := caskdb.Open(path)
	if err != nil {
		t.Fatalf("log still unreadable after truncate: %v", err)
	}
	defer s.Close()

	if v, ok, _ := s.Get("a"); !ok || v != "1" {
		t.Fatalf("Get(a) = %q, %v", v, ok)
	}
	if s.Exists("b") {
		t.Fatal("truncated record is still visible")
	}
}

func TestCheckMissingLog(t *testing.T) {
	if _, err := runRoot(t, "check", filepath.Join(t.TempDir(), "absent.db")); err == nil {
		t.Fatal("expected an error for a missing log")
	}
}
