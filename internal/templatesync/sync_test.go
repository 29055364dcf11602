package templatesync

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testTemplate = `services:
  mars-dev:
    volumes:
      - /home/user/test-files:/root/dev/test-files:ro
`

func writeTemplate(t *testing.T, dir string, mode os.FileMode) string {
	t.Helper()
	path := filepath.Join(dir, "docker-compose.override.yml.template")
	if err := os.WriteFile(path, []byte(testTemplate), mode); err != nil {
		t.Fatalf("failed to write template: %v", err)
	}
	// Push the template's mtime into the past so a fresh copy is always
	// strictly newer.
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatalf("failed to set template mtime: %v", err)
	}
	return path
}

func TestSync_Disabled(t *testing.T) {
	dir := t.TempDir()
	override := filepath.Join(dir, "docker-compose.override.yml")

	outcome, err := Sync(Options{
		TemplatePath: writeTemplate(t, dir, 0644),
		OverridePath: override,
		Enabled:      false,
	})
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if outcome != SkippedDisabled {
		t.Errorf("Sync() outcome = %v, want %v", outcome, SkippedDisabled)
	}
	if _, err := os.Stat(override); !os.IsNotExist(err) {
		t.Errorf("Sync() created override while disabled")
	}
}

func TestSync_MissingTemplate(t *testing.T) {
	dir := t.TempDir()
	override := filepath.Join(dir, "docker-compose.override.yml")

	outcome, err := Sync(Options{
		TemplatePath: filepath.Join(dir, "no-such-template"),
		OverridePath: override,
		Enabled:      true,
	})
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if outcome != SkippedMissingTemplate {
		t.Errorf("Sync() outcome = %v, want %v", outcome, SkippedMissingTemplate)
	}
	if _, err := os.Stat(override); !os.IsNotExist(err) {
		t.Errorf("Sync() created override without a template")
	}
}

func TestSync_CopiesByteForByte(t *testing.T) {
	dir := t.TempDir()
	template := writeTemplate(t, dir, 0640)
	override := filepath.Join(dir, "docker-compose.override.yml")

	outcome, err := Sync(Options{TemplatePath: template, OverridePath: override, Enabled: true})
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if outcome != Copied {
		t.Fatalf("Sync() outcome = %v, want %v", outcome, Copied)
	}

	got, err := os.ReadFile(override)
	if err != nil {
		t.Fatalf("failed to read override: %v", err)
	}
	if string(got) != testTemplate {
		t.Errorf("override content = %q, want template bytes %q", got, testTemplate)
	}
	if !strings.HasPrefix(string(got), "services:\n") {
		t.Errorf("override first line = %q, want services:", strings.SplitN(string(got), "\n", 2)[0])
	}
	if !strings.Contains(string(got), "/home/user/test-files:/root/dev/test-files:ro") {
		t.Errorf("override lost the :ro mount line")
	}

	info, err := os.Stat(override)
	if err != nil {
		t.Fatalf("failed to stat override: %v", err)
	}
	if info.Mode().Perm() != 0640 {
		t.Errorf("override mode = %o, want %o", info.Mode().Perm(), 0640)
	}
}

func TestSync_OverrideNewerPreserved(t *testing.T) {
	dir := t.TempDir()
	template := writeTemplate(t, dir, 0644)
	override := filepath.Join(dir, "docker-compose.override.yml")

	edited := "services:\n  mars-dev:\n    volumes:\n      - /hand/edited:/data:rw\n"
	if err := os.WriteFile(override, []byte(edited), 0644); err != nil {
		t.Fatalf("failed to write override: %v", err)
	}

	outcome, err := Sync(Options{TemplatePath: template, OverridePath: override, Enabled: true})
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if outcome != SkippedNewer {
		t.Errorf("Sync() outcome = %v, want %v", outcome, SkippedNewer)
	}

	got, _ := os.ReadFile(override)
	if string(got) != edited {
		t.Errorf("Sync() modified a newer override: %q", got)
	}
}

func TestSync_SecondRunIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	template := writeTemplate(t, dir, 0644)
	override := filepath.Join(dir, "docker-compose.override.yml")

	opts := Options{TemplatePath: template, OverridePath: override, Enabled: true}
	if outcome, err := Sync(opts); err != nil || outcome != Copied {
		t.Fatalf("first Sync() = %v, %v, want Copied", outcome, err)
	}
	firstInfo, err := os.Stat(override)
	if err != nil {
		t.Fatalf("failed to stat override: %v", err)
	}
	firstBytes, _ := os.ReadFile(override)

	outcome, err := Sync(opts)
	if err != nil {
		t.Fatalf("second Sync() error = %v", err)
	}
	if outcome != SkippedNewer {
		t.Errorf("second Sync() outcome = %v, want %v", outcome, SkippedNewer)
	}

	secondInfo, _ := os.Stat(override)
	if !secondInfo.ModTime().Equal(firstInfo.ModTime()) {
		t.Errorf("second Sync() changed mtime: %v -> %v", firstInfo.ModTime(), secondInfo.ModTime())
	}
	secondBytes, _ := os.ReadFile(override)
	if string(secondBytes) != string(firstBytes) {
		t.Errorf("second Sync() changed content")
	}
}

func TestSync_ForceOverwritesNewerOverride(t *testing.T) {
	dir := t.TempDir()
	template := writeTemplate(t, dir, 0644)
	override := filepath.Join(dir, "docker-compose.override.yml")

	if err := os.WriteFile(override, []byte("manual edits\n"), 0644); err != nil {
		t.Fatalf("failed to write override: %v", err)
	}

	outcome, err := Sync(Options{TemplatePath: template, OverridePath: override, Enabled: true, Force: true})
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if outcome != Copied {
		t.Errorf("Sync() outcome = %v, want %v", outcome, Copied)
	}

	got, _ := os.ReadFile(override)
	if string(got) != testTemplate {
		t.Errorf("forced Sync() did not copy the template")
	}
}

func TestSync_MissingParentDirIsFatal(t *testing.T) {
	dir := t.TempDir()
	template := writeTemplate(t, dir, 0644)
	override := filepath.Join(dir, "no-such-dir", "docker-compose.override.yml")

	_, err := Sync(Options{TemplatePath: template, OverridePath: override, Enabled: true})
	if err == nil {
		t.Fatal("Sync() expected error for missing parent directory, got nil")
	}

	var missing *MissingParentDirError
	if !errors.As(err, &missing) {
		t.Fatalf("Sync() error type = %T, want *MissingParentDirError", err)
	}
	if missing.Dir != filepath.Join(dir, "no-such-dir") {
		t.Errorf("MissingParentDirError.Dir = %v, want %v", missing.Dir, filepath.Join(dir, "no-such-dir"))
	}
}
