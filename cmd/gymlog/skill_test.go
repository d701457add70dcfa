// ABOUTME: Tests for the install-skill command.
// ABOUTME: Installs into a temp home and checks confirmation handling.
package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSkillPath(t *testing.T) {
	want := filepath.Join("/home/lifter", ".claude", "skills", "gymlog", "SKILL.md")
	if got := skillPath("/home/lifter"); got != want {
		t.Errorf("skillPath() = %q, want %q", got, want)
	}
}

func TestInstallSkillSkipConfirm(t *testing.T) {
	home := t.TempDir()
	var out bytes.Buffer

	if err := installSkill(&out, strings.NewReader(""), home, true); err != nil {
		t.Fatalf("installSkill failed: %v", err)
	}

	written, err := os.ReadFile(skillPath(home))
	if err != nil {
		t.Fatalf("skill file not written: %v", err)
	}
	embedded, err := skillFS.ReadFile("skill/SKILL.md")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(written, embedded) {
		t.Error("installed skill differs from embedded copy")
	}
	if !strings.Contains(string(written), "name: gymlog") {
		t.Error("skill frontmatter missing name")
	}
	if !strings.Contains(out.String(), "Installed gymlog skill") {
		t.Errorf("unexpected output: %s", out.String())
	}
}

func TestInstallSkillCanceled(t *testing.T) {
	home := t.TempDir()
	var out bytes.Buffer

	if err := installSkill(&out, strings.NewReader("n\n"), home, false); err != nil {
		t.Fatalf("installSkill failed: %v", err)
	}
	if !strings.Contains(out.String(), "Installation canceled.") {
		t.Errorf("Expected cancel message, got: %s", out.String())
	}
	if _, err := os.Stat(skillPath(home)); !os.IsNotExist(err) {
		t.Error("skill file should not exist after cancel")
	}
}

func TestInstallSkillOverwrites(t *testing.T) {
	home := t.TempDir()
	path := skillPath(home)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := installSkill(&out, strings.NewReader("y\n"), home, false); err != nil {
		t.Fatalf("installSkill failed: %v", err)
	}
	if !strings.Contains(out.String(), "will be overwritten") {
		t.Errorf("Expected overwrite note, got: %s", out.String())
	}

	written, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(written) == "old" {
		t.Error("skill file was not overwritten")
	}
}
