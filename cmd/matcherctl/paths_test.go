package main

import (
	"path/filepath"
	"testing"
)

func TestDefaultConfigPathUsesHomeDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := defaultConfigPath()
	if err != nil {
		t.Fatalf("defaultConfigPath: %v", err)
	}
	want := filepath.Join(home, ".config", "matcherctl", "config.yaml")
	if got != want {
		t.Fatalf("defaultConfigPath=%q, want %q", got, want)
	}
}

func TestDefaultStatePathUsesHomeDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := defaultStatePath()
	if err != nil {
		t.Fatalf("defaultStatePath: %v", err)
	}
	want := filepath.Join(home, ".local", "state", "matcherctl", "slots.json")
	if got != want {
		t.Fatalf("defaultStatePath=%q, want %q", got, want)
	}
}

func TestResolveConfigPathPrefersFlag(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := resolveConfigPath("/explicit/path.yaml")
	if err != nil {
		t.Fatalf("resolveConfigPath: %v", err)
	}
	if got != "/explicit/path.yaml" {
		t.Fatalf("resolveConfigPath=%q, want explicit path", got)
	}

	got, err = resolveConfigPath("")
	if err != nil {
		t.Fatalf("resolveConfigPath: %v", err)
	}
	want := filepath.Join(home, ".config", "matcherctl", "config.yaml")
	if got != want {
		t.Fatalf("resolveConfigPath=%q, want %q", got, want)
	}
}
