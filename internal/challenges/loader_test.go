package challenges

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hireloop/interview-engine/internal/models"
)

func writeTemplate(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write template: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "rate-limiter.yaml", `
name: rate-limiter
title: Build a Rate Limiter
description: Sliding-window rate limiter
instructions: Implement a per-client sliding window rate limiter.
language: go
starter_code: "package main\n"
time_limit: 90
difficulty: medium
tags: [concurrency, algorithms]
`)

	lib := NewLibrary()
	if err := lib.LoadFromFile(filepath.Join(dir, "rate-limiter.yaml")); err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	tmpl := lib.Get("rate-limiter")
	if tmpl == nil {
		t.Fatal("expected template to be loaded")
	}
	if tmpl.Title != "Build a Rate Limiter" {
		t.Errorf("unexpected title: %s", tmpl.Title)
	}
	if tmpl.TimeLimit != 90 {
		t.Errorf("expected time_limit 90, got %d", tmpl.TimeLimit)
	}
	if len(tmpl.Tags) != 2 {
		t.Errorf("expected 2 tags, got %d", len(tmpl.Tags))
	}
}

func TestLoadFromFileValidation(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "no-name.yaml", `
title: Missing Name
time_limit: 60
`)
	writeTemplate(t, dir, "no-title.yaml", `
name: no-title
time_limit: 60
`)

	lib := NewLibrary()

	if err := lib.LoadFromFile(filepath.Join(dir, "no-name.yaml")); err == nil {
		t.Error("expected error for template without name")
	}
	if err := lib.LoadFromFile(filepath.Join(dir, "no-title.yaml")); err == nil {
		t.Error("expected error for template without title")
	}
}

func TestLoadFromDir(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "a.yaml", "name: alpha\ntitle: Alpha\ntime_limit: 30\n")

	subdir := filepath.Join(dir, "backend")
	if err := os.Mkdir(subdir, 0755); err != nil {
		t.Fatal(err)
	}
	writeTemplate(t, subdir, "b.yml", "name: beta\ntitle: Beta\ntime_limit: 60\n")
	writeTemplate(t, dir, "broken.yaml", "title: No Name Here\n")

	lib := NewLibrary()
	if err := lib.LoadFromDir(dir); err != nil {
		t.Fatalf("LoadFromDir failed: %v", err)
	}

	list := lib.List()
	if len(list) != 2 {
		t.Fatalf("expected 2 templates, got %d", len(list))
	}
	// Sorted by name
	if list[0].Name != "alpha" || list[1].Name != "beta" {
		t.Errorf("unexpected order: %s, %s", list[0].Name, list[1].Name)
	}
}

func TestAddAndRemove(t *testing.T) {
	lib := NewLibrary()
	lib.Add(&models.Template{Name: "manual", Title: "Manual", TimeLimit: 45})

	if lib.Get("manual") == nil {
		t.Fatal("expected added template")
	}

	lib.Remove("manual")
	if lib.Get("manual") != nil {
		t.Error("expected template to be removed")
	}
}
