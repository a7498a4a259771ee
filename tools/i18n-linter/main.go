// Copyright (c) 2026 Keymaster Team
// Edgemaster - edge device ownership console
// This source code is licensed under the MIT license found in the LICENSE file.

// i18n-linter checks the embedded message catalogs against the source tree.
// It fails when code asks for an id the English catalog lacks, or when
// another catalog misses an English id. Ids no code refers to are reported
// as orphans without failing.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	localesDir    = "internal/i18n/locales"
	primaryLocale = "active.en.yaml"
	projectRoot   = "."
)

var (
	// i18n.T("some.id", ...)
	callRe = regexp.MustCompile(`i18n\.T\("([^"]+)"`)
	// bare literals shaped like ids, e.g. msg := "account.restored"
	literalRe = regexp.MustCompile(`"([a-z_]+\.[a-z_][a-z_.]*)"`)
)

// report collects everything the linter found.
type report struct {
	undefined map[string][]string // id -> files calling i18n.T with it
	orphaned  []string
	missing   map[string][]string // locale file -> ids
}

func (r report) failed() bool {
	return len(r.undefined) > 0 || len(r.missing) > 0
}

func main() {
	r, err := lint(projectRoot, localesDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "i18n-linter: %v\n", err)
		os.Exit(1)
	}
	printReport(os.Stdout, r)
	if r.failed() {
		os.Exit(1)
	}
}

func lint(root, locales string) (report, error) {
	r := report{undefined: map[string][]string{}, missing: map[string][]string{}}

	called, mentioned, err := findUsedKeys(root)
	if err != nil {
		return r, fmt.Errorf("scan sources: %w", err)
	}
	primary, err := loadKeysFromLocale(filepath.Join(locales, primaryLocale))
	if err != nil {
		return r, fmt.Errorf("load primary locale: %w", err)
	}

	for id, files := range called {
		if _, ok := primary[id]; !ok {
			r.undefined[id] = files
		}
	}
	for id := range primary {
		if _, ok := called[id]; ok {
			continue
		}
		if _, ok := mentioned[id]; ok {
			continue
		}
		r.orphaned = append(r.orphaned, id)
	}
	sort.Strings(r.orphaned)

	files, err := filepath.Glob(filepath.Join(locales, "*.yaml"))
	if err != nil {
		return r, err
	}
	for _, f := range files {
		if filepath.Base(f) == primaryLocale {
			continue
		}
		keys, err := loadKeysFromLocale(f)
		if err != nil {
			return r, fmt.Errorf("load %s: %w", f, err)
		}
		for id := range primary {
			if _, ok := keys[id]; !ok {
				r.missing[filepath.Base(f)] = append(r.missing[filepath.Base(f)], id)
			}
		}
		sort.Strings(r.missing[filepath.Base(f)])
	}
	return r, nil
}

func printReport(w io.Writer, r report) {
	fmt.Fprintln(w, "--- Ids used in code but not defined in "+primaryLocale+" ---")
	ids := make([]string, 0, len(r.undefined))
	for id := range r.undefined {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Fprintf(w, "  - Undefined: %s (%s)\n", id, strings.Join(r.undefined[id], ", "))
	}
	if len(ids) == 0 {
		fmt.Fprintln(w, "  none")
	}

	fmt.Fprintln(w, "--- Ids missing from other locales ---")
	locales := make([]string, 0, len(r.missing))
	for f := range r.missing {
		locales = append(locales, f)
	}
	sort.Strings(locales)
	for _, f := range locales {
		for _, id := range r.missing[f] {
			fmt.Fprintf(w, "  - %s: %s\n", f, id)
		}
	}
	if len(locales) == 0 {
		fmt.Fprintln(w, "  none")
	}

	fmt.Fprintln(w, "--- Orphaned ids ---")
	for _, id := range r.orphaned {
		fmt.Fprintf(w, "  - Orphaned: %s\n", id)
	}
	if len(r.orphaned) == 0 {
		fmt.Fprintln(w, "  none")
	}

	if r.failed() {
		fmt.Fprintln(w, "FAIL: translation catalogs are inconsistent")
	} else {
		fmt.Fprintln(w, "OK: translation catalogs are consistent")
	}
}

// findUsedKeys scans non-test .go files. called holds ids passed directly to
// i18n.T with the files they appear in; mentioned holds every id-shaped
// string literal.
func findUsedKeys(root string) (called map[string][]string, mentioned map[string]struct{}, err error) {
	called = map[string][]string{}
	mentioned = map[string]struct{}{}
	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			switch info.Name() {
			case "tools", "_examples", ".git", "vendor":
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		for _, m := range callRe.FindAllStringSubmatch(string(content), -1) {
			if files := called[m[1]]; len(files) == 0 || files[len(files)-1] != path {
				called[m[1]] = append(files, path)
			}
		}
		for _, m := range literalRe.FindAllStringSubmatch(string(content), -1) {
			mentioned[m[1]] = struct{}{}
		}
		return nil
	})
	return called, mentioned, err
}

// loadKeysFromLocale reads a YAML catalog and returns its ids. Nested maps
// are flattened with '.' the way go-i18n joins them.
func loadKeysFromLocale(path string) (map[string]struct{}, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var data map[string]interface{}
	if err := yaml.Unmarshal(content, &data); err != nil {
		return nil, err
	}
	keys := make(map[string]struct{})
	flattenYAML("", data, keys)
	return keys, nil
}

func flattenYAML(prefix string, node interface{}, keys map[string]struct{}) {
	switch v := node.(type) {
	case map[string]interface{}:
		for k, val := range v {
			next := k
			if prefix != "" {
				next = prefix + "." + k
			}
			flattenYAML(next, val, keys)
		}
	default:
		if prefix != "" {
			keys[prefix] = struct{}{}
		}
	}
}
