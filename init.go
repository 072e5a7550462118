package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/phobologic/apislice/internal/config"
)

const (
	sentinelStart = "# apislice:start"
	sentinelEnd   = "# apislice:end"

	keywordsFile = "keywords.json"
)

// runInit implements the `apislice init` subcommand, which writes a starter
// keyword file and a config file into a directory.
func runInit(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("apislice init", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var dryRun bool
	fs.BoolVar(&dryRun, "dry-run", false, "print what would be written without modifying any file")

	fs.Usage = func() {
		fmt.Fprintf(stderr, `Usage: apislice init [flags] [dir]

Write a starter %s and %s into dir. The keyword file is only created
when missing. The settings in the config file are wrapped in sentinel
comments so they can be updated in place on subsequent runs without
touching surrounding content.

dir defaults to the current directory.

Flags:
`, keywordsFile, config.DefaultFile)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	dir := "."
	if fs.NArg() > 0 {
		dir = fs.Arg(0)
	}
	keywordsPath := filepath.Join(dir, keywordsFile)
	configPath := filepath.Join(dir, config.DefaultFile)

	existing, _ := os.ReadFile(configPath)
	updated := applySection(string(existing), generateSection())

	_, err := os.Stat(keywordsPath)
	writeKeywords := errors.Is(err, os.ErrNotExist)

	if dryRun {
		if writeKeywords {
			_, _ = fmt.Fprintf(stdout, "--- %s\n%s", keywordsPath, starterKeywords)
		}
		_, _ = fmt.Fprintf(stdout, "--- %s\n%s", configPath, updated)
		return nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	if writeKeywords {
		if err := os.WriteFile(keywordsPath, []byte(starterKeywords), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", keywordsPath, err)
		}
		_, _ = fmt.Fprintf(stderr, "wrote %s\n", keywordsPath)
	}
	if err := os.WriteFile(configPath, []byte(updated), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", configPath, err)
	}

	_, _ = fmt.Fprintf(stderr, "wrote apislice section to %s\n", configPath)
	return nil
}

// starterKeywords covers process, native interop, registry and crypto use.
const starterKeywords = `{
  "invocation": [
    "Process.Start",
    "Assembly.Load",
    "Marshal.Copy",
    "Registry.SetValue",
    "WebClient.DownloadData"
  ],
  "invoke": [
    "VirtualAlloc",
    "VirtualProtect",
    "CreateRemoteThread",
    "WriteProcessMemory",
    "LoadLibrary",
    "GetProcAddress"
  ],
  "staticclass": [
    "Microsoft.Win32.Registry"
  ],
  "property": [
    "ProcessStartInfo.FileName",
    "ProcessStartInfo.Arguments",
    "SymmetricAlgorithm.Key"
  ],
  "class": [
    "System.Security.Cryptography.Aes",
    "System.Security.Cryptography.RijndaelManaged",
    "System.Net.WebClient"
  ]
}
`

// generateSection returns the sentinel-wrapped default settings.
func generateSection() string {
	d := config.Default()
	body := fmt.Sprintf(`# Settings for apislice. Flags and APISLICE_* variables override them.
out: %s
logs: %s
rules: %s
workers: %d
timeout: %s
# Keep only the N largest slices per file; 0 keeps all.
max_slices: 0
# Drop a slice whose node count passes N; 0 disables the guard.
max_slice_nodes: 0
# Extra reference catalogs (files or directories of YAML).
refs: []`, d.Out, d.Logs, d.Rules, d.Workers, d.Timeout)

	return sentinelStart + "\n" + body + "\n" + sentinelEnd
}

// applySection inserts section into content, replacing an existing sentinel
// block if present or appending if not. It is a pure function for easy testing.
func applySection(content, section string) string {
	start := strings.Index(content, sentinelStart)
	end := strings.Index(content, sentinelEnd)

	if start >= 0 && end > start {
		return content[:start] + section + content[end+len(sentinelEnd):]
	}

	// Append, ensuring a blank line separator.
	if len(content) > 0 && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	if len(content) > 0 {
		content += "\n"
	}
	return content + section + "\n"
}
