package main

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"html-grader/internal/config"
	"html-grader/internal/fetcher"
)

const indexHTML = `<html><head></head><body><div id="header"><h1>Hi</h1></div></body></html>`

func writeFixtures(t *testing.T) (htmlFile, checksFile string) {
	t.Helper()
	dir := t.TempDir()
	htmlFile = filepath.Join(dir, "index.html")
	checksFile = filepath.Join(dir, "checks.json")
	if err := os.WriteFile(htmlFile, []byte(indexHTML), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(checksFile, []byte(`["h1", "#header", ".missing"]`), 0o600); err != nil {
		t.Fatal(err)
	}
	return htmlFile, checksFile
}

// execute runs the root command and reports diagnostics the way Execute does.
func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var outBuf, errBuf bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)
	err = cmd.Execute()
	if err != nil {
		reportError(&outBuf, &errBuf, err)
	}
	return outBuf.String(), errBuf.String(), err
}

// TestNewRootCmd tests the root command flags.
func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()

	flags := []struct {
		name      string
		shorthand string
		defValue  string
	}{
		{"checks", "c", "checks.json"},
		{"file", "f", "index.html"},
		{"url", "u", "http://www.google.com"},
		{"verbose", "v", "false"},
		{"config", "", ""},
		{"render", "", "false"},
	}

	for _, tt := range flags {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			flag := cmd.Flags().Lookup(tt.name)
			if flag == nil {
				t.Fatalf("expected %s flag", tt.name)
			}
			if flag.Shorthand != tt.shorthand {
				t.Errorf("expected shorthand %q, got %q", tt.shorthand, flag.Shorthand)
			}
			if flag.DefValue != tt.defValue {
				t.Errorf("expected default %q, got %q", tt.defValue, flag.DefValue)
			}
		})
	}
}

func TestRootCmdFileMode(t *testing.T) {
	htmlFile, checksFile := writeFixtures(t)

	stdout, _, err := execute(t, "-c", checksFile, "-f", htmlFile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := "{\n    \"#header\": true,\n    \".missing\": false,\n    \"h1\": true\n}\n"
	if stdout != expected {
		t.Errorf("stdout = %q, want %q", stdout, expected)
	}
}

func TestRootCmdURLMode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><h1>Remote</h1></body></html>`))
	}))
	defer srv.Close()

	_, checksFile := writeFixtures(t)

	// --file указывает на несуществующий файл: в режиме URL он игнорируется
	stdout, _, err := execute(t, "--checks", checksFile, "--file", "no-such.html", "--url", srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout, `"#header": false`) || !strings.Contains(stdout, `"h1": true`) {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestRootCmdMissingFile(t *testing.T) {
	_, checksFile := writeFixtures(t)
	missing := filepath.Join(t.TempDir(), "missing.html")

	stdout, _, err := execute(t, "-c", checksFile, "-f", missing)
	if !errors.Is(err, errMissingFile) {
		t.Fatalf("error = %v, want errMissingFile", err)
	}
	if stdout != missing+" does not exist. Exiting.\n" {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestRootCmdMissingChecksFile(t *testing.T) {
	htmlFile, _ := writeFixtures(t)
	missing := filepath.Join(t.TempDir(), "checks.json")

	stdout, _, err := execute(t, "-c", missing, "-f", htmlFile)
	if !errors.Is(err, errMissingFile) {
		t.Fatalf("error = %v, want errMissingFile", err)
	}
	if !strings.Contains(stdout, "does not exist. Exiting.") || strings.Contains(stdout, "{") {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestRootCmdInvalidURL(t *testing.T) {
	_, checksFile := writeFixtures(t)

	stdout, _, err := execute(t, "-c", checksFile, "-u", "ftp://example.com")
	if !errors.Is(err, errInvalidURL) {
		t.Fatalf("error = %v, want errInvalidURL", err)
	}
	if stdout != "Url ftp://example.com is invalid. Exiting.\n" {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestRootCmdFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	_, checksFile := writeFixtures(t)

	stdout, stderr, err := execute(t, "-c", checksFile, "-u", addr)
	if !errors.Is(err, fetcher.ErrFetch) {
		t.Fatalf("error = %v, want ErrFetch", err)
	}
	if stdout != "" {
		t.Errorf("no JSON expected on fetch error, got %q", stdout)
	}
	if !strings.Contains(stderr, "Error downloading url: ") || !strings.Contains(stderr, "connect") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestRootCmdMalformedChecks(t *testing.T) {
	htmlFile, checksFile := writeFixtures(t)
	if err := os.WriteFile(checksFile, []byte(`{"h1": true}`), 0o600); err != nil {
		t.Fatal(err)
	}

	stdout, stderr, err := execute(t, "-c", checksFile, "-f", htmlFile)
	if !errors.Is(err, config.ErrMalformedChecks) {
		t.Fatalf("error = %v, want ErrMalformedChecks", err)
	}
	if stdout != "" || stderr == "" {
		t.Errorf("stdout = %q, stderr = %q", stdout, stderr)
	}
}

func TestRootCmdRejectsArgs(t *testing.T) {
	if _, _, err := execute(t, "extra"); err == nil {
		t.Error("expected error for positional argument")
	}
}
