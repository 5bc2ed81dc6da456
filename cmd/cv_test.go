package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writePDF(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("%PDF-1.4 test"), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCVUpload_ShowViewDelete(t *testing.T) {
	e := newCLIEnv(t)
	e.login(t, "lina@x.com")

	code, out := e.run(t, runCVShow)
	if code != 0 || !strings.Contains(out, "No CV on file") {
		t.Fatalf("expected no CV, got %d %q", code, out)
	}

	cvArgs = []string{writePDF(t, "lina.pdf")}
	code, out = e.run(t, runCVUpload)
	if code != 0 || !strings.Contains(out, "Uploaded lina.pdf") {
		t.Fatalf("expected upload, got %d %q", code, out)
	}

	// The cached profile is updated without a revalidation round trip.
	code, out = e.run(t, runCVShow)
	if code != 0 || !strings.Contains(out, "CV: lina.pdf") {
		t.Errorf("expected CV on file, got %d %q", code, out)
	}

	cvOut = "-"
	code, out = e.run(t, runCVView)
	if code != 0 || out != "%PDF-1.4 test" {
		t.Errorf("expected CV bytes, got %d %q", code, out)
	}

	cvOut = filepath.Join(t.TempDir(), "copy.pdf")
	code, out = e.run(t, runCVView)
	if code != 0 || !strings.Contains(out, "Saved") {
		t.Errorf("expected saved file, got %d %q", code, out)
	}
	if data, err := os.ReadFile(cvOut); err != nil || string(data) != "%PDF-1.4 test" {
		t.Errorf("unexpected saved CV %q: %v", data, err)
	}

	code, out = e.run(t, runCVDelete)
	if code != 0 || !strings.Contains(out, "CV removed") {
		t.Errorf("expected removal, got %d %q", code, out)
	}
	_, out = e.run(t, runCVShow)
	if !strings.Contains(out, "No CV on file") {
		t.Errorf("expected no CV after delete, got %q", out)
	}
}

func TestCVUpload_NotPDF(t *testing.T) {
	e := newCLIEnv(t)
	e.login(t, "lina@x.com")
	path := filepath.Join(t.TempDir(), "cv.docx")
	if err := os.WriteFile(path, []byte("doc"), 0o600); err != nil {
		t.Fatal(err)
	}
	cvArgs = []string{path}

	code, out := e.run(t, runCVUpload)
	if code != 1 || !strings.Contains(out, "PDF") {
		t.Errorf("expected PDF refusal, got %d %q", code, out)
	}
}

func TestCVUpload_MissingFile(t *testing.T) {
	e := newCLIEnv(t)
	cvArgs = []string{filepath.Join(t.TempDir(), "missing.pdf")}

	if code, _ := e.run(t, runCVUpload); code != 2 {
		t.Errorf("expected exit code 2, got %d", code)
	}
}

func TestCVView_NoCV(t *testing.T) {
	e := newCLIEnv(t)
	e.login(t, "lina@x.com")
	cvOut = "-"

	if code, _ := e.run(t, runCVView); code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}
}

func TestCVShow_CompanyRefused(t *testing.T) {
	e := newCLIEnv(t)
	e.login(t, "co@x.com")

	if code, _ := e.run(t, runCVShow); code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}
}
