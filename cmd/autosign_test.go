package cmd

import (
	"bytes"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v3"
	"ofp-certificates/autosign"
)

func writeInfile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "info.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write input file: %v", err)
	}
	return path
}

func assertNoOutput(t *testing.T, outdir string) {
	t.Helper()
	for _, name := range []string{autosign.CertificateFilename, autosign.KeyFilename} {
		if _, err := os.Stat(filepath.Join(outdir, name)); !os.IsNotExist(err) {
			t.Errorf("Expected no %s, stat returned %v", name, err)
		}
	}
}

func loadOutput(t *testing.T, outdir string) *x509.Certificate {
	t.Helper()
	ks := autosign.NewKeyStore(outdir)
	cert, err := ks.Certificate()
	if err != nil {
		t.Fatalf("Failed to load certificate: %v", err)
	}
	key, err := ks.PrivateKey()
	if err != nil {
		t.Fatalf("Failed to load private key: %v", err)
	}
	if !key.PublicKey.Equal(cert.PublicKey) {
		t.Error("Written key does not match written certificate")
	}
	return cert
}

func TestRun_GeneratesFiles(t *testing.T) {
	testCases := []struct {
		name       string
		content    string
		wantCN     string
		wantDNS    int
		wantIPs    int
		wantSANLen int
	}{
		{
			name:       "hostname only",
			content:    "myhost",
			wantCN:     "myhost",
			wantDNS:    1,
			wantIPs:    0,
			wantSANLen: 1,
		},
		{
			name:       "hostname with IPv4 and IPv6",
			content:    "myhost 10.0.0.1 2001:db8::1",
			wantCN:     "myhost",
			wantDNS:    3,
			wantIPs:    2,
			wantSANLen: 5,
		},
		{
			name:       "addresses on separate lines",
			content:    "myhost\n10.0.0.1\n",
			wantCN:     "myhost",
			wantDNS:    2,
			wantIPs:    1,
			wantSANLen: 3,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			infile := writeInfile(t, dir, tc.content)

			if err := Run(infile, dir); err != nil {
				t.Fatalf("Run failed: %v", err)
			}

			cert := loadOutput(t, dir)
			if cert.Subject.CommonName != tc.wantCN {
				t.Errorf("CN = %q, want %q", cert.Subject.CommonName, tc.wantCN)
			}
			if cert.DNSNames[0] != tc.wantCN {
				t.Errorf("First DNS name = %q, want hostname %q", cert.DNSNames[0], tc.wantCN)
			}
			if len(cert.DNSNames) != tc.wantDNS || len(cert.IPAddresses) != tc.wantIPs {
				t.Errorf("Got %d DNS and %d IP entries, want %d and %d",
					len(cert.DNSNames), len(cert.IPAddresses), tc.wantDNS, tc.wantIPs)
			}
			if got := len(cert.DNSNames) + len(cert.IPAddresses); got != tc.wantSANLen {
				t.Errorf("SAN has %d entries, want %d", got, tc.wantSANLen)
			}
		})
	}
}

func TestRun_EmptyInput(t *testing.T) {
	for name, content := range map[string]string{"empty": "", "whitespace only": "  \n\t\n"} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			infile := writeInfile(t, dir, content)

			if err := Run(infile, dir); err != nil {
				t.Fatalf("Expected no error for empty input, got %v", err)
			}
			assertNoOutput(t, dir)
		})
	}
}

func TestRun_Failures(t *testing.T) {
	t.Run("malformed address", func(t *testing.T) {
		dir := t.TempDir()
		infile := writeInfile(t, dir, "myhost not-an-ip")

		err := Run(infile, dir)
		if !errors.Is(err, autosign.ErrInvalidAddress) {
			t.Fatalf("Expected invalid address error, got %v", err)
		}
		assertNoOutput(t, dir)
	})

	t.Run("missing input file", func(t *testing.T) {
		dir := t.TempDir()
		err := Run(filepath.Join(dir, "missing.txt"), dir)
		if !errors.Is(err, autosign.ErrInput) {
			t.Fatalf("Expected input error, got %v", err)
		}
		assertNoOutput(t, dir)
	})

	t.Run("missing output directory", func(t *testing.T) {
		dir := t.TempDir()
		infile := writeInfile(t, dir, "myhost")
		err := Run(infile, filepath.Join(dir, "nope"))
		if !errors.Is(err, autosign.ErrOutput) {
			t.Fatalf("Expected output error, got %v", err)
		}
	})
}

func TestRun_Overwrites(t *testing.T) {
	dir := t.TempDir()
	infile := writeInfile(t, dir, "first-host")
	if err := Run(infile, dir); err != nil {
		t.Fatalf("First run failed: %v", err)
	}
	firstKey, err := os.ReadFile(filepath.Join(dir, autosign.KeyFilename))
	if err != nil {
		t.Fatalf("Failed to read key: %v", err)
	}

	infile = writeInfile(t, dir, "second-host")
	if err := Run(infile, dir); err != nil {
		t.Fatalf("Second run failed: %v", err)
	}
	if cert := loadOutput(t, dir); cert.Subject.CommonName != "second-host" {
		t.Errorf("CN = %q after second run, want second-host", cert.Subject.CommonName)
	}
	secondKey, err := os.ReadFile(filepath.Join(dir, autosign.KeyFilename))
	if err != nil {
		t.Fatalf("Failed to read key: %v", err)
	}
	if string(firstKey) == string(secondKey) {
		t.Error("Expected a fresh key on every run")
	}
	if block, _ := pem.Decode(secondKey); block == nil || block.Type != "RSA PRIVATE KEY" {
		t.Error("Key file is not a PKCS#1 PEM block")
	}
}

func newTestApp() *cli.App {
	app := cli.NewApp()
	app.Name = "autosign"
	app.Flags = NewAutosignFlags()
	app.Action = AutosignAction
	return app
}

func TestAutosignApp_Flags(t *testing.T) {
	dir := t.TempDir()
	infile := writeInfile(t, dir, "myhost 10.0.0.1")
	outdir := filepath.Join(dir, "out")
	if err := os.Mkdir(outdir, 0o755); err != nil {
		t.Fatalf("Failed to create output dir: %v", err)
	}

	if err := newTestApp().Run([]string{"autosign", "--infile", infile, "--outdir", outdir}); err != nil {
		t.Fatalf("App run failed: %v", err)
	}
	loadOutput(t, outdir)

	bad := writeInfile(t, dir, "myhost 999.0.0.1")
	if err := newTestApp().Run([]string{"autosign", "--infile", bad, "--outdir", dir}); err == nil {
		t.Error("Expected the app to report a malformed address")
	}
	assertNoOutput(t, dir)
}

// captureStdout runs fn with os.Stdout redirected and returns what it printed.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Failed to create pipe: %v", err)
	}
	original := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = original }()

	done := make(chan []byte)
	go func() {
		var buf bytes.Buffer
		io.Copy(&buf, r)
		done <- buf.Bytes()
	}()

	fn()
	w.Close()
	out := <-done
	r.Close()
	return string(out)
}

func TestAutosignAction_Diagnostic(t *testing.T) {
	dir := t.TempDir()
	infile := writeInfile(t, dir, "myhost not-an-ip")

	var runErr error
	out := captureStdout(t, func() {
		runErr = newTestApp().Run([]string{"autosign", "--infile", infile, "--outdir", dir})
	})

	if !errors.Is(runErr, autosign.ErrInvalidAddress) {
		t.Fatalf("Expected invalid address error, got %v", runErr)
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 1 {
		t.Fatalf("Expected exactly one diagnostic line, got %d: %q", len(lines), out)
	}
	if lines[0] != runErr.Error() || !strings.Contains(lines[0], "not-an-ip") {
		t.Errorf("Diagnostic = %q, want the error naming the bad address", lines[0])
	}
	assertNoOutput(t, dir)
}

func TestAutosignAction_SuccessIsSilent(t *testing.T) {
	dir := t.TempDir()
	infile := writeInfile(t, dir, "myhost 10.0.0.1")

	out := captureStdout(t, func() {
		if err := newTestApp().Run([]string{"autosign", "--infile", infile, "--outdir", dir}); err != nil {
			t.Errorf("App run failed: %v", err)
		}
	})
	if out != "" {
		t.Errorf("Expected no output on success, got %q", out)
	}
	loadOutput(t, dir)
}
