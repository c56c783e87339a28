package autosign

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// KeyStore is the output directory holding the generated certificate and key
// under their fixed file names.
type KeyStore struct {
	Path string
}

// NewKeyStore creates a new KeyStore rooted at path.
func NewKeyStore(path string) *KeyStore {
	return &KeyStore{
		Path: path,
	}
}

// CertificatePath returns the location of the certificate file.
func (ks *KeyStore) CertificatePath() string {
	return filepath.Join(ks.Path, CertificateFilename)
}

// KeyPath returns the location of the private key file.
func (ks *KeyStore) KeyPath() string {
	return filepath.Join(ks.Path, KeyFilename)
}

// Store replaces the certificate and key. Both are first written to
// temporary files in the output directory and only renamed into place once
// both writes succeed, so a failed write never leaves a new certificate next
// to an old key. The key file is readable by the owner only.
func (ks *KeyStore) Store(certPEM, keyPEM []byte) error {
	keyTmp, err := writeTemp(ks.Path, KeyFilename, keyPEM, 0o600)
	if err != nil {
		return err
	}
	defer os.Remove(keyTmp)

	certTmp, err := writeTemp(ks.Path, CertificateFilename, certPEM, 0o644)
	if err != nil {
		return err
	}
	defer os.Remove(certTmp)

	if err := rename(keyTmp, ks.KeyPath()); err != nil {
		return err
	}
	return rename(certTmp, ks.CertificatePath())
}

// writeTemp writes data to a new temporary file in dir and returns its path.
// The file is closed on every path, a failed close is reported like a failed
// write, and the file is removed again on failure.
func writeTemp(dir, name string, data []byte, perm os.FileMode) (_ string, err error) {
	f, err := os.CreateTemp(dir, "."+name+".*")
	if err != nil {
		lgr.WithError(err).WithField("outdir", dir).Error("Failed to create output file")
		return "", fmt.Errorf("%w: %v", ErrOutput, err)
	}
	tmp := f.Name()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			lgr.WithError(cerr).WithField("path", tmp).Error("Failed to close output file")
			err = fmt.Errorf("%w: %v", ErrOutput, cerr)
		}
		if err != nil {
			os.Remove(tmp)
		}
	}()

	if err := f.Chmod(perm); err != nil {
		lgr.WithError(err).WithField("path", tmp).Error("Failed to set output file mode")
		return "", fmt.Errorf("%w: %v", ErrOutput, err)
	}
	if _, err := f.Write(data); err != nil {
		lgr.WithError(err).WithField("path", tmp).Error("Failed to write output file")
		return "", fmt.Errorf("%w: %v", ErrOutput, err)
	}
	return tmp, nil
}

func rename(from, to string) error {
	if err := os.Rename(from, to); err != nil {
		lgr.WithError(err).WithField("path", to).Error("Failed to replace output file")
		return fmt.Errorf("%w: %v", ErrOutput, err)
	}
	return nil
}

// Certificate loads the stored certificate.
func (ks *KeyStore) Certificate() (*x509.Certificate, error) {
	block, err := readPEM(ks.CertificatePath(), certificateBlockType)
	if err != nil {
		return nil, err
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		lgr.WithError(err).WithField("cert_file", ks.CertificatePath()).Error("Failed to parse certificate")
		return nil, err
	}
	return cert, nil
}

// PrivateKey loads the stored PKCS#1 private key.
func (ks *KeyStore) PrivateKey() (*rsa.PrivateKey, error) {
	block, err := readPEM(ks.KeyPath(), rsaKeyBlockType)
	if err != nil {
		return nil, err
	}
	key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		lgr.WithError(err).WithField("key_file", ks.KeyPath()).Error("Failed to parse private key")
		return nil, err
	}
	return key, nil
}

func readPEM(path, blockType string) (*pem.Block, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		lgr.WithError(err).WithField("path", path).Error("Failed to read PEM file")
		return nil, err
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("no PEM data found in " + path)
	}
	if block.Type != blockType {
		return nil, fmt.Errorf("unexpected PEM block %q in %s, want %q", block.Type, path, blockType)
	}
	return block, nil
}
