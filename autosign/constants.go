package autosign

import "time"

// Output file names written into the output directory on every run.
const (
	// CertificateFilename holds the PEM encoded self-signed certificate.
	CertificateFilename = "autosign.crt"
	// KeyFilename holds the PEM encoded, unencrypted PKCS#1 private key.
	KeyFilename = "autosign.key"
)

// Command line defaults.
const (
	DefaultInfile = "info.txt"
	DefaultOutdir = "."
)

// Certificate parameters
const (
	// SerialNumber is fixed. Every run produces a standalone self-signed
	// certificate, so it is never part of a chain with sibling certificates
	// from the same issuer.
	SerialNumber = 1000
	// KeyBits is the RSA modulus size. The public exponent is always 65537.
	KeyBits = 2048
	// ValidityDays is the distance between notBefore and notAfter.
	ValidityDays = 3650
)

// Validity is ValidityDays expressed as a duration.
const Validity = ValidityDays * 24 * time.Hour

// PEM block types
const (
	certificateBlockType = "CERTIFICATE"
	rsaKeyBlockType      = "RSA PRIVATE KEY"
)
