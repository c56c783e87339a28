// Package autosign builds self-signed X.509 certificates for development and
// test TLS setups. A certificate names a single host, optionally reachable by
// IP address, and is signed by its own freshly generated RSA key.
package autosign

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"time"

	"github.com/go-i2p/logger"
)

var lgr = logger.GetGoI2PLogger()

// Generate creates a self-signed certificate for hostname and the optional IP
// addresses, signed with a newly generated 2048-bit RSA key. It returns the
// PEM encoded certificate and the PEM encoded unencrypted PKCS#1 private key.
func Generate(hostname string, ipAddresses []string) ([]byte, []byte, error) {
	return GenerateWithKey(hostname, ipAddresses, nil)
}

// GenerateWithKey is Generate with a caller supplied key. A nil key makes it
// generate a new one. Addresses are validated before any key is generated.
func GenerateWithKey(hostname string, ipAddresses []string, key *rsa.PrivateKey) ([]byte, []byte, error) {
	if hostname == "" {
		return nil, nil, ErrEmptyHostname
	}
	addrs, err := parseAddresses(ipAddresses)
	if err != nil {
		return nil, nil, err
	}
	names, err := subjectAltNames(hostname, ipAddresses, addrs)
	if err != nil {
		return nil, nil, err
	}

	if key == nil {
		lgr.WithField("bits", KeyBits).Debug("Generating RSA private key")
		key, err = rsa.GenerateKey(rand.Reader, KeyBits)
		if err != nil {
			lgr.WithError(err).Error("Failed to generate RSA private key")
			return nil, nil, fmt.Errorf("%w: generating key: %v", ErrCrypto, err)
		}
	}

	derBytes, err := newCertificate(hostname, names, key, time.Now())
	if err != nil {
		lgr.WithError(err).WithField("hostname", hostname).Error("Failed to create certificate")
		return nil, nil, fmt.Errorf("%w: creating certificate: %v", ErrCrypto, err)
	}
	lgr.WithField("hostname", hostname).WithField("ip_addresses", ipAddresses).Debug("Created self-signed certificate")

	certPEM := pem.EncodeToMemory(&pem.Block{Type: certificateBlockType, Bytes: derBytes})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: rsaKeyBlockType, Bytes: x509.MarshalPKCS1PrivateKey(key)})
	return certPEM, keyPEM, nil
}

// newCertificate signs a DER certificate whose subject and issuer are both
// CN=hostname, valid from now for ValidityDays.
func newCertificate(hostname string, names []altName, key *rsa.PrivateKey, now time.Time) ([]byte, error) {
	san, err := marshalSubjectAltName(names)
	if err != nil {
		return nil, err
	}
	basicConstraints, err := marshalBasicConstraints()
	if err != nil {
		return nil, err
	}

	now = now.UTC()
	name := pkix.Name{CommonName: hostname}
	template := &x509.Certificate{
		SerialNumber:       big.NewInt(SerialNumber),
		Subject:            name,
		Issuer:             name,
		NotBefore:          now,
		NotAfter:           now.Add(Validity),
		SignatureAlgorithm: x509.SHA256WithRSA,
		ExtraExtensions:    []pkix.Extension{basicConstraints, san},
	}

	// Self-signed: the template is its own parent.
	return x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
}

// Describe summarises a certificate for log output.
func Describe(cert *x509.Certificate) string {
	return fmt.Sprintf("CN=%s dns=%d ip=%d ca=%t pathlen=%d expires=%s",
		cert.Subject.CommonName,
		len(cert.DNSNames),
		len(cert.IPAddresses),
		cert.IsCA,
		cert.MaxPathLen,
		cert.NotAfter.Format(time.RFC3339))
}
