package autosign

import (
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"
	"net/netip"
	"unicode/utf8"

	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"
	"golang.org/x/net/idna"
)

var (
	oidExtensionBasicConstraints = asn1.ObjectIdentifier{2, 5, 29, 19}
	oidExtensionSubjectAltName   = asn1.ObjectIdentifier{2, 5, 29, 17}
)

// GeneralName context tags from RFC 5280, section 4.2.1.6.
const (
	nameTypeDNS = 2
	nameTypeIP  = 7
)

// altName is a single GeneralName entry of the subjectAltName extension.
// Exactly one of dns and ip is set.
type altName struct {
	dns string
	ip  netip.Addr
}

// parseAddresses converts textual IPv4/IPv6 literals into addresses, keeping
// the input order. Zoned IPv6 literals such as fe80::1%eth0 are rejected
// outright rather than encoded as the unscoped address.
func parseAddresses(ipAddresses []string) ([]netip.Addr, error) {
	addrs := make([]netip.Addr, 0, len(ipAddresses))
	for _, s := range ipAddresses {
		addr, err := netip.ParseAddr(s)
		if err != nil || addr.Zone() != "" {
			lgr.WithField("address", s).Error("Address is not an IPv4 or IPv6 literal")
			return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
		}
		addrs = append(addrs, addr)
	}
	return addrs, nil
}

// subjectAltNames lists the SAN entries for a hostname and its addresses.
// Each address is added twice: OpenSSL based clients look for addresses
// among the DNS names, Go's crypto/tls only accepts the typed IP entry.
func subjectAltNames(hostname string, ipAddresses []string, addrs []netip.Addr) ([]altName, error) {
	dnsName, err := sanDNSName(hostname)
	if err != nil {
		return nil, err
	}
	names := make([]altName, 0, 1+2*len(addrs))
	names = append(names, altName{dns: dnsName})
	for i, addr := range addrs {
		names = append(names, altName{dns: ipAddresses[i]}, altName{ip: addr})
	}
	return names, nil
}

// sanDNSName returns the dNSName form of hostname. ASCII hostnames are used
// verbatim, including labels that look like A-labels. Only hostnames with
// non-ASCII characters are IDNA-encoded, since IA5String cannot carry them.
func sanDNSName(hostname string) (string, error) {
	if isASCII(hostname) {
		return hostname, nil
	}
	dnsName, err := idna.Punycode.ToASCII(hostname)
	if err != nil || !isASCII(dnsName) {
		return "", fmt.Errorf("%w: hostname %q cannot be IDNA-encoded: %v", ErrInput, hostname, err)
	}
	return dnsName, nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// marshalSubjectAltName builds a non-critical subjectAltName extension with
// the entries in the given order.
func marshalSubjectAltName(names []altName) (pkix.Extension, error) {
	var b cryptobyte.Builder
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		for _, name := range names {
			if name.ip.IsValid() {
				b.AddASN1(cryptobyte_asn1.Tag(nameTypeIP).ContextSpecific(), func(b *cryptobyte.Builder) {
					b.AddBytes(name.ip.AsSlice())
				})
				continue
			}
			b.AddASN1(cryptobyte_asn1.Tag(nameTypeDNS).ContextSpecific(), func(b *cryptobyte.Builder) {
				b.AddBytes([]byte(name.dns))
			})
		}
	})
	value, err := b.Bytes()
	if err != nil {
		return pkix.Extension{}, err
	}
	return pkix.Extension{Id: oidExtensionSubjectAltName, Critical: false, Value: value}, nil
}

// marshalBasicConstraints builds a non-critical basicConstraints extension
// marking the certificate as a CA that may not delegate: cA=TRUE,
// pathLenConstraint=0. crypto/x509 always marks the extension it generates
// itself as critical, so it is supplied through ExtraExtensions instead.
func marshalBasicConstraints() (pkix.Extension, error) {
	var b cryptobyte.Builder
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1Boolean(true)
		b.AddASN1Int64(0)
	})
	value, err := b.Bytes()
	if err != nil {
		return pkix.Extension{}, err
	}
	return pkix.Extension{Id: oidExtensionBasicConstraints, Critical: false, Value: value}, nil
}
