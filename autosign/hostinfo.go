package autosign

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"
)

// HostInfo is the parsed content of an input information file.
type HostInfo struct {
	Hostname    string
	IPAddresses []string
}

// ParseHostInfo reads r to the end and splits it on whitespace. Spaces, tabs
// and newlines are treated alike. The first token is the hostname and the
// remaining tokens are IP addresses in input order. It returns nil and no
// error when r holds no tokens.
func ParseHostInfo(r io.Reader) (*HostInfo, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInput, err)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: input is not valid UTF-8", ErrInput)
	}

	tokens := strings.Fields(string(data))
	if len(tokens) == 0 {
		return nil, nil
	}
	return &HostInfo{
		Hostname:    tokens[0],
		IPAddresses: tokens[1:],
	}, nil
}

// ReadHostInfo opens path and parses it with ParseHostInfo.
func ReadHostInfo(path string) (*HostInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		lgr.WithError(err).WithField("infile", path).Error("Failed to open input file")
		return nil, fmt.Errorf("%w: %v", ErrInput, err)
	}
	defer f.Close()

	info, err := ParseHostInfo(f)
	if err != nil {
		lgr.WithError(err).WithField("infile", path).Error("Failed to read input file")
		return nil, err
	}
	return info, nil
}
