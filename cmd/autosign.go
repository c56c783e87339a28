// Package cmd provides the command-line driver for autosign. It reads the
// input information file, generates the certificate and writes both output
// files.
package cmd

import (
	"fmt"

	"github.com/go-i2p/logger"
	"github.com/urfave/cli/v3"
	"ofp-certificates/autosign"
)

var lgr = logger.GetGoI2PLogger()

// NewAutosignFlags returns the two optional path flags of the tool.
func NewAutosignFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "infile",
			Value: autosign.DefaultInfile,
			Usage: "input information file (hostname followed by IP addresses)",
		},
		&cli.StringFlag{
			Name:  "outdir",
			Value: autosign.DefaultOutdir,
			Usage: "where to generate " + autosign.CertificateFilename + " and " + autosign.KeyFilename,
		},
	}
}

// AutosignAction runs the driver with the flag values and prints a one-line
// diagnostic for any failure.
func AutosignAction(c *cli.Context) error {
	infile := c.String("infile")
	outdir := c.String("outdir")

	if err := Run(infile, outdir); err != nil {
		lgr.WithError(err).WithField("infile", infile).WithField("outdir", outdir).Error("Failed to generate self-signed certificate")
		fmt.Println(err)
		return err
	}
	return nil
}

// Run reads the hostname and IP addresses from infile and writes a fresh
// self-signed certificate and key into outdir. An input file without tokens
// is not an error; nothing is written.
func Run(infile, outdir string) error {
	info, err := autosign.ReadHostInfo(infile)
	if err != nil {
		return fmt.Errorf("reading %s: %w", infile, err)
	}
	if info == nil {
		lgr.WithField("infile", infile).Warn("Input file has no hostname, nothing to generate")
		return nil
	}

	certPEM, keyPEM, err := autosign.Generate(info.Hostname, info.IPAddresses)
	if err != nil {
		return fmt.Errorf("generating certificate for %s: %w", info.Hostname, err)
	}

	ks := autosign.NewKeyStore(outdir)
	if err := ks.Store(certPEM, keyPEM); err != nil {
		return fmt.Errorf("writing to %s: %w", outdir, err)
	}

	cert, err := ks.Certificate()
	if err != nil {
		return fmt.Errorf("%w: reading back %s: %v", autosign.ErrOutput, ks.CertificatePath(), err)
	}
	lgr.WithField("cert_file", ks.CertificatePath()).WithField("key_file", ks.KeyPath()).WithField("certificate", autosign.Describe(cert)).Debug("Wrote self-signed certificate")
	return nil
}
