// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

// A CertType names the encoding of a client certificate or key file.
type CertType int

const (
	// CertPEM is the default. CertFile and KeyFile are PEM-encoded.
	CertPEM CertType = iota
	// CertPKCS12 marks CertFile as a single PKCS#12 bundle containing
	// both the certificate and the private key, optionally protected
	// by Password. KeyFile is ignored when Type is CertPKCS12.
	CertPKCS12
)

// A ClientCert configures mutual TLS authentication for a Request.
type ClientCert struct {
	// Type selects how CertFile (and KeyFile) are encoded.
	Type CertType

	// CertFile is the path to the client certificate, or, when Type is
	// CertPKCS12, the path to the combined certificate+key bundle.
	CertFile string

	// KeyFile is the path to the PEM-encoded private key. Ignored when
	// Type is CertPKCS12.
	KeyFile string

	// Password decrypts an encrypted private key (PEM) or a
	// password-protected PKCS#12 bundle. Empty means unencrypted.
	Password string
}
