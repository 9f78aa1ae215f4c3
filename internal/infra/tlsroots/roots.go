package tlsroots

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

var (
	// ErrNoCertsFound is returned when PEM data holds no CERTIFICATE block.
	ErrNoCertsFound = errors.New("tlsroots: no certificates found in PEM data")
)

// Pool is a set of trusted certificates, used as RootCAs by clients and
// as ClientCAs by servers that verify client certificates.
type Pool struct {
	certPool *x509.CertPool
	count    int
}

// NewPool returns a pool seeded with the system roots. Platforms without
// a system pool get an empty one.
func NewPool() *Pool {
	pool, err := x509.SystemCertPool()
	if err != nil {
		pool = x509.NewCertPool()
	}
	return &Pool{certPool: pool}
}

// NewEmptyPool returns a pool with no certificates.
func NewEmptyPool() *Pool {
	return &Pool{certPool: x509.NewCertPool()}
}

// LoadPool returns an empty pool holding the certificates in path.
func LoadPool(path string) (*Pool, error) {
	p := NewEmptyPool()
	if err := p.AddCertFile(path); err != nil {
		return nil, err
	}
	return p, nil
}

// AddCertFile adds every certificate in a PEM file.
func (p *Pool) AddCertFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("tlsroots: read cert file %s: %w", path, err)
	}
	if err := p.AddCertPEM(data); err != nil {
		return fmt.Errorf("%w (%s)", err, path)
	}
	return nil
}

// AddCertPEM adds every CERTIFICATE block in pemData. Other block types
// are skipped.
func (p *Pool) AddCertPEM(pemData []byte) error {
	added := 0
	for len(pemData) > 0 {
		var block *pem.Block
		block, pemData = pem.Decode(pemData)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}

		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return fmt.Errorf("tlsroots: parse certificate: %w", err)
		}
		p.certPool.AddCert(cert)
		added++
	}

	if added == 0 {
		return ErrNoCertsFound
	}
	p.count += added
	return nil
}

// Len returns how many certificates were added explicitly. System roots
// are not counted.
func (p *Pool) Len() int {
	return p.count
}

// Pool returns the underlying x509.CertPool.
func (p *Pool) Pool() *x509.CertPool {
	return p.certPool
}

// ClientTLSConfig returns a client config trusting this pool. insecure
// skips server verification entirely.
func (p *Pool) ClientTLSConfig(serverName string, insecure bool) *tls.Config {
	return &tls.Config{
		RootCAs:            p.certPool,
		ServerName:         serverName,
		InsecureSkipVerify: insecure,
		MinVersion:         tls.VersionTLS12,
	}
}

// ServerTLSConfig returns a server config that serves the certificate
// from getCert. A non-nil clientCAs requires and verifies client
// certificates against it.
func ServerTLSConfig(getCert func(*tls.ClientHelloInfo) (*tls.Certificate, error), clientCAs *Pool) *tls.Config {
	cfg := &tls.Config{
		GetCertificate: getCert,
		MinVersion:     tls.VersionTLS12,
	}
	if clientCAs != nil {
		cfg.ClientCAs = clientCAs.certPool
		cfg.ClientAuth = tls.RequireAndVerifyClientCert
	}
	return cfg
}
