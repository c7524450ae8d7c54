package server

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"strconv"

	"google.golang.org/grpc/credentials"
)

var (
	ErrInvalidCertificate = errors.New("server: invalid certificate or key")
	ErrInvalidCA          = errors.New("server: ca certificate contains no PEM certificates")
)

// ServerCredentials builds TLS credentials from PEM contents. A non-empty
// caPEM additionally requires client certificates signed by that CA.
func ServerCredentials(certPEM, keyPEM, caPEM string) (credentials.TransportCredentials, error) {
	cert, err := tls.X509KeyPair([]byte(certPEM), []byte(keyPEM))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCertificate, err)
	}

	cfg := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}
	if caPEM != "" {
		pool, err := certPool(caPEM)
		if err != nil {
			return nil, err
		}
		cfg.ClientCAs = pool
		cfg.ClientAuth = tls.RequireAndVerifyClientCert
	}
	return credentials.NewTLS(cfg), nil
}

// ClientCredentials builds client TLS credentials. caPEM verifies the
// server; certPEM and keyPEM, when set, present a client certificate.
func ClientCredentials(caPEM, certPEM, keyPEM, serverName string) (credentials.TransportCredentials, error) {
	cfg := &tls.Config{ServerName: serverName, MinVersion: tls.VersionTLS12}
	if caPEM != "" {
		pool, err := certPool(caPEM)
		if err != nil {
			return nil, err
		}
		cfg.RootCAs = pool
	}
	if certPEM != "" || keyPEM != "" {
		cert, err := tls.X509KeyPair([]byte(certPEM), []byte(keyPEM))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCertificate, err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}
	return credentials.NewTLS(cfg), nil
}

func certPool(caPEM string) (*x509.CertPool, error) {
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM([]byte(caPEM)) {
		return nil, ErrInvalidCA
	}
	return pool, nil
}

// ListenAddress returns the bind address for port: all IPv6 interfaces when
// ipv6 is set, all IPv4 interfaces otherwise.
func ListenAddress(port int, ipv6 bool) string {
	host := "0.0.0.0"
	if ipv6 {
		host = "::"
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}
