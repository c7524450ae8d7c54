package server

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"math/big"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"github.com/jonwraymond/rpccache/echo"
)

type testCert struct {
	certPEM string
	keyPEM  string
	cert    *x509.Certificate
	key     *ecdsa.PrivateKey
}

func issueCert(t *testing.T, parent *testCert, cn string, isCA bool, usage x509.ExtKeyUsage) *testCert {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(time.Now().UnixNano()),
		Subject:               pkix.Name{CommonName: cn},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		BasicConstraintsValid: true,
		IsCA:                  isCA,
		DNSNames:              []string{"localhost"},
	}
	if isCA {
		tmpl.KeyUsage = x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature
	} else {
		tmpl.KeyUsage = x509.KeyUsageDigitalSignature
		tmpl.ExtKeyUsage = []x509.ExtKeyUsage{usage}
	}

	signer, signerKey := tmpl, key
	if parent != nil {
		signer, signerKey = parent.cert, parent.key
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, signer, &key.PublicKey, signerKey)
	if err != nil {
		t.Fatal(err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatal(err)
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatal(err)
	}
	return &testCert{
		certPEM: string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})),
		keyPEM:  string(pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})),
		cert:    cert,
		key:     key,
	}
}

func TestServerCredentials_Errors(t *testing.T) {
	ca := issueCert(t, nil, "ca", true, 0)
	srv := issueCert(t, ca, "localhost", false, x509.ExtKeyUsageServerAuth)

	if _, err := ServerCredentials("garbage", "garbage", ""); !errors.Is(err, ErrInvalidCertificate) {
		t.Errorf("bad pair error = %v, want ErrInvalidCertificate", err)
	}
	if _, err := ServerCredentials(srv.certPEM, srv.keyPEM, "not pem"); !errors.Is(err, ErrInvalidCA) {
		t.Errorf("bad ca error = %v, want ErrInvalidCA", err)
	}
	creds, err := ServerCredentials(srv.certPEM, srv.keyPEM, ca.certPEM)
	if err != nil {
		t.Fatalf("ServerCredentials() error = %v", err)
	}
	if got := creds.Info().SecurityProtocol; got != "tls" {
		t.Errorf("SecurityProtocol = %q, want tls", got)
	}
}

func TestMutualTLS(t *testing.T) {
	ca := issueCert(t, nil, "ca", true, 0)
	srv := issueCert(t, ca, "localhost", false, x509.ExtKeyUsageServerAuth)
	cli := issueCert(t, ca, "client", false, x509.ExtKeyUsageClientAuth)

	serverCreds, err := ServerCredentials(srv.certPEM, srv.keyPEM, ca.certPEM)
	if err != nil {
		t.Fatalf("ServerCredentials() error = %v", err)
	}
	clientCreds, err := ClientCredentials(ca.certPEM, cli.certPEM, cli.keyPEM, "localhost")
	if err != nil {
		t.Fatalf("ClientCredentials() error = %v", err)
	}

	stack := newTestStack(t, stackOptions{serverCreds: serverCreds, clientCreds: clientCreds})
	resp, err := stack.client.UnaryEcho(context.Background(), echo.UnaryEchoRequest{Message: "secure"})
	if err != nil {
		t.Fatalf("UnaryEcho() over mTLS error = %v", err)
	}
	if resp.Message != "secure" {
		t.Errorf("Message = %q", resp.Message)
	}
}

func TestMutualTLS_RejectsAnonymousClient(t *testing.T) {
	ca := issueCert(t, nil, "ca", true, 0)
	srv := issueCert(t, ca, "localhost", false, x509.ExtKeyUsageServerAuth)

	serverCreds, err := ServerCredentials(srv.certPEM, srv.keyPEM, ca.certPEM)
	if err != nil {
		t.Fatalf("ServerCredentials() error = %v", err)
	}
	s := New(nil, Options{Credentials: serverCreds})
	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, lis) }()
	defer func() { cancel(); <-done }()

	client, err := NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	defer client.Close()

	callCtx, callCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer callCancel()
	if _, err := client.UnaryEcho(callCtx, echo.UnaryEchoRequest{Message: "x"}); err == nil {
		t.Fatal("plaintext client reached an mTLS server")
	}
}
