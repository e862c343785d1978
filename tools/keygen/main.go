// Package main generates credentials for the authentication service:
//
//	keygen -mode user   [-username alice] [-email a@x] [-out id.json]
//	keygen -mode client
//	keygen -mode tls    [-dir certs] [-host localhost]
//
// "user" creates a secp256k1 key pair and, with -out, a key file for the
// CLI. "client" creates an API key and the digest to store in the clients
// table. "tls" writes a development CA and a server certificate signed by it.
package main

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/hex"
	"encoding/pem"
	"flag"
	"fmt"
	"io"
	"log"
	"math/big"
	"os"
	"path/filepath"
	"time"

	"github.com/atinyakov/zkauth/internal/client"
	"github.com/atinyakov/zkauth/internal/repository"
	"github.com/atinyakov/zkauth/internal/zkp"
)

const apiKeySize = 32

func main() {
	var (
		mode     string
		username string
		email    string
		out      string
		dir      string
		host     string
	)
	flag.StringVar(&mode, "mode", "user", "what to generate: user | client | tls")
	flag.StringVar(&username, "username", "", "username stored in the key file")
	flag.StringVar(&email, "email", "", "email stored in the key file")
	flag.StringVar(&out, "out", "", "write a CLI key file to this path")
	flag.StringVar(&dir, "dir", "certs", "output directory for tls mode")
	flag.StringVar(&host, "host", "localhost", "server DNS name for tls mode")
	flag.Parse()

	var err error
	switch mode {
	case "user":
		err = runUser(os.Stdout, rand.Reader, username, email, out)
	case "client":
		err = runClient(os.Stdout, rand.Reader)
	case "tls":
		err = runTLS(dir, host)
		if err == nil {
			fmt.Printf("Certificates generated into %s\n", dir)
		}
	default:
		err = fmt.Errorf("unknown mode %q", mode)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func runUser(w io.Writer, rnd io.Reader, username, email, out string) error {
	key, err := zkp.GenerateKeyFrom(rnd)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "private_key: %s\n", hex.EncodeToString(key.Bytes()))
	fmt.Fprintf(w, "public_key:  %s\n", key.Public())

	if out == "" {
		return nil
	}
	kf := &client.KeyFile{Username: username, Email: email, PrivateKey: hex.EncodeToString(key.Bytes())}
	return kf.Save(out)
}

// generateAPIKey returns a random API key and its stored digest.
func generateAPIKey(rnd io.Reader) (key, digest string, err error) {
	b := make([]byte, apiKeySize)
	if _, err := io.ReadFull(rnd, b); err != nil {
		return "", "", fmt.Errorf("read random: %w", err)
	}
	key = base64.RawURLEncoding.EncodeToString(b)
	return key, repository.HashAPIKey(key), nil
}

func runClient(w io.Writer, rnd io.Reader) error {
	key, digest, err := generateAPIKey(rnd)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "api_key:      %s\n", key)
	fmt.Fprintf(w, "api_key_hash: %s\n", digest)
	fmt.Fprintf(w, "INSERT INTO clients (name, api_key_hash) VALUES ('<name>', '%s');\n", digest)
	return nil
}

func runTLS(dir, host string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	caCert, caKey, err := generateCA()
	if err != nil {
		return err
	}
	if err := writeCertAndKey(filepath.Join(dir, "ca.crt"), filepath.Join(dir, "ca.key"), caCert, caKey); err != nil {
		return err
	}
	srvCert, srvKey, err := generateServerCert(host, caCert, caKey)
	if err != nil {
		return err
	}
	return writeCertAndKey(filepath.Join(dir, "server.crt"), filepath.Join(dir, "server.key"), srvCert, srvKey)
}

// generateCA creates a self-signed CA valid for 10 years.
func generateCA() (*x509.Certificate, *ecdsa.PrivateKey, error) {
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "zkauth dev CA"},
		NotBefore:             time.Now(),
		NotAfter:              time.Now().AddDate(10, 0, 0),
		IsCA:                  true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
	}
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, err
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		return nil, nil, fmt.Errorf("create CA certificate: %w", err)
	}
	cert, err := x509.ParseCertificate(der)
	return cert, key, err
}

// generateServerCert creates a one-year server certificate for host signed
// by the CA.
func generateServerCert(host string, ca *x509.Certificate, caKey *ecdsa.PrivateKey) (*x509.Certificate, *ecdsa.PrivateKey, error) {
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(time.Now().UnixNano()),
		Subject:               pkix.Name{CommonName: host},
		DNSNames:              []string{host},
		NotBefore:             time.Now(),
		NotAfter:              time.Now().AddDate(1, 0, 0),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, err
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, ca, &key.PublicKey, caKey)
	if err != nil {
		return nil, nil, fmt.Errorf("create server certificate: %w", err)
	}
	cert, err := x509.ParseCertificate(der)
	return cert, key, err
}

// writeCertAndKey writes cert as "CERTIFICATE" and key as "EC PRIVATE KEY"
// PEM files. The key file is owner-readable only.
func writeCertAndKey(certPath, keyPath string, cert *x509.Certificate, key *ecdsa.PrivateKey) error {
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw})
	if err := os.WriteFile(certPath, certPEM, 0o644); err != nil {
		return err
	}
	der, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return err
	}
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der})
	return os.WriteFile(keyPath, keyPEM, 0o600)
}
