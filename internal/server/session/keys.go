package session

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"os"

	"github.com/pkg/errors"
)

// GenerateKeys generates a new Ed25519 keypair and writes it PEM encoded to
// the given paths.
func GenerateKeys(privateKeyPath, publicKeyPath string) error {
	public, private, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return errors.Wrap(err, "could not generate keypair")
	}

	payload, err := x509.MarshalPKCS8PrivateKey(private)
	if err != nil {
		return errors.Wrap(err, "could not marshal private key")
	}
	block := &pem.Block{Type: "PRIVATE KEY", Bytes: payload}
	if err = os.WriteFile(privateKeyPath, pem.EncodeToMemory(block), 0600); err != nil {
		return errors.Wrap(err, "could not write private key")
	}

	payload, err = x509.MarshalPKIXPublicKey(public)
	if err != nil {
		return errors.Wrap(err, "could not marshal public key")
	}
	block = &pem.Block{Type: "PUBLIC KEY", Bytes: payload}
	return errors.Wrap(os.WriteFile(publicKeyPath, pem.EncodeToMemory(block), 0644), "could not write public key")
}

// LoadKeys loads the PEM encoded Ed25519 keypair from the given paths.
func LoadKeys(privateKeyPath, publicKeyPath string) (ed25519.PrivateKey, ed25519.PublicKey, error) {
	payload, err := os.ReadFile(privateKeyPath)
	if err != nil {
		return nil, nil, errors.Wrap(err, "could not read private key")
	}
	block, _ := pem.Decode(payload)
	if block == nil || block.Type != "PRIVATE KEY" {
		return nil, nil, errors.New("malformed private key")
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, nil, errors.Wrap(err, "could not parse private key")
	}
	private, ok := key.(ed25519.PrivateKey)
	if !ok {
		return nil, nil, errors.New("private key is not Ed25519")
	}

	payload, err = os.ReadFile(publicKeyPath)
	if err != nil {
		return nil, nil, errors.Wrap(err, "could not read public key")
	}
	block, _ = pem.Decode(payload)
	if block == nil || block.Type != "PUBLIC KEY" {
		return nil, nil, errors.New("malformed public key")
	}
	key, err = x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, nil, errors.Wrap(err, "could not parse public key")
	}
	public, ok := key.(ed25519.PublicKey)
	if !ok {
		return nil, nil, errors.New("public key is not Ed25519")
	}

	return private, public, nil
}
