package cipher

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
)

// GenerateKeyPair creates an RSA key pair. The private key is PKCS#8 PEM
// sealed through Encrypt before it leaves this function.
func (c *AESGCM) GenerateKeyPair() (KeyPair, error) {
	priv, err := rsa.GenerateKey(c.rand, c.rsaBits)
	if err != nil {
		return KeyPair{}, fmt.Errorf("cipher: rsa generate: %w", err)
	}

	pubDER, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		return KeyPair{}, fmt.Errorf("cipher: marshal public key: %w", err)
	}
	privDER, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return KeyPair{}, fmt.Errorf("cipher: marshal private key: %w", err)
	}

	wrapped, err := c.Encrypt(string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER})))
	if err != nil {
		return KeyPair{}, err
	}

	return KeyPair{
		PublicKey:  string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})),
		PrivateKey: wrapped,
	}, nil
}

// ParsePrivateKey unwraps and parses a private key produced by GenerateKeyPair.
func ParsePrivateKey(c Cipher, wrapped Blob, version int) (*rsa.PrivateKey, error) {
	raw, err := c.DecryptVersion(wrapped, version)
	if err != nil {
		return nil, err
	}

	block, _ := pem.Decode([]byte(raw))
	if block == nil {
		return nil, ErrDecryption
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("cipher: parse private key: %w", err)
	}
	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("cipher: unexpected private key type %T", key)
	}
	return rsaKey, nil
}
