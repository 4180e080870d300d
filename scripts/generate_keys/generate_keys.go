package main

import (
	"crypto/sha256"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/addispay/telebirr-gateway/pkg/crypto"
)

// Generates a local RSA signing keypair for development. Production keys
// come from the merchant portal and live in the secret manager; never
// check generated keys into version control.
func main() {
	outputDir := flag.String("out", "secrets/local", "directory to write the PEM files to")
	name := flag.String("name", "merchant", "base name for the generated key files")
	flag.Parse()

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	keyPair, err := crypto.GenerateRSAKeyPair()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to generate key pair: %v\n", err)
		os.Exit(1)
	}

	privateKeyPath := filepath.Join(*outputDir, *name+"_private.pem")
	if err := os.WriteFile(privateKeyPath, []byte(keyPair.PrivateKeyPEM), 0o600); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write private key: %v\n", err)
		os.Exit(1)
	}

	publicKeyPath := filepath.Join(*outputDir, *name+"_public.pem")
	if err := os.WriteFile(publicKeyPath, []byte(keyPair.PublicKeyPEM), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write public key: %v\n", err)
		os.Exit(1)
	}

	sum := sha256.Sum256([]byte(keyPair.PublicKeyPEM))

	fmt.Printf("Generated RSA key pair\n")
	fmt.Printf("  Private key: %s\n", privateKeyPath)
	fmt.Printf("  Public key:  %s\n", publicKeyPath)
	fmt.Printf("  Fingerprint: %s\n", hex.EncodeToString(sum[:8]))
}
