package services

import (
	"crypto/rsa"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/datingapp/internal/cryptox"
	"github.com/dmitrijs2005/datingapp/internal/filex"
)

const (
	PrivateKeyFile = "message_key.pem"
	PublicKeyFile  = "message_key.pub.pem"
)

// Keyring reads and writes the message key pair in the data directory.
// Everyone chatting must hold the same pair.
type Keyring struct {
	dir string
}

func NewKeyring(dir string) *Keyring {
	return &Keyring{dir: dir}
}

func (k *Keyring) Dir() string { return k.dir }

// Generate creates a new pair. Existing files are kept unless overwrite is set.
func (k *Keyring) Generate(bits int, overwrite bool) error {
	if _, err := filex.EnsureDir(k.dir); err != nil {
		return err
	}

	key, err := cryptox.GenerateKey(bits)
	if err != nil {
		return fmt.Errorf("generate key: %w", err)
	}
	pub, err := cryptox.EncodePublicKey(&key.PublicKey)
	if err != nil {
		return err
	}

	if err := filex.WritePrivate(filepath.Join(k.dir, PrivateKeyFile), cryptox.EncodePrivateKey(key), overwrite); err != nil {
		return fmt.Errorf("write private key: %w", err)
	}
	if err := filex.WritePrivate(filepath.Join(k.dir, PublicKeyFile), pub, overwrite); err != nil {
		return fmt.Errorf("write public key: %w", err)
	}
	return nil
}

func (k *Keyring) PublicKey() (*rsa.PublicKey, error) {
	b, err := os.ReadFile(filepath.Join(k.dir, PublicKeyFile))
	if err != nil {
		return nil, fmt.Errorf("read public key: %w", err)
	}
	return cryptox.ParsePublicKey(b)
}

func (k *Keyring) PrivateKey() (*rsa.PrivateKey, error) {
	b, err := os.ReadFile(filepath.Join(k.dir, PrivateKeyFile))
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	return cryptox.ParsePrivateKey(b)
}
