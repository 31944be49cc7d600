package cmd

import (
	"bufio"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/jolovicdev/kaidos/foundation/blockchain/signature"
	"golang.org/x/crypto/scrypt"
)

// keyFile is the on-disk shape of a wallet key. Unencrypted keys carry
// PrivateKeyHex directly; encrypted keys carry the scrypt salt, GCM nonce,
// and ciphertext instead, and PrivateKeyHex is empty.
type keyFile struct {
	Encrypted     bool   `json:"encrypted"`
	PrivateKeyHex string `json:"private_key_hex,omitempty"`
	Salt          string `json:"salt,omitempty"`
	Nonce         string `json:"nonce,omitempty"`
	Ciphertext    string `json:"ciphertext,omitempty"`
}

const (
	scryptN      = 1 << 15
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32
)

// saveKey persists priv to path, encrypting it with a passphrase read from
// the terminal if encrypted is true.
func saveKey(path string, priv signature.PrivateKey, encrypted bool) error {
	var kf keyFile

	if !encrypted {
		kf = keyFile{Encrypted: false, PrivateKeyHex: priv.String()}
	} else {
		passphrase, err := promptPassphrase("Passphrase: ")
		if err != nil {
			return err
		}

		salt := make([]byte, 16)
		if _, err := rand.Read(salt); err != nil {
			return err
		}

		key, err := scrypt.Key(passphrase, salt, scryptN, scryptR, scryptP, scryptKeyLen)
		if err != nil {
			return err
		}

		block, err := aes.NewCipher(key)
		if err != nil {
			return err
		}
		gcm, err := cipher.NewGCM(block)
		if err != nil {
			return err
		}

		nonce := make([]byte, gcm.NonceSize())
		if _, err := rand.Read(nonce); err != nil {
			return err
		}

		ciphertext := gcm.Seal(nil, nonce, []byte(priv.String()), nil)

		kf = keyFile{
			Encrypted:  true,
			Salt:       hex.EncodeToString(salt),
			Nonce:      hex.EncodeToString(nonce),
			Ciphertext: hex.EncodeToString(ciphertext),
		}
	}

	data, err := json.MarshalIndent(kf, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

// loadKey reads and, if necessary, decrypts the wallet key at path,
// prompting for a passphrase on the terminal when the key is encrypted.
func loadKey(path string) (signature.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return signature.PrivateKey{}, err
	}

	var kf keyFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return signature.PrivateKey{}, fmt.Errorf("malformed wallet key file: %w", err)
	}

	if !kf.Encrypted {
		return signature.PrivateKeyFromHex(kf.PrivateKeyHex)
	}

	passphrase, err := promptPassphrase("Passphrase: ")
	if err != nil {
		return signature.PrivateKey{}, err
	}

	salt, err := hex.DecodeString(kf.Salt)
	if err != nil {
		return signature.PrivateKey{}, errors.New("malformed wallet key file")
	}
	nonce, err := hex.DecodeString(kf.Nonce)
	if err != nil {
		return signature.PrivateKey{}, errors.New("malformed wallet key file")
	}
	ciphertext, err := hex.DecodeString(kf.Ciphertext)
	if err != nil {
		return signature.PrivateKey{}, errors.New("malformed wallet key file")
	}

	key, err := scrypt.Key(passphrase, salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return signature.PrivateKey{}, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return signature.PrivateKey{}, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return signature.PrivateKey{}, err
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return signature.PrivateKey{}, errors.New("wrong passphrase or corrupt wallet key file")
	}

	return signature.PrivateKeyFromHex(string(plaintext))
}

// promptPassphrase reads a single line from stdin as a passphrase. Terminal
// echo suppression is left to the caller's shell; this keeps the wallet
// free of a terminal-control dependency for a CLI feature the ledger core
// never touches.
func promptPassphrase(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("reading passphrase: %w", err)
		}
		return nil, errors.New("no passphrase provided")
	}
	return scanner.Bytes(), nil
}
