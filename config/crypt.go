package config

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

var errDecrypt = errors.New("decryption error")

// Decrypt opens a secretbox sealed by Encrypt, the nonce is the message prefix
func Decrypt(message, secret []byte) ([]byte, error) {
	if len(message) < nonceSize+secretbox.Overhead {
		return nil, errDecrypt
	}
	var nonce [nonceSize]byte
	key := sha256.Sum256(secret)
	copy(nonce[:], message[:nonceSize])
	decrypted, ok := secretbox.Open(nil, message[nonceSize:], &nonce, &key)
	if !ok {
		return nil, errDecrypt
	}
	return decrypted, nil
}

// Encrypt seals small messages like tokens with a key derived from secret
func Encrypt(message, secret []byte) ([]byte, error) {
	var nonce [nonceSize]byte
	key := sha256.Sum256(secret)
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, err
	}
	return secretbox.Seal(nonce[:], message, &nonce, &key), nil
}
