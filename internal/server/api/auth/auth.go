// Package auth implements the optional password authentication of the API:
// a PBKDF2-derived key, an HMAC challenge handshake and a ChaCha20-Poly1305
// framed connection for everything after it.
package auth

import (
	"crypto/pbkdf2"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	AutoGenKeyLength = 16
	Base62Chars      = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	PBKDF2Iterations = 100000
	PBKDF2Salt       = "vkbd-Key-v1"
	clientInfo       = "vkbd-Session-v1 c2s"
	serverInfo       = "vkbd-Session-v1 s2c"
)

var ErrEmptyPassword = errors.New("password cannot be empty")

// GenerateKey returns a random base62 password of AutoGenKeyLength chars.
func GenerateKey() (string, error) {
	buf := make([]byte, AutoGenKeyLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = Base62Chars[int(b)%len(Base62Chars)]
	}
	return string(buf), nil
}

// DeriveKey stretches password to a 32 byte key.
func DeriveKey(password string) ([]byte, error) {
	if password == "" {
		return nil, ErrEmptyPassword
	}
	return pbkdf2.Key(sha256.New, password, []byte(PBKDF2Salt), PBKDF2Iterations, 32)
}

// DeriveSessionKeys derives the per-connection keys from the long-term key
// and both handshake nonces: c2s encrypts client frames, s2c server frames.
func DeriveSessionKeys(key, serverNonce, clientNonce []byte) (c2s, s2c []byte) {
	salt := make([]byte, 0, len(serverNonce)+len(clientNonce))
	salt = append(salt, serverNonce...)
	salt = append(salt, clientNonce...)
	return expand(key, salt, clientInfo), expand(key, salt, serverInfo)
}

func expand(key, salt []byte, info string) []byte {
	out := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, key, salt, []byte(info)), out); err != nil {
		panic("hkdf: " + err.Error())
	}
	return out
}
