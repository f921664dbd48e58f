package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strings"
)

// GetDeviceKey derives a unique encryption key from device-specific data
func GetDeviceKey() ([]byte, error) {
	var deviceID string

	// Try the primary network interface MAC address first
	if data, err := os.ReadFile("/sys/class/net/eth0/address"); err == nil {
		deviceID = strings.TrimSpace(string(data))
	}

	// Last resort: hostname
	if deviceID == "" {
		hostname, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("failed to get device identifier: %w", err)
		}
		deviceID = hostname
	}

	// Add a salt for extra security
	salt := "he-ddns-vault-2025"
	combined := deviceID + salt

	// Derive 32-byte key using SHA256
	hash := sha256.Sum256([]byte(combined))
	return hash[:], nil
}

// EncryptSecret encrypts password material using the device-specific key
func EncryptSecret(plaintext string) (string, error) {
	key, err := GetDeviceKey()
	if err != nil {
		return "", err
	}

	// Create AES cipher
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	// GCM mode for authenticated encryption
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	// Create nonce
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	// Encrypt
	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)

	// Return base64 encoded
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// DecryptSecret decrypts password material using the device-specific key
func DecryptSecret(encrypted string) (string, error) {
	key, err := GetDeviceKey()
	if err != nil {
		return "", err
	}

	// Decode from base64
	ciphertext, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return "", err
	}

	// Create AES cipher
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	// GCM mode
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	// Extract nonce
	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return "", fmt.Errorf("ciphertext too short")
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]

	// Decrypt
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", err
	}

	return string(plaintext), nil
}
