package crypto_test

import (
	"encoding/base64"
	"testing"

	"github.com/hedns/certbot-he-hook/internal/crypto"
)

func TestGetDeviceKey(t *testing.T) {
	// Test that device key generation is consistent
	key1, err := crypto.GetDeviceKey()
	if err != nil {
		t.Fatalf("Failed to get device key: %v", err)
	}

	if len(key1) != 32 {
		t.Errorf("Expected 32-byte key, got %d bytes", len(key1))
	}

	// Should produce same key on repeated calls
	key2, err := crypto.GetDeviceKey()
	if err != nil {
		t.Fatalf("Failed to get device key on second call: %v", err)
	}

	if string(key1) != string(key2) {
		t.Error("Device key should be consistent across calls")
	}
}

func TestEncryptDecryptSecret(t *testing.T) {
	testCases := []struct {
		name   string
		secret string
	}{
		{
			name:   "standard dynamic DNS password",
			secret: "hunter2-dynamic-dns-key",
		},
		{
			name:   "short secret",
			secret: "pw",
		},
		{
			name:   "secret with special characters",
			secret: "Secret+Key/With=Special@Chars!",
		},
		{
			name: "multi-line credentials blob",
			secret: `password: shared
auth_map:
  _acme-challenge.example.com: per-record
`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Encrypt secret
			encrypted, err := crypto.EncryptSecret(tc.secret)
			if err != nil {
				t.Fatalf("Failed to encrypt secret: %v", err)
			}

			if encrypted == "" {
				t.Error("Encrypted data should not be empty")
			}

			// Encrypted data should be different from plaintext
			if encrypted == tc.secret {
				t.Error("Encrypted data should not match plaintext")
			}

			// Decrypt secret
			decrypted, err := crypto.DecryptSecret(encrypted)
			if err != nil {
				t.Fatalf("Failed to decrypt secret: %v", err)
			}

			// Verify decrypted value matches original
			if decrypted != tc.secret {
				t.Errorf("Secret mismatch: got %q, want %q", decrypted, tc.secret)
			}
		})
	}
}

func TestEncryptDecryptUniqueness(t *testing.T) {
	// Each encryption should produce different ciphertext due to random nonce
	secret := "SECRETTEST"

	encrypted1, err := crypto.EncryptSecret(secret)
	if err != nil {
		t.Fatalf("First encryption failed: %v", err)
	}

	encrypted2, err := crypto.EncryptSecret(secret)
	if err != nil {
		t.Fatalf("Second encryption failed: %v", err)
	}

	// Different encryptions should produce different ciphertext
	if encrypted1 == encrypted2 {
		t.Error("Encrypted data should be different due to random nonce")
	}

	// But both should decrypt to same value
	dec1, _ := crypto.DecryptSecret(encrypted1)
	dec2, _ := crypto.DecryptSecret(encrypted2)

	if dec1 != dec2 {
		t.Error("Both encryptions should decrypt to same value")
	}
}

func TestDecryptInvalidData(t *testing.T) {
	testCases := []struct {
		name      string
		encrypted string
	}{
		{
			name:      "not base64",
			encrypted: "not-valid-base64!!!",
		},
		{
			name:      "ciphertext too short",
			encrypted: base64.StdEncoding.EncodeToString([]byte("short")),
		},
		{
			name:      "empty",
			encrypted: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := crypto.DecryptSecret(tc.encrypted); err == nil {
				t.Error("Expected error for invalid ciphertext, got nil")
			}
		})
	}
}

func TestDecryptTamperedData(t *testing.T) {
	encrypted, err := crypto.EncryptSecret("tamper-test")
	if err != nil {
		t.Fatalf("Encryption failed: %v", err)
	}

	// Flip one byte of the ciphertext
	raw, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	raw[len(raw)-1] ^= 0xff
	tampered := base64.StdEncoding.EncodeToString(raw)

	// GCM authentication must reject it
	if _, err := crypto.DecryptSecret(tampered); err == nil {
		t.Error("Expected error for tampered ciphertext, got nil")
	}
}
