package crypto

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestEncryptDecryptSecret_RoundTrip(t *testing.T) {
	blob, err := EncryptSecret("binance-api-secret-value", "hunter2")
	if err != nil {
		t.Fatalf("EncryptSecret() error = %v", err)
	}

	got, err := DecryptSecret(blob, "hunter2")
	if err != nil {
		t.Fatalf("DecryptSecret() error = %v", err)
	}
	if got != "binance-api-secret-value" {
		t.Errorf("round trip = %q, want original secret", got)
	}
}

func TestDecryptSecret_WrongPassword(t *testing.T) {
	blob, err := EncryptSecret("secret", "right")
	if err != nil {
		t.Fatalf("EncryptSecret() error = %v", err)
	}
	if _, err := DecryptSecret(blob, "wrong"); err == nil {
		t.Error("DecryptSecret() with wrong password succeeded")
	}
}

func TestDecryptSecret_TamperedCiphertext(t *testing.T) {
	blob, err := EncryptSecret("secret", "pw")
	if err != nil {
		t.Fatalf("EncryptSecret() error = %v", err)
	}
	var stored encryptedSecretJSON
	if err := json.Unmarshal(blob, &stored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	stored.Ciphertext = "AAAA" + stored.Ciphertext[4:]
	tampered, _ := json.Marshal(stored)

	if _, err := DecryptSecret(tampered, "pw"); err == nil {
		t.Error("DecryptSecret() accepted tampered ciphertext")
	}
}

func TestEncryptSecret_EmptyInputs(t *testing.T) {
	if _, err := EncryptSecret("", "pw"); err == nil {
		t.Error("EncryptSecret() accepted empty secret")
	}
	if _, err := EncryptSecret("secret", ""); err == nil {
		t.Error("EncryptSecret() accepted empty password")
	}
}

func TestLoadSecret(t *testing.T) {
	t.Run("raw secret wins", func(t *testing.T) {
		got, err := LoadSecret(SecretConfig{RawSecret: "raw", EncryptedSecretPath: "/does/not/exist"})
		if err != nil || got != "raw" {
			t.Errorf("LoadSecret() = %q, %v; want raw, nil", got, err)
		}
	})

	t.Run("encrypted file", func(t *testing.T) {
		blob, err := EncryptSecret("from-file", "pw")
		if err != nil {
			t.Fatalf("EncryptSecret() error = %v", err)
		}
		path := filepath.Join(t.TempDir(), "secret.json")
		if err := os.WriteFile(path, blob, 0o600); err != nil {
			t.Fatalf("writing fixture: %v", err)
		}

		got, err := LoadSecret(SecretConfig{EncryptedSecretPath: path, Password: "pw"})
		if err != nil || got != "from-file" {
			t.Errorf("LoadSecret() = %q, %v; want from-file, nil", got, err)
		}
	})

	t.Run("no source", func(t *testing.T) {
		if _, err := LoadSecret(SecretConfig{}); err == nil {
			t.Error("LoadSecret() with no source succeeded")
		}
	})
}
