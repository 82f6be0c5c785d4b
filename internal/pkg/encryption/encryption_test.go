package encryption_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javatutor/session-service/internal/pkg/encryption"
)

// generateTestKey creates a valid 32-byte key for testing.
func generateTestKey(t *testing.T) string {
	t.Helper()
	key, err := encryption.GenerateKey()
	require.NoError(t, err)
	return key
}

func TestNewAESEncryptor_ValidKey(t *testing.T) {
	key := generateTestKey(t)

	encryptor, err := encryption.NewAESEncryptor(key)

	require.NoError(t, err)
	assert.NotNil(t, encryptor)
}

func TestNewAESEncryptor_InvalidKeyLength(t *testing.T) {
	encryptor, err := encryption.NewAESEncryptor("tooshort!!!")

	assert.Error(t, err)
	assert.Nil(t, encryptor)
	assert.Contains(t, err.Error(), "must be 32 bytes")
}

func TestAESEncryptor_EncryptDecrypt(t *testing.T) {
	encryptor, err := encryption.NewAESEncryptor(generateTestKey(t))
	require.NoError(t, err)

	plaintext := []byte(`{"sessionId":"s1","buckets":{"gemini":[]}}`)

	ciphertext, err := encryptor.Encrypt(plaintext)
	require.NoError(t, err)
	assert.NotEqual(t, string(plaintext), ciphertext)

	decrypted, err := encryptor.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestAESEncryptor_UniqueNonces(t *testing.T) {
	encryptor, err := encryption.NewAESEncryptor(generateTestKey(t))
	require.NoError(t, err)

	first, err := encryptor.Encrypt([]byte("same input"))
	require.NoError(t, err)
	second, err := encryptor.Encrypt([]byte("same input"))
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestAESEncryptor_Decrypt_InvalidCiphertext(t *testing.T) {
	encryptor, err := encryption.NewAESEncryptor(generateTestKey(t))
	require.NoError(t, err)

	_, err = encryptor.Decrypt("not-valid-ciphertext")
	assert.Error(t, err)
}

func TestAESEncryptor_Decrypt_WrongKey(t *testing.T) {
	first, err := encryption.NewAESEncryptor(generateTestKey(t))
	require.NoError(t, err)
	second, err := encryption.NewAESEncryptor(generateTestKey(t))
	require.NoError(t, err)

	ciphertext, err := first.Encrypt([]byte("secret conversation"))
	require.NoError(t, err)

	_, err = second.Decrypt(ciphertext)
	assert.Error(t, err)
}

func TestNoOpEncryptor_PassThrough(t *testing.T) {
	encryptor := encryption.NewNoOpEncryptor()

	plaintext := []byte("plain state")

	ciphertext, err := encryptor.Encrypt(plaintext)
	require.NoError(t, err)

	decrypted, err := encryptor.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, plaintext, decrypted)
}

func TestGenerateKey_ProducesDistinctKeys(t *testing.T) {
	first, err := encryption.GenerateKey()
	require.NoError(t, err)
	second, err := encryption.GenerateKey()
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}
