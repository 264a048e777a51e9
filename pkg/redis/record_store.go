package redis

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"time"
)

// RecordStore stores JSON records in Redis encrypted with AES-GCM
type RecordStore struct {
	encryptionKey []byte
}

var (
	setRecordValue    = Set
	getRecordValue    = Get
	delRecordValue    = Del
	marshalRecordJSON = json.Marshal
)

// NewRecordStore creates a new record store
func NewRecordStore(encryptionKeyHex string) (*RecordStore, error) {
	key, err := hex.DecodeString(encryptionKeyHex)
	if err != nil {
		return nil, errors.New("invalid encryption key hex")
	}
	if len(key) != 32 {
		return nil, errors.New("encryption key must be 32 bytes (64 hex chars)")
	}
	return &RecordStore{encryptionKey: key}, nil
}

// Put encrypts v and stores it under key. A zero expiration keeps the key forever.
func (s *RecordStore) Put(ctx context.Context, key string, v interface{}, expiration time.Duration) error {
	jsonData, err := marshalRecordJSON(v)
	if err != nil {
		return err
	}

	encryptedData, err := s.encrypt(jsonData)
	if err != nil {
		return err
	}

	return setRecordValue(ctx, key, encryptedData, expiration)
}

// Fetch decrypts the record under key into v. A missing key yields an error
// for which IsNil is true.
func (s *RecordStore) Fetch(ctx context.Context, key string, v interface{}) error {
	encryptedDataStr, err := getRecordValue(ctx, key)
	if err != nil {
		return err
	}

	decryptedData, err := s.decrypt(encryptedDataStr)
	if err != nil {
		return err
	}

	return json.Unmarshal(decryptedData, v)
}

// Remove deletes the record under key
func (s *RecordStore) Remove(ctx context.Context, key string) (int64, error) {
	return delRecordValue(ctx, key)
}

func (s *RecordStore) encrypt(plaintext []byte) (string, error) {
	block, err := aes.NewCipher(s.encryptionKey)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := gcm.Seal(nonce, nonce, plaintext, nil)
	return hex.EncodeToString(ciphertext), nil
}

func (s *RecordStore) decrypt(ciphertextHex string) ([]byte, error) {
	ciphertext, err := hex.DecodeString(ciphertextHex)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(s.encryptionKey)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce, ciphertext := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, ciphertext, nil)
}
