// Package secrets supplies the Sensaphone.net account credentials.
package secrets

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/kms"
)

var ErrMissing = errors.New("account credentials not configured")

// Static returns credentials held in configuration.
type Static struct {
	Username string
	Password string
}

func (s Static) Credentials(_ context.Context) (string, string, error) {
	if s.Username == "" || s.Password == "" {
		return "", "", ErrMissing
	}
	return s.Username, s.Password, nil
}

// Decrypter is the subset of the KMS client used here.
type Decrypter interface {
	Decrypt(ctx context.Context, in *kms.DecryptInput, optFns ...func(*kms.Options)) (*kms.DecryptOutput, error)
}

// KMS decrypts a base64 ciphertext file once and caches the plaintext.
type KMS struct {
	Client         Decrypter
	Username       string
	CiphertextFile string

	mu       sync.Mutex
	password string
}

func NewKMS(client Decrypter, username, ciphertextFile string) *KMS {
	return &KMS{Client: client, Username: username, CiphertextFile: ciphertextFile}
}

// NewKMSClient builds a KMS client from the default AWS config chain.
func NewKMSClient(ctx context.Context, region string) (*kms.Client, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return kms.NewFromConfig(cfg), nil
}

func (k *KMS) Credentials(ctx context.Context) (string, string, error) {
	if k.Username == "" {
		return "", "", ErrMissing
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.password != "" {
		return k.Username, k.password, nil
	}

	raw, err := os.ReadFile(k.CiphertextFile)
	if err != nil {
		return "", "", fmt.Errorf("read ciphertext %q: %w", k.CiphertextFile, err)
	}
	blob, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(raw)))
	if err != nil {
		return "", "", fmt.Errorf("decode ciphertext %q: %w", k.CiphertextFile, err)
	}
	out, err := k.Client.Decrypt(ctx, &kms.DecryptInput{CiphertextBlob: blob})
	if err != nil {
		return "", "", fmt.Errorf("kms decrypt: %w", err)
	}
	if len(out.Plaintext) == 0 {
		return "", "", fmt.Errorf("kms decrypt: %w", ErrMissing)
	}
	k.password = string(out.Plaintext)
	return k.Username, k.password, nil
}
