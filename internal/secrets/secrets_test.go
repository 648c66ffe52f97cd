package secrets

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/kms"
)

type fakeKMS struct {
	calls int
	got   []byte
	err   error
}

func (f *fakeKMS) Decrypt(_ context.Context, in *kms.DecryptInput, _ ...func(*kms.Options)) (*kms.DecryptOutput, error) {
	f.calls++
	f.got = in.CiphertextBlob
	if f.err != nil {
		return nil, f.err
	}
	return &kms.DecryptOutput{Plaintext: []byte("s3cret")}, nil
}

func TestStatic(t *testing.T) {
	if _, _, err := (Static{Username: "ops"}).Credentials(context.Background()); !errors.Is(err, ErrMissing) {
		t.Fatalf("want ErrMissing, got %v", err)
	}
	u, p, err := Static{Username: "ops", Password: "pw"}.Credentials(context.Background())
	if err != nil || u != "ops" || p != "pw" {
		t.Fatalf("unexpected (%q, %q, %v)", u, p, err)
	}
}

func TestKMS_DecryptsOnceAndCaches(t *testing.T) {
	path := filepath.Join(t.TempDir(), "encrypted_controls.pem")
	if err := os.WriteFile(path, []byte(base64.StdEncoding.EncodeToString([]byte("blob"))+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	fake := &fakeKMS{}
	k := NewKMS(fake, "ops", path)

	for i := 0; i < 2; i++ {
		u, p, err := k.Credentials(context.Background())
		if err != nil || u != "ops" || p != "s3cret" {
			t.Fatalf("unexpected (%q, %q, %v)", u, p, err)
		}
	}
	if fake.calls != 1 {
		t.Fatalf("want one decrypt, got %d", fake.calls)
	}
	if string(fake.got) != "blob" {
		t.Fatalf("ciphertext not base64-decoded: %q", fake.got)
	}
}

func TestKMS_Errors(t *testing.T) {
	dir := t.TempDir()

	k := NewKMS(&fakeKMS{}, "ops", filepath.Join(dir, "missing.pem"))
	if _, _, err := k.Credentials(context.Background()); err == nil {
		t.Fatal("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.pem")
	_ = os.WriteFile(bad, []byte("not base64 !!"), 0o600)
	if _, _, err := NewKMS(&fakeKMS{}, "ops", bad).Credentials(context.Background()); err == nil {
		t.Fatal("expected decode error")
	}

	good := filepath.Join(dir, "good.pem")
	_ = os.WriteFile(good, []byte(base64.StdEncoding.EncodeToString([]byte("x"))), 0o600)
	if _, _, err := NewKMS(&fakeKMS{err: errors.New("access denied")}, "ops", good).Credentials(context.Background()); err == nil {
		t.Fatal("expected decrypt error")
	}
	if _, _, err := NewKMS(&fakeKMS{}, "", good).Credentials(context.Background()); !errors.Is(err, ErrMissing) {
		t.Fatalf("want ErrMissing without username, got %v", err)
	}
}
