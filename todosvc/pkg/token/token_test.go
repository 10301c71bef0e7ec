package token

import (
	"errors"
	"testing"
	"time"
)

type fakeBlacklist struct {
	revoked map[string]bool
	err     error
}

func (f *fakeBlacklist) Contains(token string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.revoked[token], nil
}

func TestIssueAndVerifyAccess(t *testing.T) {
	svc := NewService([]byte("test-secret"))

	raw, err := svc.IssueAccess("alice@example.com")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	claims, err := svc.Verify(raw, TypeAccess, nil)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != "alice@example.com" {
		t.Errorf("subject = %q, want alice@example.com", claims.Subject)
	}
	if claims.Type != TypeAccess {
		t.Errorf("type = %q, want %q", claims.Type, TypeAccess)
	}
}

func TestRefreshTokenIsNotAnAccessToken(t *testing.T) {
	svc := NewService([]byte("test-secret"))

	raw, err := svc.IssueRefresh("alice@example.com")
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}

	_, err = svc.Verify(raw, TypeAccess, nil)
	assertKind(t, err, TypeMismatch)

	// And the other direction.
	raw, err = svc.IssueAccess("alice@example.com")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	_, err = svc.Verify(raw, TypeRefresh, nil)
	assertKind(t, err, TypeMismatch)
}

func TestVerifyExpired(t *testing.T) {
	svc := NewService([]byte("test-secret"))

	timeNow = func() time.Time { return time.Now().Add(-time.Hour) }
	defer func() { timeNow = time.Now }()

	raw, err := svc.IssueAccess("alice@example.com")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	_, err = svc.Verify(raw, TypeAccess, nil)
	assertKind(t, err, Expired)
}

func TestVerifyMalformed(t *testing.T) {
	svc := NewService([]byte("test-secret"))

	_, err := svc.Verify("not-a-token", TypeAccess, nil)
	assertKind(t, err, Malformed)
}

func TestVerifyWrongSecret(t *testing.T) {
	issuer := NewService([]byte("one-secret"))
	verifier := NewService([]byte("another-secret"))

	raw, err := issuer.IssueAccess("alice@example.com")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	_, err = verifier.Verify(raw, TypeAccess, nil)
	assertKind(t, err, Malformed)
}

func TestVerifyRevoked(t *testing.T) {
	svc := NewService([]byte("test-secret"))

	raw, err := svc.IssueAccess("alice@example.com")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	blacklist := &fakeBlacklist{revoked: map[string]bool{raw: true}}

	// Unexpired and correctly signed, but blacklisted: must never verify.
	_, err = svc.Verify(raw, TypeAccess, blacklist)
	assertKind(t, err, Revoked)
}

func TestVerifyBlacklistFailurePropagates(t *testing.T) {
	svc := NewService([]byte("test-secret"))

	raw, err := svc.IssueAccess("alice@example.com")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	storeErr := errors.New("store unavailable")
	_, err = svc.Verify(raw, TypeAccess, &fakeBlacklist{err: storeErr})

	if !errors.Is(err, storeErr) {
		t.Fatalf("err = %v, want store error to propagate", err)
	}
	var terr *Error
	if errors.As(err, &terr) {
		t.Fatalf("store failure must not be reported as a token error, got kind %v", terr.Kind)
	}
}

func TestVerifyNilBlacklistSkipsLookup(t *testing.T) {
	svc := NewService([]byte("test-secret"))

	raw, err := svc.IssueAccess("alice@example.com")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	if _, err := svc.Verify(raw, TypeAccess, nil); err != nil {
		t.Fatalf("Verify with nil blacklist: %v", err)
	}
}

func assertKind(t *testing.T, err error, kind ErrorKind) {
	t.Helper()

	if err == nil {
		t.Fatal("expected an error")
	}
	var terr *Error
	if !errors.As(err, &terr) {
		t.Fatalf("err = %v, want *token.Error", err)
	}
	if terr.Kind != kind {
		t.Fatalf("kind = %v, want %v", terr.Kind, kind)
	}
}
