package signer

import (
	"errors"
	"os"
	"runtime"
	"testing"

	"tracechain.io/replica/internal/ledger"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	dir := t.TempDir()
	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func TestGenerateKeyPairWritesFilesWithExpectedPermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix file permissions not meaningful on windows")
	}
	m := newTestManager(t)
	if err := m.GenerateKeyPair("supplier-acme"); err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}

	privInfo, err := os.Stat(m.privatePath("supplier-acme"))
	if err != nil {
		t.Fatalf("stat private key: %v", err)
	}
	if perm := privInfo.Mode().Perm(); perm != privateKeyPerm {
		t.Errorf("private key perm = %o, want %o", perm, privateKeyPerm)
	}

	pubInfo, err := os.Stat(m.publicPath("supplier-acme"))
	if err != nil {
		t.Fatalf("stat public key: %v", err)
	}
	if perm := pubInfo.Mode().Perm(); perm != publicKeyPerm {
		t.Errorf("public key perm = %o, want %o", perm, publicKeyPerm)
	}
}

func TestSignAndVerifyRoundTrip(t *testing.T) {
	m := newTestManager(t)
	if err := m.GenerateKeyPair("supplier-acme"); err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}

	tx := ledger.Transaction{
		BatchID:   "batch-1",
		Action:    ledger.ActionRegistered,
		Actor:     "supplier-acme",
		Timestamp: "2026-01-01T00:00:00Z",
	}
	signed, err := m.Sign("supplier-acme", tx)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if signed.Signature == "" {
		t.Fatal("expected non-empty signature")
	}
	if err := m.Verify(signed); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestVerifyRejectsTamperedTransaction(t *testing.T) {
	m := newTestManager(t)
	if err := m.GenerateKeyPair("supplier-acme"); err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}

	tx := ledger.Transaction{
		BatchID:   "batch-1",
		Action:    ledger.ActionRegistered,
		Actor:     "supplier-acme",
		Timestamp: "2026-01-01T00:00:00Z",
	}
	signed, err := m.Sign("supplier-acme", tx)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	signed.BatchID = "batch-2"
	if err := m.Verify(signed); !errors.Is(err, ErrSignatureMismatch) {
		t.Errorf("expected ErrSignatureMismatch, got %v", err)
	}
}

func TestVerifyUnknownActor(t *testing.T) {
	m := newTestManager(t)
	tx := ledger.Transaction{
		BatchID:   "batch-1",
		Action:    ledger.ActionRegistered,
		Actor:     "ghost",
		Timestamp: "2026-01-01T00:00:00Z",
		Signature: "bm90LWEtcmVhbC1zaWc=",
	}
	if err := m.Verify(tx); !errors.Is(err, ErrActorNotFound) {
		t.Errorf("expected ErrActorNotFound, got %v", err)
	}
}

func TestEnsureKeyPairIdempotent(t *testing.T) {
	m := newTestManager(t)
	if err := m.EnsureKeyPair("supplier-acme"); err != nil {
		t.Fatalf("EnsureKeyPair: %v", err)
	}
	pemFirst, err := m.PublicKeyPEM("supplier-acme")
	if err != nil {
		t.Fatalf("PublicKeyPEM: %v", err)
	}
	if err := m.EnsureKeyPair("supplier-acme"); err != nil {
		t.Fatalf("EnsureKeyPair (second call): %v", err)
	}
	pemSecond, err := m.PublicKeyPEM("supplier-acme")
	if err != nil {
		t.Fatalf("PublicKeyPEM: %v", err)
	}
	if pemFirst != pemSecond {
		t.Error("expected EnsureKeyPair to leave existing keys untouched")
	}
}

func TestListActorsSorted(t *testing.T) {
	m := newTestManager(t)
	for _, actor := range []string{"retailer-zeta", "supplier-acme", "distributor-mid"} {
		if err := m.GenerateKeyPair(actor); err != nil {
			t.Fatalf("GenerateKeyPair(%s): %v", actor, err)
		}
	}
	actors, err := m.ListActors()
	if err != nil {
		t.Fatalf("ListActors: %v", err)
	}
	want := []string{"distributor-mid", "retailer-zeta", "supplier-acme"}
	if len(actors) != len(want) {
		t.Fatalf("got %v, want %v", actors, want)
	}
	for i := range want {
		if actors[i] != want[i] {
			t.Errorf("actors[%d] = %s, want %s", i, actors[i], want[i])
		}
	}
}
