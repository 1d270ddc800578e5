package identity

import (
	"context"
	"testing"

	"studentattendance/internal/apperr"
	"studentattendance/internal/docstore"
	"studentattendance/internal/docstore/docstoretest"
	"studentattendance/internal/model"
)

func TestRegisterAndSignIn(t *testing.T) {
	ctx := context.Background()
	dir := NewDirectory(docstore.NewMemory(), nil)

	id, err := dir.Register(ctx, " Ada@Example.com ", "secret")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	acct, err := dir.SignIn(ctx, "ada@example.com", "secret")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if acct.UserID != id || acct.Email != "ada@example.com" {
		t.Fatalf("unexpected account %+v", acct)
	}

	if _, err := dir.SignIn(ctx, "ada@example.com", "wrong"); !apperr.Is(err, apperr.KindAuth) {
		t.Fatalf("expected auth error for bad password, got %v", err)
	}
	if _, err := dir.SignIn(ctx, "nobody@example.com", "secret"); !apperr.Is(err, apperr.KindAuth) {
		t.Fatalf("expected auth error for unknown email, got %v", err)
	}
	if _, err := dir.SignIn(ctx, "", ""); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for blank input, got %v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	dir := NewDirectory(docstore.NewMemory(), nil)
	if _, err := dir.Register(ctx, "ada@example.com", "a"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := dir.Register(ctx, "ADA@example.com", "b"); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected duplicate email to be rejected, got %v", err)
	}
}

func TestUnregisterFreesEmail(t *testing.T) {
	ctx := context.Background()
	dir := NewDirectory(docstore.NewMemory(), nil)
	id, err := dir.Register(ctx, "ada@example.com", "a")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := dir.Unregister(ctx, id); err != nil {
		t.Fatalf("unregister: %v", err)
	}
	if _, err := dir.SignIn(ctx, "ada@example.com", "a"); !apperr.Is(err, apperr.KindAuth) {
		t.Fatalf("expected removed account to fail sign in, got %v", err)
	}
	if _, err := dir.Register(ctx, "ada@example.com", "b"); err != nil {
		t.Fatalf("re-register: %v", err)
	}
	if err := dir.Unregister(ctx, "missing"); err != nil {
		t.Fatalf("unregister of unknown id should be ignored, got %v", err)
	}
}

func TestSignInBackendFailureIsAuthError(t *testing.T) {
	store := docstoretest.NewFaulty(docstore.NewMemory())
	store.Fail("query", model.CollAccounts)
	_, err := NewDirectory(store, nil).SignIn(context.Background(), "ada@example.com", "secret")
	if !apperr.Is(err, apperr.KindAuth) {
		t.Fatalf("expected auth error, got %v", err)
	}
	if apperr.Message(err) != "Sign in failed: backend unavailable" {
		t.Fatalf("unexpected message %q", apperr.Message(err))
	}
}

func TestClientSession(t *testing.T) {
	ctx := context.Background()
	dir := NewDirectory(docstore.NewMemory(), nil)
	id, _ := dir.Register(ctx, "ada@example.com", "secret")
	client := NewClient(dir)

	if _, ok := client.CurrentUserID(); ok {
		t.Fatalf("expected no session before sign in")
	}
	if _, err := client.SignIn(ctx, "ada@example.com", "nope"); err == nil {
		t.Fatalf("expected bad credentials to fail")
	}
	if _, ok := client.CurrentUserID(); ok {
		t.Fatalf("failed sign in must not create a session")
	}

	got, err := client.SignIn(ctx, "ada@example.com", "secret")
	if err != nil || got != id {
		t.Fatalf("sign in: id=%s err=%v", got, err)
	}
	if cur, ok := client.CurrentUserID(); !ok || cur != id {
		t.Fatalf("expected cached id %s, got %s", id, cur)
	}

	client.SignOut()
	client.SignOut()
	if _, ok := client.Current(); ok {
		t.Fatalf("expected session cleared")
	}
}
