package webhook

import (
	"testing"
)

func TestVerifyAcceptsValidSignature(t *testing.T) {
	secret := []byte("webhook-secret")
	body := []byte(`{"event":"resource.updated","id":42}`)

	env := Envelope{Body: body, Signature: Sign(body, secret)}
	if !Verify(env, secret) {
		t.Fatal("expected valid signature to verify")
	}
}

func TestVerifyAcceptsPrefixedSignature(t *testing.T) {
	secret := []byte("webhook-secret")
	body := []byte(`{"event":"ping"}`)

	env := Envelope{Body: body, Signature: "sha256=" + Sign(body, secret)}
	if !Verify(env, secret) {
		t.Fatal("expected prefixed signature to verify")
	}
}

func TestVerifyRejectsSingleByteMutation(t *testing.T) {
	secret := []byte("webhook-secret")
	body := []byte(`{"event":"resource.updated","id":42}`)
	sig := Sign(body, secret)

	for i := range body {
		mutated := make([]byte, len(body))
		copy(mutated, body)
		mutated[i] ^= 0x01
		if Verify(Envelope{Body: mutated, Signature: sig}, secret) {
			t.Fatalf("expected mutation at byte %d to fail verification", i)
		}
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	body := []byte(`{"event":"ping"}`)
	env := Envelope{Body: body, Signature: Sign(body, []byte("right"))}
	if Verify(env, []byte("wrong")) {
		t.Fatal("expected wrong secret to fail verification")
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	secret := []byte("s")
	body := []byte(`{}`)
	for _, sig := range []string{"", "zzzz", "sha256=", "sha256=zz"} {
		if Verify(Envelope{Body: body, Signature: sig}, secret) {
			t.Fatalf("expected signature %q to fail verification", sig)
		}
	}
	if Verify(Envelope{Body: body, Signature: Sign(body, secret)}, nil) {
		t.Fatal("expected empty secret to fail verification")
	}
}
