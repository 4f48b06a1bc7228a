package token

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/thiagohmg/capitaoanimais/internal/domain"
)

func newTestCodec() *Codec {
	return NewCodec(NewSigner([]byte(testKey)))
}

func TestMint_RoundTrip(t *testing.T) {
	c := newTestCodec()
	in := Claims{Email: "user@example.com", Name: "User", CodeHash: "abc123"}

	tok, err := c.Mint(in, 10*time.Minute)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	out, err := c.ParseAndVerify(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if out.Email != in.Email || out.Name != in.Name || out.CodeHash != in.CodeHash {
		t.Errorf("claims = %+v, want fields of %+v", out, in)
	}
	if out.Iat == 0 || out.Exp != out.Iat+600 {
		t.Errorf("iat=%d exp=%d, want exp = iat+600", out.Iat, out.Exp)
	}
}

func TestParseAndVerify_ExpiryBoundary(t *testing.T) {
	c := newTestCodec()
	minted := time.Unix(1_700_000_000, 0)
	c.now = func() time.Time { return minted }

	tok, err := c.Mint(Claims{Email: "user@example.com"}, time.Minute)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	// Exactly exp is still valid; one second past is expired.
	c.now = func() time.Time { return minted.Add(time.Minute) }
	if _, err := c.ParseAndVerify(tok); err != nil {
		t.Errorf("token invalid at exp: %v", err)
	}

	c.now = func() time.Time { return minted.Add(time.Minute + time.Second) }
	if _, err := c.ParseAndVerify(tok); !errors.Is(err, domain.ErrTokenExpired) {
		t.Errorf("err = %v, want ErrTokenExpired", err)
	}
}

func TestParseAndVerify_TamperedPayloadRejected(t *testing.T) {
	c := newTestCodec()
	tok, err := c.Mint(Claims{Email: "user@example.com"}, time.Minute)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	payload, sig, _ := strings.Cut(tok, ".")
	for i := 0; i < len(payload); i++ {
		mutated := flipBase64urlChar(payload, i) + "." + sig
		if mutated == tok {
			continue
		}
		if _, err := c.ParseAndVerify(mutated); !errors.Is(err, domain.ErrTokenInvalid) {
			t.Fatalf("payload byte %d tampered: err = %v, want ErrTokenInvalid", i, err)
		}
	}
}

func TestParseAndVerify_TamperedSignatureRejected(t *testing.T) {
	c := newTestCodec()
	tok, err := c.Mint(Claims{Email: "user@example.com"}, time.Minute)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	payload, sig, _ := strings.Cut(tok, ".")
	for i := 0; i < len(sig); i++ {
		mutated := payload + "." + flipBase64urlChar(sig, i)
		if mutated == tok {
			continue
		}
		if _, err := c.ParseAndVerify(mutated); !errors.Is(err, domain.ErrTokenInvalid) {
			t.Fatalf("signature byte %d tampered: err = %v, want ErrTokenInvalid", i, err)
		}
	}
}

// flipBase64urlChar swaps the character at i for a different one from the
// base64url alphabet, keeping the segment decodable.
func flipBase64urlChar(s string, i int) string {
	replacement := byte('A')
	if s[i] == 'A' {
		replacement = 'B'
	}
	return s[:i] + string(replacement) + s[i+1:]
}

func TestParseAndVerify_MalformedInput(t *testing.T) {
	c := newTestCodec()
	valid, err := c.Mint(Claims{Email: "user@example.com"}, time.Minute)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	payload, _, _ := strings.Cut(valid, ".")

	cases := map[string]string{
		"empty":             "",
		"no separator":      payload,
		"extra separator":   valid + ".extra",
		"garbage":           "not a token at all",
		"invalid b64 sig":   payload + ".%%%",
		"padded base64 sig": payload + ".AAAA====",
	}
	for name, tok := range cases {
		if _, err := c.ParseAndVerify(tok); !errors.Is(err, domain.ErrTokenInvalid) {
			t.Errorf("%s: err = %v, want ErrTokenInvalid", name, err)
		}
	}
}

func TestParseAndVerify_SignedNonJSONPayloadRejected(t *testing.T) {
	// A correctly signed payload that is not JSON must still be invalid,
	// not a fault.
	s := NewSigner([]byte(testKey))
	payload := base64.RawURLEncoding.EncodeToString([]byte("not json"))
	sig := base64.RawURLEncoding.EncodeToString(s.Sign([]byte(payload)))

	if _, err := NewCodec(s).ParseAndVerify(payload + "." + sig); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("err = %v, want ErrTokenInvalid", err)
	}
}

func TestMint_PayloadNeverContainsPlaintextCode(t *testing.T) {
	c := newTestCodec()
	code := "123456"
	tok, err := c.Mint(Claims{Email: "user@example.com", CodeHash: NewSigner([]byte(testKey)).CodeHash(code)}, time.Minute)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	payload, _, _ := strings.Cut(tok, ".")
	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if strings.Contains(string(raw), code) {
		t.Error("plaintext code leaked into token payload")
	}
}

func TestMint_WireFormatIsUnpaddedBase64url(t *testing.T) {
	c := newTestCodec()
	tok, err := c.Mint(Claims{Email: "user@example.com", Name: "ã"}, time.Minute)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if strings.ContainsAny(tok, "+/=") {
		t.Errorf("token %q contains non-base64url characters", tok)
	}
	if strings.Count(tok, ".") != 1 {
		t.Errorf("token %q does not have exactly one separator", tok)
	}
}
