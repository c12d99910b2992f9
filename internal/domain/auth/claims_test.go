package auth

import (
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

func TestDecodeClaims_SignedToken(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()
	tok := signed(t, jwt.MapClaims{"exp": exp, "user_id": "u-1", "email": "a@example.com", "role": "tutor"})

	c, err := DecodeClaims(tok)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !c.HasExpiry() || c.ExpiresAt.Unix() != exp {
		t.Fatalf("unexpected expiry: %v", c.ExpiresAt)
	}
	if c.Subject != "u-1" || c.Email != "a@example.com" || c.Role != RoleTutor {
		t.Fatalf("unexpected claims: %+v", c)
	}
}

func TestDecodeClaims_IgnoresHeaderAndSignature(t *testing.T) {
	c, err := DecodeClaims("a.eyJleHAiOjk5OTk5OTk5OTl9.c")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if c.ExpiresAt.Unix() != 9999999999 {
		t.Fatalf("unexpected expiry: %v", c.ExpiresAt)
	}
}

func TestDecodeClaims_PaddedPayload(t *testing.T) {
	payload := base64.URLEncoding.EncodeToString([]byte(`{"exp":1}`))
	c, err := DecodeClaims("h." + payload + ".s")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if c.ExpiresAt.Unix() != 1 {
		t.Fatalf("unexpected expiry: %v", c.ExpiresAt)
	}
}

func TestDecodeClaims_Malformed(t *testing.T) {
	enc := base64.RawURLEncoding.EncodeToString
	cases := map[string]string{
		"two segments":   "a.b",
		"four segments":  "a.b.c.d",
		"empty":          "",
		"not base64":     "a.!!!.c",
		"not json":       "a." + enc([]byte("hello")) + ".c",
		"json null":      "a." + enc([]byte(`null`)) + ".c",
		"truncated json": "a." + enc([]byte(`{"exp":`)) + ".c",
		"empty middle":   "a..c",
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeClaims(tok)
			if !errors.Is(err, ErrMalformedToken) {
				t.Fatalf("expected ErrMalformedToken, got %v", err)
			}
		})
	}
}

func TestClaims_ValidAt(t *testing.T) {
	now := time.Unix(1_700_000_000, 500_000_000)
	enc := base64.RawURLEncoding.EncodeToString

	future, err := DecodeClaims("a." + enc([]byte(`{"exp":1700000001}`)) + ".c")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !future.ValidAt(now) {
		t.Fatalf("expected future exp to be valid")
	}

	// exp equal to the current whole second is already past once fractions count.
	same, err := DecodeClaims("a." + enc([]byte(`{"exp":1700000000}`)) + ".c")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if same.ValidAt(now) {
		t.Fatalf("expected exp <= now to be invalid")
	}

	noExp, err := DecodeClaims("a." + enc([]byte(`{"sub":"x"}`)) + ".c")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if noExp.HasExpiry() || noExp.ValidAt(now) {
		t.Fatalf("claims without exp must not be valid")
	}

	stringExp, err := DecodeClaims("a." + enc([]byte(`{"exp":"tomorrow"}`)) + ".c")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stringExp.ValidAt(now) {
		t.Fatalf("non-numeric exp must not be valid")
	}
}

func TestDecodeClaims_NonObjectPayloadHasNoExpiry(t *testing.T) {
	enc := base64.RawURLEncoding.EncodeToString
	now := time.Unix(1_700_000_000, 0)
	for _, payload := range []string{`5`, `[1]`, `"x"`, `true`, `{}`} {
		t.Run(payload, func(t *testing.T) {
			c, err := DecodeClaims("a." + enc([]byte(payload)) + ".c")
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if c.HasExpiry() || c.ValidAt(now) {
				t.Fatalf("payload %s must not carry a valid expiry", payload)
			}
		})
	}
}

func TestClaims_ValidAtFarFutureExpiry(t *testing.T) {
	enc := base64.RawURLEncoding.EncodeToString
	now := time.Unix(1_700_000_000, 0)
	for _, exp := range []string{`1e19`, `1e300`, `9999999999`} {
		t.Run(exp, func(t *testing.T) {
			c, err := DecodeClaims("a." + enc([]byte(`{"exp":`+exp+`}`)) + ".c")
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if !c.HasExpiry() || !c.ValidAt(now) {
				t.Fatalf("exp %s must be valid", exp)
			}
		})
	}

	c, err := DecodeClaims("a." + enc([]byte(`{"exp":1e19}`)) + ".c")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if c.ExpiresAt != nil {
		t.Fatalf("exp beyond time.Time range must not produce ExpiresAt, got %v", c.ExpiresAt)
	}
}

func TestClaims_ValidAtPastExpiry(t *testing.T) {
	enc := base64.RawURLEncoding.EncodeToString
	c, err := DecodeClaims("a." + enc([]byte(`{"exp":-1e19}`)) + ".c")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if c.ValidAt(time.Unix(0, 0)) {
		t.Fatalf("far past exp must not be valid")
	}
}
