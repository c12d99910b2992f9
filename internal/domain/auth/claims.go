package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformedToken is returned when a token's claims segment cannot be read.
var ErrMalformedToken = errors.New("malformed token")

// segmentDecoder decodes base64url segments, padded or not.
//
//nolint:gochecknoglobals // stateless, safe for concurrent use
var segmentDecoder = jwt.NewParser(jwt.WithPaddingAllowed())

// Claims are the readable claims of a bearer token.
//
// Claims are decoded WITHOUT signature verification. They are for reading
// expiry and display fields only and must never be used for trust decisions;
// the backend verifies every token it receives.
type Claims struct {
	// Exp is the numeric exp claim in seconds since the epoch. It is only
	// meaningful when HasExpiry reports true.
	Exp float64
	// ExpiresAt is Exp as a time; nil when exp is absent or outside the
	// range time.Time can represent.
	ExpiresAt *jwt.NumericDate
	Subject   string
	Email     string
	Role      Role
	// Raw is nil when the payload is valid JSON but not an object.
	Raw map[string]any

	hasExp bool
}

// maxUnixSeconds bounds exp values that still convert to a time.Time.
const maxUnixSeconds = 1 << 62

// DecodeClaims reads the claims of a three-part dot-delimited token. Only the
// middle segment is decoded; the header and signature are not inspected.
// It fails with ErrMalformedToken when the token does not have exactly three
// parts, or the middle part is not base64url-encoded JSON, or it is JSON null.
// Any other JSON value decodes; a payload that is not an object carries no
// claims, so it has no expiry.
func DecodeClaims(token string) (Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return Claims{}, fmt.Errorf("%w: expected 3 segments, got %d", ErrMalformedToken, len(parts))
	}

	payload, err := segmentDecoder.DecodeSegment(parts[1])
	if err != nil {
		return Claims{}, fmt.Errorf("%w: decode payload: %w", ErrMalformedToken, err)
	}

	var value any
	if err := json.Unmarshal(payload, &value); err != nil {
		return Claims{}, fmt.Errorf("%w: payload is not JSON: %w", ErrMalformedToken, err)
	}
	if value == nil {
		return Claims{}, fmt.Errorf("%w: payload is null", ErrMalformedToken)
	}

	raw, ok := value.(map[string]any)
	if !ok {
		return Claims{}, nil
	}

	c := Claims{Raw: raw}
	if exp, ok := raw["exp"].(float64); ok && !math.IsNaN(exp) && !math.IsInf(exp, 0) {
		c.Exp = exp
		c.hasExp = true
		if math.Abs(exp) < maxUnixSeconds {
			sec, frac := math.Modf(exp)
			c.ExpiresAt = &jwt.NumericDate{Time: time.Unix(int64(sec), int64(frac*1e9))}
		}
	}
	c.Subject = firstString(raw, "sub", "user_id")
	c.Email = firstString(raw, "email")
	c.Role = Role(firstString(raw, "role"))

	return c, nil
}

// HasExpiry reports whether the token carried a numeric exp claim.
func (c Claims) HasExpiry() bool { return c.hasExp }

// ValidAt reports whether exp is strictly after now, compared in fractional
// seconds. Tokens without an exp claim are never valid.
func (c Claims) ValidAt(now time.Time) bool {
	if !c.hasExp {
		return false
	}
	return c.Exp > float64(now.Unix())+float64(now.Nanosecond())/1e9
}

func firstString(raw map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := raw[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return fmt.Sprintf("%.0f", v)
		}
	}
	return ""
}
