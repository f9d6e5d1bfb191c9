// Package identity derives the shopper's storage partition from the bearer
// credential. The token is decoded, never verified: the server stays the
// authority on who the caller is.
package identity

import (
	"encoding/json"
	"strings"

	pkgerrors "github.com/angelmondragon/saree-storefront/pkg/errors"
	"github.com/golang-jwt/jwt/v5"
)

// GuestKey is the partition suffix used when no usable credential exists.
const GuestKey = "guest"

var (
	ErrMalformedToken = pkgerrors.New(pkgerrors.CodeValidation, "credential is not a three-part token")
	ErrMissingEmail   = pkgerrors.New(pkgerrors.CodeValidation, "credential payload has no email claim")
)

// Identity is either Guest (zero value) or an email-identified shopper.
type Identity struct {
	email string
}

func Guest() Identity {
	return Identity{}
}

func Email(email string) Identity {
	return Identity{email: email}
}

func (i Identity) IsGuest() bool {
	return i.email == ""
}

// Key is the partition suffix: "guest" or the email.
func (i Identity) Key() string {
	if i.IsGuest() {
		return GuestKey
	}
	return i.email
}

func (i Identity) Email() string {
	return i.email
}

func (i Identity) String() string {
	return i.Key()
}

type payload struct {
	Email string `json:"email"`
}

var segmentDecoder = jwt.NewParser(jwt.WithPaddingAllowed())

// Decode extracts the email claim from the middle token segment.
func Decode(token string) (Identity, error) {
	parts := strings.Split(strings.TrimSpace(token), ".")
	if len(parts) != 3 || parts[1] == "" {
		return Guest(), ErrMalformedToken
	}
	raw, err := segmentDecoder.DecodeSegment(parts[1])
	if err != nil {
		return Guest(), pkgerrors.Wrap(pkgerrors.CodeValidation, err, "credential payload is not base64url")
	}
	var claims payload
	if err := json.Unmarshal(raw, &claims); err != nil {
		return Guest(), pkgerrors.Wrap(pkgerrors.CodeValidation, err, "credential payload is not json")
	}
	if strings.TrimSpace(claims.Email) == "" {
		return Guest(), ErrMissingEmail
	}
	return Email(claims.Email), nil
}

// Resolve is Decode with every failure downgraded to Guest.
func Resolve(token string) Identity {
	if token == "" {
		return Guest()
	}
	id, err := Decode(token)
	if err != nil {
		return Guest()
	}
	return id
}
