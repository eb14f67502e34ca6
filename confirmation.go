package yamdb

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"strconv"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/crypto/hkdf"
)

const (
	codeKeyInfo = "yamdb confirmation code v1"
	codeLength  = 20 // bytes, hex encoded to 40 chars
	nonceLength = 16
)

// DefaultCodeTTL bounds how long a confirmation code is accepted.
const DefaultCodeTTL = 72 * time.Hour

// ConfirmationCodes issues and verifies confirmation codes. A code is derived
// from the secret, the user id and the user's fingerprint (nonce, issue time
// and email), so it stops verifying as soon as any of those change.
type ConfirmationCodes struct {
	key    []byte
	ttl    time.Duration
	now    func() time.Time
	random io.Reader
}

// CodesOption customizes ConfirmationCodes.
type CodesOption func(*ConfirmationCodes)

// WithCodesClock injects a custom clock (useful for tests).
func WithCodesClock(clock func() time.Time) CodesOption {
	return func(c *ConfirmationCodes) {
		if clock != nil {
			c.now = clock
		}
	}
}

// WithCodesRandom overrides the nonce source.
func WithCodesRandom(r io.Reader) CodesOption {
	return func(c *ConfirmationCodes) {
		if r != nil {
			c.random = r
		}
	}
}

// NewConfirmationCodes derives the code key from secret and salt. A ttl of
// zero disables time based expiry, leaving fingerprint rotation as the only
// invalidation path.
func NewConfirmationCodes(secret, salt string, ttl time.Duration, opts ...CodesOption) (*ConfirmationCodes, error) {
	if secret == "" {
		return nil, goerrors.New("confirmation code secret is required", goerrors.CategoryBadInput)
	}

	key := make([]byte, sha256.Size)
	kdf := hkdf.New(sha256.New, []byte(secret), []byte(salt), []byte(codeKeyInfo))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to derive confirmation code key")
	}

	c := &ConfirmationCodes{
		key:    key,
		ttl:    ttl,
		now:    time.Now,
		random: rand.Reader,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c, nil
}

// NewConfirmationCodesFromConfig builds ConfirmationCodes from Config.
func NewConfirmationCodesFromConfig(cfg Config, opts ...CodesOption) (*ConfirmationCodes, error) {
	return NewConfirmationCodes(cfg.GetSigningKey(), cfg.GetCodeSalt(), cfg.GetCodeTTL(), opts...)
}

// Rotate replaces the user's fingerprint. Any code issued before the call
// stops verifying.
func (c *ConfirmationCodes) Rotate(user *User) error {
	if user == nil {
		return goerrors.New("user is required", goerrors.CategoryBadInput)
	}

	nonce := make([]byte, nonceLength)
	if _, err := io.ReadFull(c.random, nonce); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate code nonce")
	}

	issuedAt := c.now().UTC().Truncate(time.Second)
	user.CodeNonce = hex.EncodeToString(nonce)
	user.CodeIssuedAt = &issuedAt
	return nil
}

// Issue returns the code for the user's current fingerprint. It is
// deterministic: the same fingerprint always yields the same code.
func (c *ConfirmationCodes) Issue(user *User) (string, error) {
	if user == nil || user.CodeNonce == "" || user.CodeIssuedAt == nil {
		return "", goerrors.New("user has no code fingerprint", goerrors.CategoryBadInput)
	}
	return hex.EncodeToString(c.mac(user)), nil
}

// Verify recomputes the expected code and compares it in constant time. It
// never returns an error, a mismatch is simply false.
func (c *ConfirmationCodes) Verify(user *User, code string) bool {
	if user == nil || code == "" || user.CodeNonce == "" || user.CodeIssuedAt == nil {
		return false
	}

	if c.ttl > 0 && c.now().After(user.CodeIssuedAt.Add(c.ttl)) {
		return false
	}

	given, err := hex.DecodeString(code)
	if err != nil {
		return false
	}

	return hmac.Equal(given, c.mac(user))
}

func (c *ConfirmationCodes) mac(user *User) []byte {
	h := hmac.New(sha256.New, c.key)
	h.Write([]byte(user.ID.String()))
	h.Write([]byte{0})
	h.Write([]byte(user.CodeNonce))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatInt(user.CodeIssuedAt.Unix(), 10)))
	h.Write([]byte{0})
	h.Write([]byte(user.Email))
	return h.Sum(nil)[:codeLength]
}
