package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"yamdb/internal/models"
)

const (
	macLength = 20
	// codes stamped slightly in the future are tolerated for clock skew
	maxClockSkew = time.Minute
)

// CodeGenerator derives confirmation codes from a user's current state. Codes
// are never stored: Check recomputes the expected value and compares.
//
// Format: <issued-at, base36 unix seconds>-<first 20 hex chars of the HMAC>.
type CodeGenerator struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewCodeGenerator(key []byte, ttl time.Duration) *CodeGenerator {
	return &CodeGenerator{key: key, ttl: ttl, now: time.Now}
}

func (g *CodeGenerator) Make(u *models.User) string {
	return g.makeAt(u, g.now().Unix())
}

func (g *CodeGenerator) makeAt(u *models.User, ts int64) string {
	return strconv.FormatInt(ts, 36) + "-" + g.mac(u, ts)
}

// Check reports whether code was derived from u's current state and has not
// expired. Every kind of mismatch yields the same false.
func (g *CodeGenerator) Check(u *models.User, code string) bool {
	tsPart, macPart, ok := strings.Cut(code, "-")
	if !ok || tsPart == "" || len(macPart) != macLength {
		return false
	}
	ts, err := strconv.ParseInt(tsPart, 36, 64)
	if err != nil || ts <= 0 {
		return false
	}
	age := g.now().Sub(time.Unix(ts, 0))
	if age > g.ttl || age < -maxClockSkew {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(g.mac(u, ts)), []byte(macPart)) == 1
}

func (g *CodeGenerator) mac(u *models.User, ts int64) string {
	h := hmac.New(sha256.New, g.key)
	h.Write([]byte(fingerprint(u)))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatInt(ts, 10)))
	return hex.EncodeToString(h.Sum(nil))[:macLength]
}

// fingerprint is the account state a code is bound to. Any change to these
// fields invalidates outstanding codes.
func fingerprint(u *models.User) string {
	login := ""
	if u.LastLogin != nil {
		login = strconv.FormatInt(u.LastLogin.UTC().UnixMicro(), 10)
	}
	return strings.Join([]string{
		strconv.FormatInt(u.ID, 10),
		u.Username,
		u.Email,
		strconv.FormatBool(u.IsActive),
		strconv.FormatInt(u.ConfirmationSeq, 10),
		login,
	}, "\x00")
}
