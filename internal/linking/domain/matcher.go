// Package domain contains the identity claim matcher and the linking
// service contract.
package domain

import (
	"errors"
	"strings"

	tenantdomain "github.com/homelet/tenantlink/internal/tenant/domain"
)

// ErrNoMatch reports that a claim did not match the stored record. It
// deliberately carries no detail about which field failed.
var ErrNoMatch = errors.New("no_match")

// Claim is the identity a caller presents on the tokenless linking path.
type Claim struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// MatchClaim compares a claim against a stored tenant record. Email and
// name must match exactly, case-insensitively, with surrounding
// whitespace trimmed. Phone is compared only when both sides carry a
// value; absence on either side is not a mismatch.
func MatchClaim(t *tenantdomain.Tenant, c Claim) bool {
	if !strings.EqualFold(strings.TrimSpace(c.Email), strings.TrimSpace(t.Email)) {
		return false
	}
	if !strings.EqualFold(strings.TrimSpace(c.Name), strings.TrimSpace(t.Name)) {
		return false
	}
	claimPhone := strings.TrimSpace(c.Phone)
	storedPhone := strings.TrimSpace(t.Phone)
	if claimPhone != "" && storedPhone != "" && claimPhone != storedPhone {
		return false
	}
	return true
}
