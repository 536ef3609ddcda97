// Package memberid generates the human-facing membership identifiers handed
// out at registration. Regular members get "MEM-" plus six uppercase
// alphanumeric characters; administrative identities carry an extra "ADMIN_"
// prefix so they are recognizable at a glance in exports and audit trails.
package memberid

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	// MemberPrefix precedes the random suffix of every membership identifier.
	MemberPrefix = "MEM-"

	// AdminPrefix precedes the member prefix on administrative identities.
	AdminPrefix = "ADMIN_"

	suffixLen     = 6
	suffixCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Generate returns a fresh candidate member ID. Uniqueness is the caller's
// problem: collisions are possible and the store retries with a new candidate.
func Generate() (string, error) {
	suffix, err := randomSuffix(suffixLen)
	if err != nil {
		return "", fmt.Errorf("generating member id: %w", err)
	}
	return MemberPrefix + suffix, nil
}

// GenerateAdmin returns a fresh candidate admin member ID.
func GenerateAdmin() (string, error) {
	id, err := Generate()
	if err != nil {
		return "", err
	}
	return AdminPrefix + id, nil
}

// IsAdmin reports whether the member ID denotes an administrative identity.
func IsAdmin(memberID string) bool {
	return strings.HasPrefix(memberID, AdminPrefix)
}

func randomSuffix(length int) (string, error) {
	var sb strings.Builder
	sb.Grow(length)
	max := big.NewInt(int64(len(suffixCharset)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		sb.WriteByte(suffixCharset[n.Int64()])
	}
	return sb.String(), nil
}
