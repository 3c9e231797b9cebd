// Package signature provides the attestation-issuing collaborator boundary.
// The workflow engine stores only the opaque reference returned here; any
// QR/image rendering happens outside the core entirely.
package signature

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
)

// Stamp issues an opaque attestation reference for an approval.
type Stamp interface {
	Issue(requestID, userID uuid.UUID, role model.ApprovalRole, at time.Time) (string, error)
}

// HashStamp derives a deterministic reference from the approval tuple.
// The same approval always yields the same reference, so a retried
// transaction never produces a dangling stamp.
type HashStamp struct{}

func NewHashStamp() *HashStamp {
	return &HashStamp{}
}

func (s *HashStamp) Issue(requestID, userID uuid.UUID, role model.ApprovalRole, at time.Time) (string, error) {
	h := sha256.New()
	h.Write([]byte(requestID.String()))
	h.Write([]byte(userID.String()))
	h.Write([]byte(role))
	h.Write([]byte(at.UTC().Format(time.RFC3339)))
	return "sig-" + hex.EncodeToString(h.Sum(nil)), nil
}
