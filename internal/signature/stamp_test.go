package signature

import (
	"strings"
	"testing"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
)

func TestHashStampDeterministic(t *testing.T) {
	stamp := NewHashStamp()
	requestID := uuid.New()
	userID := uuid.New()
	at := time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC)

	first, err := stamp.Issue(requestID, userID, model.RoleSectionHead, at)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	second, err := stamp.Issue(requestID, userID, model.RoleSectionHead, at)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if first != second {
		t.Error("same approval tuple must yield the same reference")
	}
	if !strings.HasPrefix(first, "sig-") {
		t.Errorf("reference %q missing sig- prefix", first)
	}
}

func TestHashStampDistinguishesTuples(t *testing.T) {
	stamp := NewHashStamp()
	requestID := uuid.New()
	userID := uuid.New()
	at := time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC)

	base, _ := stamp.Issue(requestID, userID, model.RoleSectionHead, at)

	otherRole, _ := stamp.Issue(requestID, userID, model.RoleSCMHead, at)
	if base == otherRole {
		t.Error("different roles must yield different references")
	}

	otherUser, _ := stamp.Issue(requestID, uuid.New(), model.RoleSectionHead, at)
	if base == otherUser {
		t.Error("different approvers must yield different references")
	}

	otherTime, _ := stamp.Issue(requestID, userID, model.RoleSectionHead, at.Add(time.Second))
	if base == otherTime {
		t.Error("different timestamps must yield different references")
	}
}
