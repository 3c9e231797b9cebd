package model

import (
	"testing"

	"github.com/google/uuid"
)

func TestRequestStatusValid(t *testing.T) {
	for _, s := range AllRequestStatuses {
		if !s.Valid() {
			t.Errorf("expected %q to be valid", s)
		}
	}
	if RequestStatus("archived").Valid() {
		t.Error("unknown status reported valid")
	}
}

func TestRequestTransitions(t *testing.T) {
	allowed := []struct {
		from, to RequestStatus
	}{
		{StatusDraft, StatusSubmitted},
		{StatusDraft, StatusCancelled},
		{StatusSubmitted, StatusSectionApproved},
		{StatusSubmitted, StatusRejected},
		{StatusSubmitted, StatusRevisionRequested},
		{StatusSubmitted, StatusCancelled},
		{StatusSectionApproved, StatusSCMApproved},
		{StatusSCMApproved, StatusCompleted},
		{StatusRevisionRequested, StatusSubmitted},
	}
	for _, tc := range allowed {
		if !tc.from.CanTransitionTo(tc.to) {
			t.Errorf("expected %s -> %s to be legal", tc.from, tc.to)
		}
	}

	forbidden := []struct {
		from, to RequestStatus
	}{
		{StatusDraft, StatusSectionApproved},
		{StatusDraft, StatusCompleted},
		{StatusSubmitted, StatusSCMApproved},
		{StatusSubmitted, StatusCompleted},
		{StatusSectionApproved, StatusCompleted},
		{StatusCompleted, StatusSubmitted},
		{StatusRejected, StatusSubmitted},
		{StatusCancelled, StatusDraft},
		{StatusRevisionRequested, StatusSectionApproved},
		{StatusRevisionRequested, StatusCancelled},
	}
	for _, tc := range forbidden {
		if tc.from.CanTransitionTo(tc.to) {
			t.Errorf("expected %s -> %s to be illegal", tc.from, tc.to)
		}
	}
}

func TestTerminalStatuses(t *testing.T) {
	terminal := []RequestStatus{StatusCompleted, StatusRejected, StatusCancelled}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("expected %s to be terminal", s)
		}
	}
	for _, s := range []RequestStatus{StatusDraft, StatusSubmitted, StatusSectionApproved, StatusSCMApproved, StatusRevisionRequested} {
		if s.IsTerminal() {
			t.Errorf("expected %s to be non-terminal", s)
		}
	}
}

func TestEditableAndCancellable(t *testing.T) {
	if !StatusDraft.Editable() || !StatusRevisionRequested.Editable() {
		t.Error("draft and revision_requested must be editable")
	}
	if StatusSubmitted.Editable() {
		t.Error("submitted must not be editable")
	}

	for _, s := range []RequestStatus{StatusDraft, StatusSubmitted, StatusSectionApproved, StatusSCMApproved} {
		if !s.Cancellable() {
			t.Errorf("expected %s to be cancellable", s)
		}
	}
	for _, s := range []RequestStatus{StatusCompleted, StatusRejected, StatusCancelled, StatusRevisionRequested} {
		if s.Cancellable() {
			t.Errorf("expected %s not to be cancellable", s)
		}
	}
}

func TestAwaitingApproval(t *testing.T) {
	awaiting := map[RequestStatus]bool{
		StatusSubmitted:       true,
		StatusSectionApproved: true,
		StatusSCMApproved:     true,
	}
	for _, s := range AllRequestStatuses {
		if got := s.AwaitingApproval(); got != awaiting[s] {
			t.Errorf("AwaitingApproval(%s) = %v, want %v", s, got, awaiting[s])
		}
	}
}

func TestRequestDeletable(t *testing.T) {
	r := &Request{Status: StatusDraft}
	if !r.Deletable() {
		t.Error("draft request must be deletable")
	}
	r.Status = StatusRejected
	if !r.Deletable() {
		t.Error("rejected request must be deletable")
	}
	r.Status = StatusSubmitted
	if r.Deletable() {
		t.Error("submitted request must not be deletable")
	}
}

func TestRequestIsOwnedBy(t *testing.T) {
	owner := uuid.New()
	r := &Request{UserID: owner}
	if !r.IsOwnedBy(Principal{UserID: owner}) {
		t.Error("owner not recognized")
	}
	if r.IsOwnedBy(Principal{UserID: uuid.New()}) {
		t.Error("stranger recognized as owner")
	}
}
