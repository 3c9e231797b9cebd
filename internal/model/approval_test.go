package model

import "testing"

func TestNextApproverRole(t *testing.T) {
	cases := map[RequestStatus]ApprovalRole{
		StatusSubmitted:       RoleSectionHead,
		StatusSectionApproved: RoleSCMHead,
		StatusSCMApproved:     RolePJO,
	}
	for status, want := range cases {
		role, ok := NextApproverRole(status)
		if !ok || role != want {
			t.Errorf("NextApproverRole(%s) = %s, %v; want %s", status, role, ok, want)
		}
	}

	for _, status := range []RequestStatus{StatusDraft, StatusCompleted, StatusRejected, StatusCancelled, StatusRevisionRequested} {
		if _, ok := NextApproverRole(status); ok {
			t.Errorf("NextApproverRole(%s) should report no gating role", status)
		}
	}
}

func TestStatusAfterApproval(t *testing.T) {
	cases := map[ApprovalRole]RequestStatus{
		RoleSectionHead: StatusSectionApproved,
		RoleSCMHead:     StatusSCMApproved,
		RolePJO:         StatusCompleted,
	}
	for role, want := range cases {
		status, ok := StatusAfterApproval(role)
		if !ok || status != want {
			t.Errorf("StatusAfterApproval(%s) = %s, %v; want %s", role, status, ok, want)
		}
	}

	if _, ok := StatusAfterApproval(ApprovalRole("auditor")); ok {
		t.Error("unknown role should not advance the request")
	}
}

func TestChainAndAdvanceAgree(t *testing.T) {
	// Walking the default chain from submitted must land on completed
	status := StatusSubmitted
	for _, role := range DefaultApprovalChain {
		gating, ok := NextApproverRole(status)
		if !ok {
			t.Fatalf("status %s awaits no approval mid-chain", status)
		}
		if gating != role {
			t.Fatalf("status %s gated by %s, chain expects %s", status, gating, role)
		}
		next, ok := StatusAfterApproval(role)
		if !ok {
			t.Fatalf("role %s has no advance status", role)
		}
		if !status.CanTransitionTo(next) {
			t.Fatalf("advance %s -> %s not a legal transition", status, next)
		}
		status = next
	}
	if status != StatusCompleted {
		t.Fatalf("chain walk ended at %s, want completed", status)
	}
}

func TestApproverScopes(t *testing.T) {
	sh, ok := ApproverScopes[RoleSectionHead]
	if !ok || !sh.CompanyScoped || !sh.DepartmentScoped {
		t.Error("section head must be scoped to company and department")
	}
	scm, ok := ApproverScopes[RoleSCMHead]
	if !ok || scm.CompanyScoped || scm.DepartmentScoped {
		t.Error("scm head must be centralized")
	}
	pjo, ok := ApproverScopes[RolePJO]
	if !ok || !pjo.CompanyScoped || pjo.DepartmentScoped {
		t.Error("pjo must be scoped to company only")
	}
}
