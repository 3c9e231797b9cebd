package config

import (
	"testing"

	"backend/internal/model"
)

func TestApprovalChainDefault(t *testing.T) {
	chain, err := WorkflowConfig{}.ApprovalChain()
	if err != nil {
		t.Fatalf("ApprovalChain: %v", err)
	}
	if len(chain) != len(model.DefaultApprovalChain) {
		t.Fatalf("empty config must yield the full default chain, got %v", chain)
	}
}

func TestApprovalChainSubsetKeepsOrder(t *testing.T) {
	// Listed out of order on purpose; default order must win
	chain, err := WorkflowConfig{Chain: []string{"scm_head", "section_head"}}.ApprovalChain()
	if err != nil {
		t.Fatalf("ApprovalChain: %v", err)
	}
	want := []model.ApprovalRole{model.RoleSectionHead, model.RoleSCMHead}
	if len(chain) != len(want) {
		t.Fatalf("chain = %v, want %v", chain, want)
	}
	for i := range want {
		if chain[i] != want[i] {
			t.Errorf("chain[%d] = %s, want %s", i, chain[i], want[i])
		}
	}
}

func TestApprovalChainRejectsUnknownRole(t *testing.T) {
	if _, err := (WorkflowConfig{Chain: []string{"section_head", "auditor"}}).ApprovalChain(); err == nil {
		t.Error("unknown role must be rejected")
	}
}

func TestDSN(t *testing.T) {
	d := DBConfig{Host: "db", Port: "5432", User: "app", Password: "secret", Name: "workflow", SSLMode: "disable"}
	want := "postgres://app:secret@db:5432/workflow?sslmode=disable"
	if got := d.DSN(); got != want {
		t.Errorf("DSN = %q, want %q", got, want)
	}
}
