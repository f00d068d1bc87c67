package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestNewInteraction(t *testing.T) {
	tests := []struct {
		name       string
		actor      string
		kind       InteractionKind
		target     string
		report     *ReportDetails
		wantErr    error
		wantTarget TargetType
		wantReport bool
	}{
		{name: "like", actor: "a", kind: InteractionLike, target: "c1", wantTarget: TargetContent},
		{name: "hide", actor: "a", kind: InteractionHide, target: "c1", wantTarget: TargetContent},
		{name: "follow", actor: "a", kind: InteractionFollow, target: "b", wantTarget: TargetUser},
		{name: "block", actor: "a", kind: InteractionBlock, target: "b", wantTarget: TargetUser},
		{name: "report", actor: "a", kind: InteractionReport, target: "c1", report: &ReportDetails{Reason: ReasonHarassment, Description: "  rude  "}, wantTarget: TargetContent, wantReport: true},
		{name: "details dropped on like", actor: "a", kind: InteractionLike, target: "c1", report: &ReportDetails{Reason: ReasonSpam}, wantTarget: TargetContent},
		{name: "self like is fine", actor: "a", kind: InteractionLike, target: "a", wantTarget: TargetContent},
		{name: "anonymous", actor: "", kind: InteractionLike, target: "c1", wantErr: ErrUnauthenticated},
		{name: "self block", actor: "a", kind: InteractionBlock, target: "a", wantErr: ErrValidation},
		{name: "report without details", actor: "a", kind: InteractionReport, target: "c1", wantErr: ErrValidation},
		{name: "report description too long", actor: "a", kind: InteractionReport, target: "c1",
			report: &ReportDetails{Reason: ReasonOther, Description: strings.Repeat("x", MaxReportDescriptionLength+1)}, wantErr: ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := NewInteraction(tt.actor, tt.kind, tt.target, tt.report)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if in.Target.Type != tt.wantTarget {
				t.Errorf("target type = %s, want %s", in.Target.Type, tt.wantTarget)
			}
			if (in.Report != nil) != tt.wantReport {
				t.Errorf("report present = %v, want %v", in.Report != nil, tt.wantReport)
			}
			if in.Report != nil && in.Report.Description != "rude" {
				t.Errorf("description = %q, want trimmed", in.Report.Description)
			}
		})
	}
}

func TestValidationErrorIs(t *testing.T) {
	err := Invalid("title", "required")
	if !errors.Is(err, ErrValidation) {
		t.Fatal("ValidationError must match ErrValidation")
	}
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "title" {
		t.Errorf("errors.As failed or wrong field: %v", err)
	}
}
