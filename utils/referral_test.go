package utils

import (
	"strings"
	"testing"
)

func TestGenerateRecruitmentCode(t *testing.T) {
	t.Parallel()

	code, err := GenerateRecruitmentCode()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(code, RecruitmentCodePrefix+"-") {
		t.Fatalf("code %q should start with %s-", code, RecruitmentCodePrefix)
	}
	if len(code) != len(RecruitmentCodePrefix)+1+6 {
		t.Fatalf("code %q has unexpected length", code)
	}
	for _, r := range code[len(RecruitmentCodePrefix)+1:] {
		if !((r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			t.Fatalf("code %q contains non-alphanumeric character %q", code, r)
		}
	}
}

func TestGenerateBonusReference(t *testing.T) {
	t.Parallel()

	ref, err := GenerateBonusReference()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(ref, BonusReferencePrefix+"-") {
		t.Fatalf("reference %q should start with %s-", ref, BonusReferencePrefix)
	}
	if len(ref) != len(BonusReferencePrefix)+1+8 {
		t.Fatalf("reference %q has unexpected length", ref)
	}
}
