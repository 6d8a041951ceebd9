package password

import "testing"

func TestValidateStrongPassword(t *testing.T) {
	p := NewPolicy(0)

	res := p.Validate("Tr4vel!ing-Far")
	if !res.Valid {
		t.Fatalf("expected valid, got violations %v", res.Violations)
	}
	if res.Score < 70 {
		t.Fatalf("expected high score, got %d", res.Score)
	}
}

func TestValidateReportsAllViolations(t *testing.T) {
	p := NewPolicy(0)

	res := p.Validate("abc")
	if res.Valid {
		t.Fatal("expected invalid")
	}

	want := map[string]bool{
		ViolationTooShort:    false,
		ViolationNoUppercase: false,
		ViolationNoDigit:     false,
		ViolationNoSymbol:    false,
	}
	for _, v := range res.Violations {
		if _, ok := want[v]; ok {
			want[v] = true
		}
	}
	for v, seen := range want {
		if !seen {
			t.Fatalf("expected violation %q in %v", v, res.Violations)
		}
	}
}

func TestValidateViolationTable(t *testing.T) {
	p := NewPolicy(0)

	cases := []struct {
		name     string
		password string
		expect   string
	}{
		{"missing upper", "secret-pass1", ViolationNoUppercase},
		{"missing lower", "SECRET-PASS1", ViolationNoLowercase},
		{"missing digit", "Secret-Pass!", ViolationNoDigit},
		{"missing symbol", "SecretPass12", ViolationNoSymbol},
		{"too short", "Ab1!", ViolationTooShort},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := p.Validate(tc.password)
			if res.Valid {
				t.Fatal("expected invalid")
			}
			found := false
			for _, v := range res.Violations {
				if v == tc.expect {
					found = true
				}
			}
			if !found {
				t.Fatalf("expected %q in %v", tc.expect, res.Violations)
			}
		})
	}
}

func TestScorePenalizesCommonSubstrings(t *testing.T) {
	p := NewPolicy(0)

	strong := p.Validate("Kf7!mWq2zP").Score
	weak := p.Validate("Password123!").Score
	if weak >= strong {
		t.Fatalf("expected common-substring penalty: weak=%d strong=%d", weak, strong)
	}
}

func TestScorePenalizesRepeatedRuns(t *testing.T) {
	p := NewPolicy(0)

	plain := p.Validate("Xk2!pmqrst").Score
	runs := p.Validate("Xk2!aaaast").Score
	if runs >= plain {
		t.Fatalf("expected repeated-run penalty: runs=%d plain=%d", runs, plain)
	}
}

func TestScoreBounds(t *testing.T) {
	p := NewPolicy(0)

	if got := p.Validate("").Score; got != 0 {
		t.Fatalf("expected 0 for empty password, got %d", got)
	}
	if got := p.Validate("password123password123").Score; got < 0 || got > 100 {
		t.Fatalf("score out of bounds: %d", got)
	}
}
