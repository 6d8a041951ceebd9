package password

import (
	"strings"
	"unicode"
)

// Violation messages reported by Policy.Validate.
const (
	// ViolationTooShort is an exported constant or variable used by the auth engine.
	ViolationTooShort = "password must be at least 8 characters"
	// ViolationNoUppercase is an exported constant or variable used by the auth engine.
	ViolationNoUppercase = "password must contain an uppercase letter"
	// ViolationNoLowercase is an exported constant or variable used by the auth engine.
	ViolationNoLowercase = "password must contain a lowercase letter"
	// ViolationNoDigit is an exported constant or variable used by the auth engine.
	ViolationNoDigit = "password must contain a digit"
	// ViolationNoSymbol is an exported constant or variable used by the auth engine.
	ViolationNoSymbol = "password must contain a symbol"
)

// commonSubstrings are penalized in the strength score regardless of
// character-class coverage.
var commonSubstrings = []string{"password", "123", "qwerty", "abc", "letmein", "admin"}

// Result is the outcome of a strength check. All violations are
// reported, not just the first, so clients can render every hint at once.
type Result struct {
	Valid      bool
	Violations []string
	Score      int
}

// Policy defines a public type used by homeaze-auth APIs.
//
// Policy instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Policy struct {
	MinLength int
}

// NewPolicy returns a strength policy with the given minimum length,
// defaulting to 8.
func NewPolicy(minLength int) Policy {
	if minLength <= 0 {
		minLength = 8
	}
	return Policy{MinLength: minLength}
}

// Validate enforces the character-class rules and computes a 0-100
// strength score with penalties for repeated runs and common substrings.
func (p Policy) Validate(password string) Result {
	var violations []string

	if len(password) < p.MinLength {
		violations = append(violations, ViolationTooShort)
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSymbol = true
		}
	}
	if !hasUpper {
		violations = append(violations, ViolationNoUppercase)
	}
	if !hasLower {
		violations = append(violations, ViolationNoLowercase)
	}
	if !hasDigit {
		violations = append(violations, ViolationNoDigit)
	}
	if !hasSymbol {
		violations = append(violations, ViolationNoSymbol)
	}

	return Result{
		Valid:      len(violations) == 0,
		Violations: violations,
		Score:      p.score(password, hasUpper, hasLower, hasDigit, hasSymbol),
	}
}

func (p Policy) score(password string, hasUpper, hasLower, hasDigit, hasSymbol bool) int {
	if password == "" {
		return 0
	}

	score := 0

	// Length contributes up to 40 points, saturating at 20 characters.
	length := len(password)
	if length > 20 {
		length = 20
	}
	score += length * 2

	if hasUpper {
		score += 15
	}
	if hasLower {
		score += 15
	}
	if hasDigit {
		score += 15
	}
	if hasSymbol {
		score += 15
	}

	score -= 10 * repeatedRuns(password)

	lower := strings.ToLower(password)
	for _, sub := range commonSubstrings {
		if strings.Contains(lower, sub) {
			score -= 20
		}
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// repeatedRuns counts runs of three or more identical characters.
func repeatedRuns(password string) int {
	runs := 0
	runLength := 1
	var prev rune

	for i, r := range password {
		if i > 0 && r == prev {
			runLength++
			if runLength == 3 {
				runs++
			}
		} else {
			runLength = 1
		}
		prev = r
	}
	return runs
}
