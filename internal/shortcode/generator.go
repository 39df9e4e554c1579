package shortcode

import (
	"fmt"
	"math/rand"
	"regexp"
	"strconv"

	"shortly/internal/clock"
	"shortly/internal/entities"
)

const (
	MinLength       = 4
	MaxLength       = 10
	GeneratedLength = 6
	MaxAttempts     = 100
)

// Generated codes use lowercase base36
const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

var customPattern = regexp.MustCompile(`^[a-zA-Z0-9]+$`)

// Reason describes why a custom shortcode was rejected
type Reason string

const (
	ReasonTooShort  Reason = "too_short"
	ReasonTooLong   Reason = "too_long"
	ReasonBadChars  Reason = "bad_chars"
	ReasonDuplicate Reason = "duplicate"
)

// ShortcodeError is returned when a custom shortcode is rejected
type ShortcodeError struct {
	Code   string
	Reason Reason
}

func (e *ShortcodeError) Error() string {
	switch e.Reason {
	case ReasonTooShort, ReasonTooLong:
		return fmt.Sprintf("shortcode must be %d-%d characters", MinLength, MaxLength)
	case ReasonBadChars:
		return "shortcode can only contain letters and numbers"
	case ReasonDuplicate:
		return fmt.Sprintf("shortcode '%s' is already taken", e.Code)
	default:
		return "invalid shortcode"
	}
}

// ValidateCustom checks the shape of a user supplied shortcode. It does not
// check uniqueness.
func ValidateCustom(code string) error {
	if len(code) < MinLength {
		return &ShortcodeError{Code: code, Reason: ReasonTooShort}
	}
	if len(code) > MaxLength {
		return &ShortcodeError{Code: code, Reason: ReasonTooLong}
	}
	if !customPattern.MatchString(code) {
		return &ShortcodeError{Code: code, Reason: ReasonBadChars}
	}
	return nil
}

// Generator allocates shortcodes against a snapshot of taken codes.
type Generator struct {
	intN  func(n int) int
	clock clock.Clock
}

// NewGenerator creates a generator backed by math/rand and the system clock.
func NewGenerator() *Generator {
	return &Generator{
		intN:  rand.Intn,
		clock: clock.Real{},
	}
}

// NewGeneratorWith creates a generator with an injected random source and
// clock. The random source must return a value in [0, n). Nil arguments
// select the defaults.
func NewGeneratorWith(intN func(n int) int, c clock.Clock) *Generator {
	if intN == nil {
		intN = rand.Intn
	}
	if c == nil {
		c = clock.Real{}
	}
	return &Generator{
		intN:  intN,
		clock: c,
	}
}

// Generate returns custom when it is a valid, untaken shortcode. With an
// empty custom it draws random candidates, retrying collisions up to
// MaxAttempts times before falling back to a time derived code.
func (g *Generator) Generate(custom string, existing map[string]struct{}) (string, error) {
	if custom != "" {
		if err := ValidateCustom(custom); err != nil {
			return "", err
		}
		if _, taken := existing[custom]; taken {
			return "", &ShortcodeError{Code: custom, Reason: ReasonDuplicate}
		}
		return custom, nil
	}

	for attempt := 0; attempt < MaxAttempts; attempt++ {
		code := g.random()
		if _, taken := existing[code]; !taken {
			return code, nil
		}
	}

	// The fallback can still collide; there is no further retry.
	code := g.fromTime()
	if _, taken := existing[code]; taken {
		return "", entities.ErrShortcodeExhausted
	}
	return code, nil
}

func (g *Generator) random() string {
	b := make([]byte, GeneratedLength)
	for i := range b {
		b[i] = alphabet[g.intN(len(alphabet))]
	}
	return string(b)
}

func (g *Generator) fromTime() string {
	code := strconv.FormatInt(g.clock.Now().UnixMilli(), 36)
	if len(code) > GeneratedLength {
		code = code[len(code)-GeneratedLength:]
	}
	return code
}
