package moderation

// Reason identifies which check rejected a piece of content.
type Reason string

const (
	ReasonTooShort  Reason = "too_short"
	ReasonTooLong   Reason = "too_long"
	ReasonProfanity Reason = "profanity"
	ReasonSpam      Reason = "spam"
	ReasonDuplicate Reason = "duplicate"
)

// Default length bounds, in characters.
const (
	DefaultMinLength = 10
	DefaultMaxLength = 5000
)

// Verdict is the outcome of validating one submission. Errors and Reasons
// are parallel and ordered by check: length floor, length ceiling,
// profanity, spam, duplicate.
type Verdict struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors"`
	Reasons []Reason `json:"-"`
}

func (v *Verdict) reject(reason Reason, msg string) {
	v.IsValid = false
	v.Errors = append(v.Errors, msg)
	v.Reasons = append(v.Reasons, reason)
}

// Options tunes a single validation. Non-positive lengths fall back to
// DefaultMinLength and DefaultMaxLength.
type Options struct {
	MinLength        int
	MaxLength        int
	PreviousContents []string
}

func (o Options) withDefaults() Options {
	if o.MinLength <= 0 {
		o.MinLength = DefaultMinLength
	}
	if o.MaxLength <= 0 {
		o.MaxLength = DefaultMaxLength
	}
	return o
}
