package validation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/multierr"

	"shortly/internal/models"
	"shortly/internal/shortcode"
)

const (
	DefaultValidityMinutes = 30
	MaxValidityMinutes     = 10080 // one week
)

// Field error codes
const (
	CodeBatchSize          = "batch_size"
	CodeRequired           = "required"
	CodeInvalidURL         = "invalid_url"
	CodeInvalidValidity    = "invalid_validity"
	CodeInvalidShortcode   = "invalid_shortcode"
	CodeDuplicateShortcode = "duplicate_shortcode"
	CodeDuplicateURL       = "duplicate_url"
)

// Entry is one validated batch entry
type Entry struct {
	LongURL         string
	ValidityMinutes int
	Shortcode       string // empty means generate one
}

// Batch is a fully validated submission
type Batch struct {
	Entries []Entry
}

// FieldError is one validation failure. Index is -1 for batch level errors.
type FieldError struct {
	Index   int
	Field   string
	Code    string
	Reason  string
	Message string
}

func (e *FieldError) Error() string {
	if e.Index < 0 {
		return e.Message
	}
	return fmt.Sprintf("urls[%d].%s: %s", e.Index, e.Field, e.Message)
}

// Report collects every field error of a rejected batch
type Report struct {
	err error
}

// Add records a field error
func (r *Report) Add(fe *FieldError) {
	r.err = multierr.Append(r.err, fe)
}

// Empty reports whether no error has been recorded
func (r *Report) Empty() bool {
	return r.err == nil
}

func (r *Report) Error() string {
	if r.err == nil {
		return "no validation errors"
	}
	return r.err.Error()
}

// Unwrap exposes the individual field errors to errors.Is and errors.As
func (r *Report) Unwrap() []error {
	return multierr.Errors(r.err)
}

// FieldErrors returns the recorded errors in the order they were found
func (r *Report) FieldErrors() []*FieldError {
	errs := multierr.Errors(r.err)
	out := make([]*FieldError, 0, len(errs))
	for _, err := range errs {
		var fe *FieldError
		if errors.As(err, &fe) {
			out = append(out, fe)
		}
	}
	return out
}

// ToModels converts the report to the wire representation
func (r *Report) ToModels() []models.FieldError {
	fields := r.FieldErrors()
	out := make([]models.FieldError, len(fields))
	for i, fe := range fields {
		out[i] = models.FieldError{
			Index:   fe.Index,
			Field:   fe.Field,
			Code:    fe.Code,
			Reason:  fe.Reason,
			Message: fe.Message,
		}
	}
	return out
}

// ValidateBatch checks every entry and every cross-entry rule. All errors are
// collected; the batch is returned only when there are none.
func ValidateBatch(entries []models.EntryRequest) (*Batch, error) {
	return ValidateBatchWithDefault(entries, DefaultValidityMinutes)
}

// ValidateBatchWithDefault is ValidateBatch with a configurable validity for
// entries that omit one. Out of range defaults fall back to
// DefaultValidityMinutes.
func ValidateBatchWithDefault(entries []models.EntryRequest, defaultMinutes int) (*Batch, error) {
	if defaultMinutes < 1 || defaultMinutes > MaxValidityMinutes {
		defaultMinutes = DefaultValidityMinutes
	}
	report := &Report{}

	if len(entries) == 0 || len(entries) > models.MaxBatchSize {
		report.Add(&FieldError{
			Index:   -1,
			Field:   "urls",
			Code:    CodeBatchSize,
			Message: fmt.Sprintf("between 1 and %d URLs must be submitted", models.MaxBatchSize),
		})
		return nil, report
	}

	batch := &Batch{Entries: make([]Entry, len(entries))}

	for i, in := range entries {
		entry := Entry{ValidityMinutes: defaultMinutes}

		switch {
		case strings.TrimSpace(in.LongURL) == "":
			report.Add(&FieldError{Index: i, Field: "longURL", Code: CodeRequired, Message: "URL is required"})
		case !IsValidURL(in.LongURL):
			report.Add(&FieldError{Index: i, Field: "longURL", Code: CodeInvalidURL,
				Message: "Please enter a valid URL (e.g., https://example.com)"})
		default:
			entry.LongURL = Normalize(in.LongURL)
		}

		if raw := strings.TrimSpace(string(in.Validity)); raw != "" {
			minutes, err := ParseValidity(raw)
			if err != nil {
				report.Add(&FieldError{Index: i, Field: "validity", Code: CodeInvalidValidity, Reason: "range",
					Message: fmt.Sprintf("Validity must be between 1 and %d minutes (1 week max)", MaxValidityMinutes)})
			} else {
				entry.ValidityMinutes = minutes
			}
		}

		if in.Shortcode != "" {
			if err := shortcode.ValidateCustom(in.Shortcode); err != nil {
				fe := &FieldError{Index: i, Field: "shortcode", Code: CodeInvalidShortcode, Message: err.Error()}
				var scErr *shortcode.ShortcodeError
				if errors.As(err, &scErr) {
					fe.Reason = string(scErr.Reason)
				}
				report.Add(fe)
			} else {
				entry.Shortcode = in.Shortcode
			}
		}

		batch.Entries[i] = entry
	}

	flagDuplicates(entries, report)

	if !report.Empty() {
		return nil, report
	}
	return batch, nil
}

// ParseValidity parses a validity in whole minutes within [1, MaxValidityMinutes]
func ParseValidity(raw string) (int, error) {
	minutes, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || minutes < 1 || minutes > MaxValidityMinutes {
		return 0, fmt.Errorf("validity %q must be a whole number of minutes between 1 and %d", raw, MaxValidityMinutes)
	}
	return minutes, nil
}

// flagDuplicates marks every entry sharing a custom shortcode (case
// sensitive) or a normalized long URL (case insensitive) with another entry.
func flagDuplicates(entries []models.EntryRequest, report *Report) {
	codes := make(map[string][]int)
	urls := make(map[string][]int)

	for i, in := range entries {
		if in.Shortcode != "" {
			codes[in.Shortcode] = append(codes[in.Shortcode], i)
		}
		if key := strings.ToLower(Normalize(in.LongURL)); key != "" {
			urls[key] = append(urls[key], i)
		}
	}

	for i, in := range entries {
		if in.Shortcode != "" && len(codes[in.Shortcode]) > 1 {
			report.Add(&FieldError{Index: i, Field: "shortcode", Code: CodeDuplicateShortcode,
				Reason: string(shortcode.ReasonDuplicate), Message: "Duplicate shortcode - must be unique"})
		}
		if key := strings.ToLower(Normalize(in.LongURL)); key != "" && len(urls[key]) > 1 {
			report.Add(&FieldError{Index: i, Field: "longURL", Code: CodeDuplicateURL,
				Message: "Duplicate URL - each URL must be unique"})
		}
	}
}
