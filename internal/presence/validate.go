package presence

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/hay-kot/criterio"
)

// ///////////////////////////////////////////////
// Validation Errors
// ///////////////////////////////////////////////

// Kind classifies a validation failure.
type Kind int

const (
	// ButtonOrder: the second button is set while the first is not.
	ButtonOrder Kind = iota + 1
	// ButtonIncomplete: a button has a label without a URL, or the reverse.
	ButtonIncomplete
	// TimestampConflict: enable_time is combined with an explicit start or end.
	TimestampConflict
	// PartySizeMalformed: party_size is not exactly two non-negative
	// integers with current <= max.
	PartySizeMalformed
	// PartyIDRequired: party_size is set without party_id (strict mode only).
	PartyIDRequired
	// SecretRequiresMatch: a secret lacks its match_id or party_id.
	SecretRequiresMatch
)

var kindNames = map[Kind]string{
	ButtonOrder:         "button_order",
	ButtonIncomplete:    "button_incomplete",
	TimestampConflict:   "timestamp_conflict",
	PartySizeMalformed:  "party_size_malformed",
	PartyIDRequired:     "party_id_required",
	SecretRequiresMatch: "secret_requires_match",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ValidationError is a single rule violation. Validate returns these wrapped
// in a [criterio.FieldErrors] keyed by the offending field.
type ValidationError struct {
	Kind   Kind
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Kinds returns the kind of every ValidationError in err, in the order they
// were reported.
func Kinds(err error) []Kind {
	var kinds []Kind
	var fe criterio.FieldErrors
	if errors.As(err, &fe) {
		for _, f := range fe {
			var ve *ValidationError
			if errors.As(f.Err, &ve) {
				kinds = append(kinds, ve.Kind)
			}
		}
		return kinds
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		kinds = append(kinds, ve.Kind)
	}
	return kinds
}

// HasKind reports whether err carries a ValidationError of kind k.
func HasKind(err error, k Kind) bool {
	for _, got := range Kinds(err) {
		if got == k {
			return true
		}
	}
	return false
}

// ///////////////////////////////////////////////
// Party Size
// ///////////////////////////////////////////////

// Values decodes the pair into (current, max). It fails when the pair is
// absent, has the wrong length, holds non-integers or out-of-range values,
// or current exceeds max.
func (p PartySize) Values() (current, max uint32, err error) {
	if p == nil {
		return 0, 0, errors.New("party_size not set")
	}
	if len(p) != 2 {
		return 0, 0, fmt.Errorf("must contain exactly two values [current, max], got %d", len(p))
	}
	var vals [2]uint32
	for i, raw := range p {
		name := [2]string{"current", "max"}[i]
		n, perr := strconv.ParseInt(string(raw), 10, 64)
		switch {
		case perr != nil:
			return 0, 0, fmt.Errorf("%s size %s is not an integer", name, raw)
		case n < 0:
			return 0, 0, fmt.Errorf("%s size %d is negative", name, n)
		case n > math.MaxUint32:
			return 0, 0, fmt.Errorf("%s size %d is too large", name, n)
		}
		vals[i] = uint32(n)
	}
	if vals[0] > vals[1] {
		return 0, 0, fmt.Errorf("current size %d exceeds max size %d", vals[0], vals[1])
	}
	return vals[0], vals[1], nil
}

// ///////////////////////////////////////////////
// Validator
// ///////////////////////////////////////////////

// Validator checks an Activity for internal consistency. The zero value
// applies the default rules.
type Validator struct {
	// StrictParty additionally requires party_id whenever party_size is set.
	StrictParty bool
}

// Validate checks a with the default rules.
func Validate(a Activity) error {
	return Validator{}.Validate(a)
}

// Validate returns nil when a may be published, otherwise a
// [criterio.FieldErrors] whose entries wrap [*ValidationError]. Every
// violation is reported, not just the first.
func (v Validator) Validate(a Activity) error {
	var errs criterio.FieldErrorsBuilder
	report := func(field string, kind Kind, format string, args ...any) {
		errs = errs.Append(field, &ValidationError{
			Kind:   kind,
			Field:  field,
			Reason: fmt.Sprintf(format, args...),
		})
	}

	// Buttons
	if a.HasButton2() && !a.HasButton1() {
		report("button_text_2", ButtonOrder, "second button is set but the first is not")
	}
	checkButton := func(n int, text, url *string) {
		switch {
		case text != nil && url == nil:
			report(fmt.Sprintf("button_url_%d", n), ButtonIncomplete, "button %d has a label but no URL", n)
		case text == nil && url != nil:
			report(fmt.Sprintf("button_text_%d", n), ButtonIncomplete, "button %d has a URL but no label", n)
		}
	}
	checkButton(1, a.ButtonText1, a.ButtonURL1)
	checkButton(2, a.ButtonText2, a.ButtonURL2)

	// Timestamps
	if a.EnableTime != nil && *a.EnableTime && (a.StartTime != nil || a.EndTime != nil) {
		report("enable_time", TimestampConflict, "enable_time cannot be combined with start_time or end_time")
	}

	// Party
	if a.PartySize != nil {
		if _, _, err := a.PartySize.Values(); err != nil {
			report("party_size", PartySizeMalformed, "%v", err)
		}
		if v.StrictParty && a.PartyID == nil {
			report("party_id", PartyIDRequired, "party_size requires party_id")
		}
	}

	// Secrets
	if a.JoinSecret != nil && a.MatchID == nil {
		report("join_secret", SecretRequiresMatch, "join_secret requires match_id")
	}
	if a.SpectateSecret != nil && a.MatchID == nil {
		report("spectate_secret", SecretRequiresMatch, "spectate_secret requires match_id")
	}
	if (a.MatchID != nil || a.JoinSecret != nil || a.SpectateSecret != nil) && a.PartyID == nil {
		report("party_id", SecretRequiresMatch, "match and secrets require party_id")
	}

	return errs.ToError()
}
