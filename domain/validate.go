package domain

import "unicode/utf8"

// Field names as they appear in JSON and in FieldErrors.
const (
	FieldID           = "id"
	FieldName         = "name"
	FieldDescription  = "description"
	FieldLogo         = "logo"
	FieldDateRelease  = "date_release"
	FieldDateRevision = "date_revision"
)

// Field error messages.
const (
	MsgIDLength          = "required, must be between 3 and 10 characters"
	MsgNameLength        = "required, must be between 5 and 100 characters"
	MsgDescriptionLength = "required, must be between 10 and 200 characters"
	MsgRequired          = "this field is required"
	MsgReleaseTooEarly   = "date must be today or later"
	MsgDuplicateID       = "identifier already exists"
)

// FieldErrors maps a field name to a human readable message.
type FieldErrors map[string]string

// Valid reports whether no field has an error.
func (e FieldErrors) Valid() bool {
	return len(e) == 0
}

// Clone returns an independent copy.
func (e FieldErrors) Clone() FieldErrors {
	out := make(FieldErrors, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// Validate computes every field error of candidate in one pass. today is
// compared by calendar date only. date_revision is only checked for
// presence; keeping it one year after date_release is the form's job.
func Validate(candidate Product, today Date) FieldErrors {
	errs := FieldErrors{}

	if !lengthBetween(candidate.ID, 3, 10) {
		errs[FieldID] = MsgIDLength
	}
	if !lengthBetween(candidate.Name, 5, 100) {
		errs[FieldName] = MsgNameLength
	}
	if !lengthBetween(candidate.Description, 10, 200) {
		errs[FieldDescription] = MsgDescriptionLength
	}
	if candidate.Logo == "" {
		errs[FieldLogo] = MsgRequired
	}
	if candidate.DateRelease.IsZero() {
		errs[FieldDateRelease] = MsgRequired
	}
	// later message wins on the same key
	if !candidate.DateRelease.IsZero() && candidate.DateRelease.Before(today) {
		errs[FieldDateRelease] = MsgReleaseTooEarly
	}
	if candidate.DateRevision.IsZero() {
		errs[FieldDateRevision] = MsgRequired
	}

	return errs
}

func lengthBetween(s string, lo, hi int) bool {
	n := utf8.RuneCountInString(s)
	return n >= lo && n <= hi
}
