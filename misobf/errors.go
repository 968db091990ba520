package misobf

import (
	"github.com/grailbio/base/errors"
)

// Kinds used for the errors returned by ParseEvent and the Reader.
const (
	// KindInvalidArgument is the kind of the error returned when the line
	// handed to ParseEvent is not text.
	KindInvalidArgument = errors.Invalid
	// KindMalformed is the kind of the error returned when a line does not
	// have as many fields as the header, or a numeric column does not parse.
	KindMalformed = errors.Integrity
	// KindMissingField is the kind of the error returned when the header lacks
	// a required column.
	KindMissingField = errors.NotExist
)

// IsInvalidArgument reports whether err was caused by a non-textual line.
func IsInvalidArgument(err error) bool { return errors.Is(KindInvalidArgument, err) }

// IsMalformed reports whether err was caused by a malformed data line.
func IsMalformed(err error) bool { return errors.Is(KindMalformed, err) }

// IsMissingField reports whether err was caused by a header that lacks a
// required column.
func IsMissingField(err error) bool { return errors.Is(KindMissingField, err) }
