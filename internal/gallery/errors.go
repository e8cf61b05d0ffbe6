package gallery

import (
	"errors"
	"fmt"
)

// ErrTornDown is returned by mutating operations after Teardown.
var ErrTornDown = errors.New("gallery store has been torn down")

// ValidationError reports a submit without both a selected file and a title.
type ValidationError struct {
	MissingFile  bool
	MissingTitle bool
}

func (e *ValidationError) Error() string {
	return "missing image or title"
}

// CapacityError reports a submit on a full board.
type CapacityError struct {
	Max int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("you can only register up to %d images", e.Max)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsCapacity reports whether err is a CapacityError.
func IsCapacity(err error) bool {
	var ce *CapacityError
	return errors.As(err, &ce)
}
