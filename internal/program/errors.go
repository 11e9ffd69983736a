package program

import "errors"

// ProgramError is a failure the router reports to its caller. Each sentinel
// below is a distinct value so callers match with errors.Is.
type ProgramError struct {
	Code uint32
	Name string
}

func (e *ProgramError) Error() string { return e.Name }

var (
	ErrMissingAuthorization = &ProgramError{Code: 0x1000, Name: "missing authorization"}
	ErrAuthorizationDenied  = &ProgramError{Code: 0x1001, Name: "authorization denied"}
	ErrMalformedPayload     = &ProgramError{Code: 0x1002, Name: "malformed payload"}
	ErrMalformedState       = &ProgramError{Code: 0x1003, Name: "malformed state"}
	ErrRecipientMismatch    = &ProgramError{Code: 0x1004, Name: "recipient mismatch"}
	ErrInsufficientFunds    = &ProgramError{Code: 0x1005, Name: "insufficient funds"}
	ErrArithmeticOverflow   = &ProgramError{Code: 0x1006, Name: "arithmetic overflow"}
	ErrUnknownOperation     = &ProgramError{Code: 0x1007, Name: "unknown operation"}
	ErrNotEnoughAccounts    = &ProgramError{Code: 0x1008, Name: "not enough account keys"}
	ErrIncorrectProgramID   = &ProgramError{Code: 0x1009, Name: "incorrect program id"}
	ErrInvalidFeeRate       = &ProgramError{Code: 0x100a, Name: "fee rate above 100"}
	ErrAlreadyInitialized   = &ProgramError{Code: 0x100b, Name: "config already initialized"}
	ErrSlotExpired          = &ProgramError{Code: 0x100c, Name: "slot expired"}
)

// ErrorCode returns the router error code carried by err, or false when err
// did not originate in the router (a venue or host failure).
func ErrorCode(err error) (uint32, bool) {
	var pe *ProgramError
	if errors.As(err, &pe) {
		return pe.Code, true
	}
	return 0, false
}
