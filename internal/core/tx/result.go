package tx

import (
	"errors"
	"fmt"
)

// Result represents a transaction result code
type Result int

// Transaction result codes, organized by category: tes, tec, tef, tem.
// Unlike a fee-charging ledger, a non-success result leaves state untouched.
const (
	// tesSUCCESS (0)
	TesSUCCESS Result = 0

	// tec codes (100-199): the request was well formed but the ledger state refused it
	TecUNAUTHORIZED        Result = 100
	TecPRECONDITION_FAILED Result = 101
	TecNOT_FOUND           Result = 102
	TecALREADY_RESOLVED    Result = 103
	TecINSUFFICIENT_FUNDS  Result = 104
	TecINVALID_OPERATION   Result = 105
	TecALREADY_REGISTERED  Result = 106
	TecNOT_REGISTERED      Result = 107
	TecINVARIANT_FAILED    Result = 108
	TecBAD_SEQUENCE        Result = 109

	// tef codes (-199 to -100): the transaction could not be processed
	TefINTERNAL      Result = -199
	TefBAD_SIGNATURE Result = -198

	// tem codes (-299 to -200): malformed transaction
	TemMALFORMED   Result = -299
	TemUNKNOWN_TX  Result = -298
	TemBATCH_EMPTY Result = -297
	TemBATCH_LIMIT Result = -296
)

// String returns the string representation of the result code
func (r Result) String() string {
	switch r {
	case TesSUCCESS:
		return "tesSUCCESS"
	case TecUNAUTHORIZED:
		return "tecUNAUTHORIZED"
	case TecPRECONDITION_FAILED:
		return "tecPRECONDITION_FAILED"
	case TecNOT_FOUND:
		return "tecNOT_FOUND"
	case TecALREADY_RESOLVED:
		return "tecALREADY_RESOLVED"
	case TecINSUFFICIENT_FUNDS:
		return "tecINSUFFICIENT_FUNDS"
	case TecINVALID_OPERATION:
		return "tecINVALID_OPERATION"
	case TecALREADY_REGISTERED:
		return "tecALREADY_REGISTERED"
	case TecNOT_REGISTERED:
		return "tecNOT_REGISTERED"
	case TecINVARIANT_FAILED:
		return "tecINVARIANT_FAILED"
	case TecBAD_SEQUENCE:
		return "tecBAD_SEQUENCE"
	case TefINTERNAL:
		return "tefINTERNAL"
	case TefBAD_SIGNATURE:
		return "tefBAD_SIGNATURE"
	case TemMALFORMED:
		return "temMALFORMED"
	case TemUNKNOWN_TX:
		return "temUNKNOWN_TX"
	case TemBATCH_EMPTY:
		return "temBATCH_EMPTY"
	case TemBATCH_LIMIT:
		return "temBATCH_LIMIT"
	default:
		return fmt.Sprintf("unknown(%d)", int(r))
	}
}

// Error makes Result usable as an error so callers can test with errors.Is.
func (r Result) Error() string {
	return r.String()
}

var allResults = []Result{
	TesSUCCESS, TecUNAUTHORIZED, TecPRECONDITION_FAILED, TecNOT_FOUND, TecALREADY_RESOLVED,
	TecINSUFFICIENT_FUNDS, TecINVALID_OPERATION, TecALREADY_REGISTERED, TecNOT_REGISTERED,
	TecINVARIANT_FAILED, TecBAD_SEQUENCE, TefINTERNAL, TefBAD_SIGNATURE, TemMALFORMED,
	TemUNKNOWN_TX, TemBATCH_EMPTY, TemBATCH_LIMIT,
}

// MarshalText encodes the result by name.
func (r Result) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText decodes a result name.
func (r *Result) UnmarshalText(text []byte) error {
	for _, candidate := range allResults {
		if candidate.String() == string(text) {
			*r = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown result %q", string(text))
}

// IsSuccess returns true if this is tesSUCCESS
func (r Result) IsSuccess() bool {
	return r == TesSUCCESS
}

// IsTec returns true if this is a tec (ledger state) code
func (r Result) IsTec() bool {
	return r >= 100 && r <= 199
}

// IsTef returns true if this is a tef (failure) code
func (r Result) IsTef() bool {
	return r >= -199 && r <= -100
}

// IsTem returns true if this is a tem (malformed) code
func (r Result) IsTem() bool {
	return r >= -299 && r <= -200
}

// Message returns a human-readable message for the result
func (r Result) Message() string {
	switch r {
	case TesSUCCESS:
		return "The transaction was applied."
	case TecUNAUTHORIZED:
		return "Caller lacks the required role or ownership."
	case TecPRECONDITION_FAILED:
		return "An input value or prerequisite authorization is invalid."
	case TecNOT_FOUND:
		return "No active entry exists for the given id."
	case TecALREADY_RESOLVED:
		return "The entry has already been resolved."
	case TecINSUFFICIENT_FUNDS:
		return "Insufficient balance."
	case TecINVALID_OPERATION:
		return "Operation not allowed between these parties."
	case TecALREADY_REGISTERED:
		return "The asset is already registered for yield."
	case TecNOT_REGISTERED:
		return "The asset is not registered for yield."
	case TecINVARIANT_FAILED:
		return "A ledger invariant would be violated."
	case TecBAD_SEQUENCE:
		return "Sequence does not match the account's next sequence."
	case TefINTERNAL:
		return "Internal error."
	case TefBAD_SIGNATURE:
		return "Invalid signature."
	case TemMALFORMED:
		return "The transaction is ill-formed."
	case TemUNKNOWN_TX:
		return "Unknown transaction type."
	case TemBATCH_EMPTY:
		return "Batch contains no entries."
	case TemBATCH_LIMIT:
		return "Batch exceeds the configured size limit."
	default:
		return r.String()
	}
}

// Failure is an error carrying a result code and detail.
type Failure struct {
	Result Result
	Detail string
}

func (f *Failure) Error() string {
	if f.Detail == "" {
		return f.Result.String()
	}
	return f.Result.String() + ": " + f.Detail
}

func (f *Failure) Unwrap() error {
	return f.Result
}

// Fail builds a Failure with a formatted detail.
func Fail(r Result, format string, args ...any) error {
	return &Failure{Result: r, Detail: fmt.Sprintf(format, args...)}
}

// ResultOf extracts the result code carried by err. Errors without one map to tefINTERNAL.
func ResultOf(err error) Result {
	if err == nil {
		return TesSUCCESS
	}
	var r Result
	if errors.As(err, &r) {
		return r
	}
	return TefINTERNAL
}
