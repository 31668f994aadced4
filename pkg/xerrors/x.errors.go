package xerrors

import "errors"
import "github.com/jackc/pgx/v5/pgconn"

func ParsePGErrorCode(err error) string {
	if pgErr, ok := err.(*pgconn.PgError); ok {
		return pgErr.Code // e.g. 23505 for unique_violation
	}
	return "unknown"
}

// Generic
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrInternalServer = errors.New("internal server error")
	ErrNotFound       = errors.New("not found")
	ErrInvalidInput   = errors.New("invalid input provided")
)

// Accounts / hierarchy
var (
	ErrDuplicateCode          = errors.New("account code already exists in this tenant")
	ErrHasChildren            = errors.New("account has child accounts")
	ErrHasPostings            = errors.New("account has posted transaction lines")
	ErrSystemAccountProtected = errors.New("system account cannot be deleted")
	ErrSystemAccountImmutable = errors.New("structural fields of a system account cannot be changed")
	ErrAccountInactive        = errors.New("account is inactive")
	ErrNonPostableAccount     = errors.New("group accounts cannot receive postings")
	ErrParentNotFound         = errors.New("parent account not found")
)

// Transactions / posting
var (
	ErrUnbalancedEntry         = errors.New("entry debits and credits do not balance")
	ErrEmptyEntry              = errors.New("entry must contain at least one line")
	ErrNotDraft                = errors.New("transaction is not in draft status")
	ErrAlreadyPosted           = errors.New("transaction is already posted")
	ErrAlreadyReversed         = errors.New("transaction is already reversed")
	ErrHasSettlements          = errors.New("transaction has linked settlements")
	ErrPeriodNotFound          = errors.New("accounting period not found")
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")
)

// ValidationError carries the offending field so callers can act on it.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return e.Field + ": " + e.Msg
}

func NewValidation(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Msg: msg}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
