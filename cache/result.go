package cache

// Write-failure codes surfaced in a WriteResult.
const (
	CodeStoreUnavailable = "store_unavailable"
	CodeWriteFailed      = "write_failed"
	CodeInvalidRecord    = "invalid_record"
)

// WriteResult is the structured outcome of a cache write. Failures come back
// as a result rather than an error so callers can log and keep going.
type WriteResult struct {
	OK      bool
	Code    string
	Message string
	Err     error
}

func writeOK() WriteResult {
	return WriteResult{OK: true}
}

func writeFailure(code, message string, err error) WriteResult {
	return WriteResult{Code: code, Message: message, Err: err}
}
