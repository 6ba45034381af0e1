package rescue

import "errors"

var (
	// ErrNonceTooHigh means a signer's nonce moved past the bundle, so the
	// bundle can never land.
	ErrNonceTooHigh = errors.New("account nonce too high, bailing")

	// ErrMaxCycles means the cycle budget ran out before inclusion.
	ErrMaxCycles = errors.New("maximum submission cycles reached without inclusion")

	// ErrBlockStreamClosed means the block source ended before inclusion.
	ErrBlockStreamClosed = errors.New("block stream closed")

	// ErrRunFinished is returned by Run on a runner that already reached
	// StateDone or StateAborted.
	ErrRunFinished = errors.New("rescue run already finished")
)

// ExitCode maps the outcome of Run to a process exit status: 0 when the
// bundle was included, 1 for every other terminal outcome.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}
