package domain

const (
	StatusPending = "Pending"
	StatusSuccess = "Success"
	StatusFailed  = "Failed"
)

// ResultCodeSuccess is the Daraja result code for a completed STK payment.
// Every other code (cancelled, timeout, insufficient funds, ...) maps to Failed.
const ResultCodeSuccess = "0"

// StatusFromResultCode maps a callback result code to a terminal transaction status.
func StatusFromResultCode(code string) string {
	if code == ResultCodeSuccess {
		return StatusSuccess
	}
	return StatusFailed
}
