package txsubmit

import "errors"

// Sentinel errors for the submission subsystem.
var (
	ErrNoKeysAvailable    = errors.New("txsubmit: no keys available")
	ErrSimulationFailed   = errors.New("txsubmit: simulation/estimate failed")
	ErrInclusionTimeout   = errors.New("txsubmit: tx not included after polling")
	ErrBatchEmpty         = errors.New("txsubmit: batch has no messages")
)
