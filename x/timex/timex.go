package timex

import "time"

// PeriodFromHz returns the period for a requested frequency.
// freqHz==0 is coerced to 1 to avoid division by zero.
func PeriodFromHz(freqHz uint32) time.Duration {
	if freqHz == 0 {
		freqHz = 1
	}
	return time.Duration(1_000_000_000 / uint64(freqHz))
}
