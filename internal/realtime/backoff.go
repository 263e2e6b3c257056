package realtime

import "time"

// backoffDelay espera exponencial para el reintento attempt (1, 2, 3, ...):
// base, base*2, base*4, ... acotada por cap.
func backoffDelay(base, cap time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= cap {
			return cap
		}
	}
	if d > cap {
		return cap
	}
	return d
}
