package util

import "time"

// secondsCutoff separates unix seconds from unix milliseconds; 1e11 ms is
// March 1973, 1e11 s is far in the future.
const secondsCutoff = 1e11

// UnixMillis normalizes a unix timestamp to milliseconds. Values below 1e11
// are taken as seconds; ts <= 0 means now.
func UnixMillis(ts int64, now time.Time) int64 {
	switch {
	case ts <= 0:
		return now.UnixMilli()
	case ts < secondsCutoff:
		return ts * 1000
	default:
		return ts
	}
}
