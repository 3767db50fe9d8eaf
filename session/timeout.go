package session

import "net"

// isTimeout reports whether err is a deadline expiry, as opposed to a real
// read/connect failure. Both session variants use a short read deadline
// purely to poll the stop token (§4.4), so timeouts are not errors.
func isTimeout(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}
