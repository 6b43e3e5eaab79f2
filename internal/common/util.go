package common

// WipeByteArray overwrites b with zeros. Used for passwords read from the
// terminal once they have been handed to the API. Nil is a no-op.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
