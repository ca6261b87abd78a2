package mms

import "fmt"

type ErrorDecodeShortData struct {
	Length, Expected int
}

func (e ErrorDecodeShortData) Error() string {
	return fmt.Sprintf("expected offset after decoding out of range [%d] with data length %d", e.Expected, e.Length)
}

type ErrorDecodeUnknownExpiryToken uint64

func (e ErrorDecodeUnknownExpiryToken) Error() string {
	return fmt.Sprintf("unknown expiry token: %x", uint64(e))
}

type ErrorDecodeInconsistentOffset struct {
	Offset, Expected int
}

func (e ErrorDecodeInconsistentOffset) Error() string {
	return fmt.Sprintf("decoder offset after read [%d] is other than expected [%d]", e.Offset, e.Expected)
}
