// Package resp implements the RESP2 wire format used by respkv.
//
// The codec is pure: ParseFrame decodes one frame from the front of a byte
// slice and reports how many bytes it consumed, and Encode/AppendValue turn
// a Value back into wire bytes. No I/O and no state; callers own buffering.
//
// ParseFrame distinguishes three outcomes:
//
//   - a decoded Value plus the consumed byte count;
//   - ErrIncomplete when more input is needed to decide;
//   - ErrMalformed (possibly wrapped, see ErrLimitExceeded) for input that
//     can never become a valid frame.
//
// Arrays are parsed recursively and all-or-nothing: if any element is
// incomplete the whole frame is incomplete and must be parsed again from
// its first byte once more data has arrived.
package resp
