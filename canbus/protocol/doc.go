// Package protocol defines the contract every CAN wire protocol implements.
//
// A protocol decodes fixed-length frames into a caller-owned sensor state and
// encodes outgoing command frames into caller-owned buffers. The package
// supplies the pieces every protocol shares:
//
//   - the bus checksum, (sum of bytes mod 256) XOR 0xFF, carried in the last byte
//   - BoundedValue, which clamps decoded quantities into a declared range
//   - Base, the embeddable default implementation whose lifecycle methods do nothing
//
// Nothing here locks. A state or buffer passed to a protocol must not be used
// by another goroutine for the duration of the call.
package protocol
