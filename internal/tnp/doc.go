// Package tnp implements the Wahoo Trainer Network Protocol frame codec.
//
// TNP is a BLE-over-TCP encapsulation: GATT discovery, reads, writes,
// subscription control and notifications are carried as small binary frames
// over a TCP connection advertised via mDNS.
//
// # Frame layout
//
// Every frame starts with a fixed 6-byte header:
//
//	offset 0  protocol version (always 0x01)
//	offset 1  message identifier (0x01-0x06)
//	offset 2  sequence (echoed in responses, fixed 0 for notifications)
//	offset 3  response code (0x00 on requests)
//	offset 4  body length, 2 bytes big-endian
//	offset 6  message-specific body
//
// # Message types
//
//	0x01  discover services          body: none / list of UUIDs
//	0x02  discover characteristics   body: service UUID / UUID + 17-byte entries
//	0x03  read                       body: UUID / UUID + value
//	0x04  write                      body: UUID + value / UUID echo
//	0x05  enable notifications       body: UUID + flag / UUID echo
//	0x06  unsolicited notification   body: UUID + value
//
// # UUID byte order
//
// UUIDs travel byte-reversed across all 16 bytes relative to their canonical
// textual form. The reversal is an involution and is confined entirely to
// this package: AppendUUID reverses on encode, UUIDAt reverses on decode.
// Code above the codec only ever sees canonical gatt.UUID values.
//
// # Incremental decoding
//
// Decode consumes at most one frame from the front of a buffer and reports
// ErrIncomplete when more bytes are needed, so sessions can drain a receive
// buffer frame by frame:
//
//	for {
//	    frame, n, err := tnp.Decode(buf)
//	    if err != nil {
//	        break // ErrIncomplete: keep buffer, wait for more data
//	    }
//	    buf = buf[n:]
//	    handle(frame)
//	}
//
// Header validation is deliberately left to the dispatcher: a frame with a
// bad version or unknown identifier still parses, so the error reply can echo
// the offending sequence.
package tnp
