// Package transfer implements the in-band file transfer sub-protocol spoken
// over a console stream.
//
// # Upload (client to device)
//
// The client sends one header line "FILE:<path> SIZE:<n>\n" followed by
// exactly n payload bytes. The receiver rejects transfers larger than 90% of
// the remaining flash quota, reads in 512-byte chunks, aborts after 5
// seconds without inbound bytes and keeps whatever was written when the
// byte count comes up short.
//
// # Download (device to client)
//
// The device answers "GET <path>" with "SIZE: <n>\n" followed by the file
// contents, or "ERROR: File not found\n" when the path does not exist.
//
// There is no checksum; the underlying TCP stream is trusted.
package transfer
