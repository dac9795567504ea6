// Package kvconf encodes and decodes the flat "key=value;" blobs used to
// persist subsystem configuration in env files.
//
// The format is deliberately primitive so it survives truncated writes and
// hand editing: strict key=value pairs separated by semicolons, whitespace
// trimmed on parse, unknown keys ignored by consumers, later assignments
// overwriting earlier ones. Serialisation orders pairs by key, so a
// parse/serialise round trip is idempotent.
package kvconf
