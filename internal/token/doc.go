// Package token provides the quote-aware field splitter used by every
// console command handler.
//
// A Tokenizer is built from a source line and a delimiter set and exposes
// up to eight typed fields. Splitting is non-destructive to the caller's
// string and collapses runs of delimiters, so handlers can lex the same
// line with different delimiter sets without copying.
//
// Double quotes toggle quoting: delimiters inside a quoted region are
// preserved and the quotes themselves are excluded from the field, so
//
//	set name "hello world" 42
//
// yields the four fields "set", "name", "hello world" and "42".
//
// Typed extraction never fails: integer and float accessors fall back to a
// caller-provided default on malformed input, and every accessor is total
// on an empty tokenizer. That keeps argument parsing in command handlers
// to a single expression with no error plumbing.
//
// SplitTokenizer is the multi-delimiter variant: it splits on a list of
// delimiter substrings and records, per field, which delimiter terminated
// it, for parsers that care whether "a=b" or "a;b" separated two fields.
package token
