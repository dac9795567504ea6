// Package command routes console command lines to registered handler
// groups.
//
// A group bundles a handler with a description and the comma-separated
// verb list shown by help. Matching is delegated entirely to handlers: a
// handler inspects the line (typically tokenising it and comparing the
// first field) and returns true to claim it. Dispatch consults groups in
// registration order and stops at the first claim, so a verb shared by
// two groups resolves deterministically to the one registered first.
//
// Handlers that recognise a verb but fail to run it still claim the line
// and surface the failure through output or logging; only "this is not my
// verb" returns false.
package command
