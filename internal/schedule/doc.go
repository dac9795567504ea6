// Package schedule provides the cooperative timer registry that drives
// deferred and periodic command execution.
//
// The scheduling model is single-threaded: the owning loop calls
// Registry.Tick on every iteration and due timers fire inline, in
// registry insertion order. There is no goroutine per timer and no
// preemption; a timer callback runs to completion before the next timer
// is considered, and may itself add or remove timers (such changes take
// effect from the next tick).
//
// Three timer shapes are supported:
//
//   - periodic: fires every period milliseconds
//   - one-shot: fires once, then transitions to hold
//   - cron: fires at most once per wall-clock minute when a five-field
//     cron expression matches the broken-down local time
//
// A timer carries either a Go callback, a console command line to be
// handed to the registry's command runner, or both.
//
// The optional sqlite Store persists command timers across restarts and
// records an execution row per fire, mirroring the persistence idiom used
// elsewhere in the Gray Logic family.
package schedule
