// Package console implements the node's interactive administrative console.
//
// A Console binds a byte Stream (serial port, stdio, or an accepted TCP
// client) to a command dispatcher, a logging pipeline and an ordered list of
// Features. Each feature contributes one command group at Begin and gets a
// slice of every loop iteration, so the whole console runs cooperatively on
// the agent's single loop.
//
// # Features
//
// The stock registration order is core, filesystem, logging, timer, mqtt,
// ha, i2c. A command line is offered to the dispatcher in that order and the
// first group to claim it wins; unclaimed lines produce the unknown-command
// notice on the issuing console.
//
// # Variants
//
// The serial console is created once at boot, owns its stream, and is the
// only console whose pipeline feeds the remote log sink. TCP consoles are
// created per accepted client by the Server; their pipelines suppress
// remote emission because the log server is itself a TCP consumer.
//
// # File transfer
//
// "FILE:<path> SIZE:<n>" headers and "GET <path>" lines are intercepted
// ahead of dispatch and enter the transfer sub-protocol on the console's
// own stream.
package console
