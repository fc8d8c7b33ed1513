// Package harness runs conformance cases against the arena library and turns
// their outcome into verdicts.
//
// A case body runs on its own goroutine, locked to an OS thread, with the
// stack bounds captured at entry passed to it through T. A checked
// assertion raised inside the body is recovered and reported with its error
// type, file and predicate, so an Expectation can match the cause rather
// than the text of a crash.
package harness
