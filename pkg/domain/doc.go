/*
Package domain contains the core domain models of the Turing machine engine.

It defines the vocabulary shared by the engine, the command interpreter, the
persistence adapters and the presentation layer. This package is kept pure and
free of I/O.

# Key Entities

  - Symbol: a single tape cell value. The Wildcard symbol matches any unmatched
    read symbol and, when written, leaves the cell unchanged.
  - StateCode: the interned identity of a state. HaltState and InitState are
    reserved and exist in every machine.
  - Instruction: a transition rule (from, read) -> (to, write, direction).
  - Snapshot: a persistable image of a machine (program, tape, head, state).
*/
package domain
