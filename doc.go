/*
Package turing is a single-tape deterministic Turing machine simulator.

A machine holds a finite transition program, a bounded tape of symbols and a
head. Each step reads the symbol under the head, looks up the rule for the
current state and that symbol, writes, moves the head one cell and changes
state. The machine halts on the halt state "!", when no rule matches, or when
the head would leave the tape.

# Concept

States are named. Two names are reserved: "$" is the initial state and "!" the
halt state. The symbol "-" is a wildcard: as a read symbol it matches any
symbol without an exact rule, as a write symbol it leaves the cell unchanged.
Adding a rule for a (state, symbol) pair that already has one replaces it in
the lookup table while both stay in the program listing.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"
		"strings"

		"github.com/aretw0/turing"
	)

	func main() {
		eng, err := turing.New(turing.WithMemorySize(16))
		if err != nil {
			log.Fatal(err)
		}

		// Load a program in the flat program file format
		err = eng.ReadProgram(strings.NewReader(`
			+ $ 0 A 1 >
			+ A - ! 1 >
		`))
		if err != nil {
			log.Fatal(err)
		}

		// Run until the machine halts or the context is cancelled
		if _, err := eng.Run(context.Background()); err != nil {
			log.Fatal(err)
		}
		fmt.Print(eng.StatusSummary(-1))
	}

Sub-packages provide the command interpreter (pkg/command), the program file
format (pkg/progfile), snapshot stores and session locking (pkg/adapters,
pkg/session) and the HTTP and MCP front ends.
*/
package turing
