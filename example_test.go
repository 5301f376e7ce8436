package turing_test

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/aretw0/turing"
	"github.com/aretw0/turing/pkg/domain"
)

// ExampleNew shows a machine built instruction by instruction and run to halt.
func ExampleNew() {
	eng, err := turing.New(turing.WithMemorySize(5))
	if err != nil {
		log.Fatal(err)
	}

	// From the initial state, reading 0: write 1, move right, go to A.
	_ = eng.AddInstruction("$", '0', "A", '1', domain.Right)
	// From A, reading anything: write 1, move right, halt.
	_ = eng.AddInstruction("A", domain.Wildcard, "!", '1', domain.Right)

	outcome, err := eng.Run(context.Background())
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(outcome)
	fmt.Println(eng.Tape())
	fmt.Print(eng.StatusSummary(-1))
	// Output:
	// halted
	// 00110
	// Current state: !
	// Head position: 4
	// Computation steps: 2
	// Tape state: 0011<0>
	// Machine halted
}

// ExampleEngine_ReadProgram loads a binary increment program from text.
func ExampleEngine_ReadProgram() {
	eng, err := turing.New()
	if err != nil {
		log.Fatal(err)
	}

	err = eng.ReadProgram(strings.NewReader(`; binary increment
memsize 12
initsymbol _
+ $ - $ - >      ; skip to the end of the number
+ $ _ carry _ <
+ carry 1 carry 0 <
+ carry 0 ! 1 <
+ carry _ ! 1 <
`))
	if err != nil {
		log.Fatal(err)
	}

	_ = eng.SetTape(3, "111")
	_ = eng.SetHeadPosition(3)
	if _, err := eng.Run(context.Background()); err != nil {
		log.Fatal(err)
	}

	fmt.Println(eng.Tape())
	fmt.Print(eng.ProgramListing())
	// Output:
	// __1000______
	//    1:    START ($, -) -> ($, -, >)
	//    2:    START ($, _) -> (carry, _, <)
	//    3:          (carry, 1) -> (carry, 0, <)
	//    4:    HALT  (carry, 0) -> (!, 1, <)
	//    5:    HALT  (carry, _) -> (!, 1, <)
}
