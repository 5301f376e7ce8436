/*
Package command interprets the line oriented command language of the simulator.

Each line holds one command and its arguments, for example:

	memsize 20
	set_tape 8 1011
	+ $ - $ - >
	run
	print_state

The Interpreter turns one line into one typed call on a turing.Engine and
writes any textual result to its output. It backs the interactive REPL, the
HTTP "exec" endpoint and the MCP "exec" tool alike.
*/
package command
