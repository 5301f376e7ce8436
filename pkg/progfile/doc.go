/*
Package progfile implements the textual program language of the machine.

A program file is a flat, line oriented listing:

	; machine program output
	memsize 1000
	initsymbol 0
	; transition function
	+ $ 0 A 1 >
	+ A - ! 1 >
	; end of file

Everything after ';' or '#' is a comment. The Tokenizer splits one line into
tokens and is shared with the interactive command interpreter. Parse reads a
whole file, reporting every malformed line with its 1-based number without
stopping at the first one. Write produces the same format.
*/
package progfile
