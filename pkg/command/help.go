package command

import "strings"

// Usage is the markdown help text shown by the help command.
var Usage = strings.ReplaceAll(usage, "'", "`")

const usage = `# Commands

| Command | Alias | Description |
|---|---|---|
| 'load <path>' | 'read', '<' | replay every line of a file as commands |
| 'save <path>' | '>' | save the current program to a file |
| 'run' | 'r' | execute until the machine halts (Ctrl-C interrupts) |
| 'step [n]' | 's' | execute n computation steps, default 1 |
| 'memsize <n>' | 'memorysize' | set the tape length and reset |
| 'initsymbol <c>' | 'initialsymbol' | set the tape fill symbol and reset |
| 'set_tape <pos> <text>' | | write text on the tape from pos |
| 'set_state <name>' | | set the current state |
| 'move_head <pos>' | 'head_position' | move the head |
| 'add <from> <read> <to> <write> <dir>' | '+' | add an instruction, dir is '<' or '>' |
| 'del <n>' | '-' | delete instruction n |
| 'print_program' | 'pp' | list the program |
| 'print_state' | 'ps' | show the machine state around the head |
| 'print_state_full' | 'psf' | show the machine state with the whole tape |
| 'clear' | 'C' | clear the program |
| 'reset' | 'R' | reset the machine |
| 'graph' | | print the transition graph as a Mermaid diagram |
| 'checkpoint [id]' | | save the machine under id (generated when omitted) |
| 'restore <id>' | | restore a checkpoint |
| 'sessions' | | list checkpoints |
| 'echo <text>' | | print text |
| 'help' | '?' | show this message |
| 'quit' | 'q' | quit |

'$' is the initial state, '!' the halt state and '-' the wildcard symbol.
Everything after ';' or '#' is a comment.
`
