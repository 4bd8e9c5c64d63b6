/*

Labels in the assembler

Source text ->
	scan (pass 1) ->
Label declarations, .globl names ->
	symtab.Session (unit tables + global table) ->
	segment layout fixups ->
Frozen symtab.Snapshot ->
	encode (pass 2): name -> address ->
	simulate, disassemble: address -> name

The events package replays declarations recorded as text,
which is how the symbol tables are exercised without the rest of the assembler.

*/
package assembler
