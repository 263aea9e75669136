package console

import (
	"fmt"
	"io"
)

const helpText = `Type an entity query (SELECT, UPDATE or DELETE)
 or type SQL followed by a native SQL query
 or type LIST to print the last command
 or type HISTORY to print the command history
 or type CLEAR to clear command history
 or type DESCRIBE <entity name> to print just the fields of the entity
 or type DESCRIBE ALL <entity name> to print all members and annotations
 or type SHOW ENTITIES to show all entities ordered by entity name
 or type SHOW ENTITIES PACKAGE to show all entities and their packages
 or type SHOW QUERIES to show all named queries ordered by name
 or type SHOW QUERIES FOR 'xxx' to show all named queries containing 'xxx'
 or type MULTILINE ON (or TRUE) to use multiline mode*
 or type MULTILINE OFF (or FALSE) to use single line mode*
         Default mode is multi-line mode.
 or type QUIT or EXIT to exit.
All commands are case insensitive and require only the first four letters

* When MULTILINE is on (by default at startup), the console waits for a
  semicolon character before processing SELECT, SQL or INSERT statements.
  In single-line mode, it processes one line at a time, ignoring
  any ending semicolons, so all queries must be expressed on a single line.

  It is not ever necessary to follow LIST, HISTORY, CLEAR, DESCRIBE [ALL],
  SHOW ENTITIES [PACKAGE], MULTILINE ON | OFF, or QUIT commands with a semicolon
`

func printHelp(w io.Writer) {
	_, _ = fmt.Fprintln(w, helpText)
}
