package console

import "strings"

// Kind identifies a classified statement.
type Kind int

// Command kinds.
const (
	Mutation Kind = iota
	Help
	Quit
	ListLast
	ShowHistory
	ClearHistory
	SetMultiline
	DescribeEntity
	ShowEntities
	ShowNamedQueries
	Select
	NativeSelect
	RejectedInsert
	Malformed
)

var kindNames = map[Kind]string{
	Mutation:         "mutation",
	Help:             "help",
	Quit:             "quit",
	ListLast:         "list",
	ShowHistory:      "history",
	ClearHistory:     "clear",
	SetMultiline:     "multiline",
	DescribeEntity:   "describe",
	ShowEntities:     "show entities",
	ShowNamedQueries: "show queries",
	Select:           "select",
	NativeSelect:     "native select",
	RejectedInsert:   "insert",
	Malformed:        "malformed",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Command is a classified statement.
type Command struct {
	Kind Kind

	// Text is the statement as entered, without a trailing ';'. It is what
	// the history records.
	Text string

	// Query is the text forwarded to the data session by Select,
	// NativeSelect and Mutation.
	Query string

	Name           string // DescribeEntity
	IncludeAll     bool   // DescribeEntity
	IncludePackage bool   // ShowEntities
	Filter         string // ShowNamedQueries
	Enabled        bool   // SetMultiline
	Reason         string // Malformed
}

// Malformed command reasons.
const (
	reasonNoArguments        = "No arguments specified"
	reasonWrongArgument      = "Wrong argument specified"
	reasonWrongArguments     = "Wrong arguments specified"
	reasonIncorrectArgument  = "Incorrect argument specified"
	reasonWrongArgumentCount = "Wrong number of arguments specified"
)

// Classify determines which command a statement represents. Matching is
// case-insensitive; keyword commands need only their first four letters,
// except help, list, quit and exit which must be complete words. Anything
// unrecognized is a Mutation.
func Classify(stmt string) Command {
	text := strings.TrimSpace(stmt)
	if strings.HasSuffix(text, ";") {
		text = strings.TrimSpace(strings.TrimSuffix(text, ";"))
	}
	lower := strings.ToLower(text)
	args := strings.Fields(text)

	switch {
	case lower == "help":
		return Command{Kind: Help, Text: text}
	case isInsert(lower):
		return Command{Kind: RejectedInsert, Text: text}
	case lower == "list":
		return Command{Kind: ListLast, Text: text}
	case strings.HasPrefix(lower, "hist"):
		return Command{Kind: ShowHistory, Text: text}
	case strings.HasPrefix(lower, "clea"):
		return Command{Kind: ClearHistory, Text: text}
	case strings.HasPrefix(lower, "mult"):
		return classifyMultiline(text, args)
	case lower == "quit" || lower == "exit":
		return Command{Kind: Quit, Text: text}
	case strings.HasPrefix(lower, "sele"):
		return Command{Kind: Select, Text: text, Query: text}
	case strings.HasPrefix(lower, "sql"):
		return Command{Kind: NativeSelect, Text: text, Query: strings.TrimSpace(text[len("sql"):])}
	case strings.HasPrefix(lower, "desc"):
		return classifyDescribe(text, args)
	case strings.HasPrefix(lower, "show quer"):
		return classifyShowQueries(text, args)
	case strings.HasPrefix(lower, "show ent"):
		return classifyShowEntities(text, args)
	}
	return Command{Kind: Mutation, Text: text, Query: text}
}

func isInsert(lower string) bool {
	if strings.HasPrefix(lower, "insert") {
		return true
	}
	rest, ok := strings.CutPrefix(lower, "sql")
	return ok && strings.HasPrefix(strings.TrimSpace(rest), "insert")
}

func malformed(text, reason string) Command {
	return Command{Kind: Malformed, Text: text, Reason: reason}
}

func classifyMultiline(text string, args []string) Command {
	switch len(args) {
	case 1:
		return malformed(text, reasonNoArguments)
	case 2:
		switch strings.ToLower(args[1]) {
		case "on", "true":
			return Command{Kind: SetMultiline, Text: text, Enabled: true}
		case "off", "false":
			return Command{Kind: SetMultiline, Text: text, Enabled: false}
		}
		return malformed(text, reasonWrongArgument)
	}
	return malformed(text, reasonWrongArguments)
}

func classifyDescribe(text string, args []string) Command {
	switch len(args) {
	case 1:
		return malformed(text, reasonNoArguments)
	case 2:
		return Command{Kind: DescribeEntity, Text: text, Name: args[1]}
	case 3:
		if strings.EqualFold(args[1], "all") {
			return Command{Kind: DescribeEntity, Text: text, Name: args[2], IncludeAll: true}
		}
		return malformed(text, reasonIncorrectArgument)
	}
	return malformed(text, reasonWrongArgumentCount)
}

func classifyShowQueries(text string, args []string) Command {
	switch len(args) {
	case 2:
		return Command{Kind: ShowNamedQueries, Text: text}
	case 4:
		if strings.EqualFold(args[2], "for") {
			return Command{Kind: ShowNamedQueries, Text: text, Filter: strings.Trim(args[3], `'"`)}
		}
		return malformed(text, reasonWrongArguments)
	}
	return malformed(text, reasonWrongArgumentCount)
}

func classifyShowEntities(text string, args []string) Command {
	switch len(args) {
	case 2:
		return Command{Kind: ShowEntities, Text: text}
	case 3:
		if strings.HasPrefix(strings.ToLower(args[2]), "pack") {
			return Command{Kind: ShowEntities, Text: text, IncludePackage: true}
		}
		return malformed(text, reasonWrongArguments)
	}
	return malformed(text, reasonWrongArgumentCount)
}
