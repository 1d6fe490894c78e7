package flagparse

import "fmt"

// Command is what the invocation asks the program to do.
type Command int

const (
	None Command = iota
	Copy
	Version
)

var commandToString = map[Command]string{
	None:    "none",
	Copy:    "copy",
	Version: "version",
}

func (c Command) String() string {
	if str, ok := commandToString[c]; ok {
		return str
	}
	return fmt.Sprintf("unknown_command(%d)", c)
}
