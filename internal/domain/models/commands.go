package models

import "strings"

// CommandType enumerates supported caretaker command categories.
type CommandType string

const (
	CommandStatus   CommandType = "status"
	CommandSessions CommandType = "sessions"
	CommandNew      CommandType = "new"
	CommandDelete   CommandType = "delete"
	CommandHelp     CommandType = "help"
	CommandUnknown  CommandType = "unknown"
)

// Command represents a parsed caretaker instruction extracted from WhatsApp text.
type Command struct {
	Type CommandType
	Raw  string
	Args []string
}

// ParseCommand derives a Command instance from free-form text messages.
// Arguments keep their original casing so session names survive.
func ParseCommand(message string) Command {
	trimmed := strings.TrimSpace(message)
	cmd := Command{Raw: message}

	tokens := strings.Fields(trimmed)
	if len(tokens) == 0 {
		cmd.Type = CommandUnknown
		return cmd
	}

	head := strings.ToLower(strings.TrimPrefix(tokens[0], "/"))
	switch head {
	case string(CommandStatus), "today":
		cmd.Type = CommandStatus
	case string(CommandSessions), "list":
		cmd.Type = CommandSessions
	case string(CommandNew):
		cmd.Type = CommandNew
	case string(CommandDelete):
		cmd.Type = CommandDelete
	case string(CommandHelp):
		cmd.Type = CommandHelp
	default:
		cmd.Type = CommandUnknown
	}

	if len(tokens) > 1 {
		cmd.Args = tokens[1:]
	}

	return cmd
}
