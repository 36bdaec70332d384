package commands

import (
	"fmt"
	"regexp"
	"strings"
)

type Type string

const (
	TypeAdd    Type = "add"
	TypeDelete Type = "delete"
	TypeUndo   Type = "undo"
	TypeNotify Type = "notify"
	TypeShow   Type = "show"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

type AddArgs struct {
	When string
	Task string
}

type DeleteArgs struct {
	Target string
}

type NotifyArgs struct {
	On bool
}

type ShowArgs struct {
	Subject string
}

const (
	ShowUpcoming = "upcoming"
	ShowAll      = "all"
)

type Command struct {
	Type   Type
	Raw    string
	Add    *AddArgs
	Delete *DeleteArgs
	Notify *NotifyArgs
	Show   *ShowArgs
}

var (
	clockToken = regexp.MustCompile(`^\d{1,2}:\d{2}(:\d{2})?$`)
	aliases    = map[string]Type{"rm": TypeDelete, "del": TypeDelete, "ls": TypeShow}
)

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}
	if strings.HasPrefix(raw, "/") {
		raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	}
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]
	kind := Type(head)
	if alias, ok := aliases[head]; ok {
		kind = alias
	}

	switch kind {
	case TypeAdd:
		return parseAdd(input, args)
	case TypeDelete:
		return parseDelete(input, args)
	case TypeUndo:
		return Command{Type: TypeUndo, Raw: input}, nil
	case TypeNotify:
		return parseNotify(input, args)
	case TypeShow:
		return parseShow(input, args)
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

// parseAdd reads "<datetime> <task...>". A date followed by a separate clock
// token ("2026-02-10 09:30 task") is joined into one date/time.
func parseAdd(raw string, args []string) (Command, error) {
	if len(args) < 2 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "add requires a date/time and a task"}
	}
	when := args[0]
	rest := args[1:]
	if clockToken.MatchString(rest[0]) {
		when = when + " " + rest[0]
		rest = rest[1:]
	}
	task := strings.TrimSpace(strings.Join(rest, " "))
	if task == "" {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "add requires a task"}
	}
	return Command{Type: TypeAdd, Raw: raw, Add: &AddArgs{When: when, Task: task}}, nil
}

func parseDelete(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "delete requires one reminder id"}
	}
	return Command{Type: TypeDelete, Raw: raw, Delete: &DeleteArgs{Target: args[0]}}, nil
}

func parseNotify(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "notify requires on or off"}
	}
	switch strings.ToLower(args[0]) {
	case "on", "enable", "true":
		return Command{Type: TypeNotify, Raw: raw, Notify: &NotifyArgs{On: true}}, nil
	case "off", "disable", "false":
		return Command{Type: TypeNotify, Raw: raw, Notify: &NotifyArgs{On: false}}, nil
	default:
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("notify expects on or off, got %s", args[0])}
	}
}

func parseShow(raw string, args []string) (Command, error) {
	subject := ShowUpcoming
	if len(args) > 0 {
		subject = strings.ToLower(args[0])
	}
	if subject != ShowUpcoming && subject != ShowAll {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("show expects upcoming or all, got %s", subject)}
	}
	return Command{Type: TypeShow, Raw: raw, Show: &ShowArgs{Subject: subject}}, nil
}
