package commands

import (
	"fmt"
	"strings"

	"github.com/Kuzmenkoav1982/famcal/internal/model"
)

type Type string

const (
	TypeGoto   Type = "goto"
	TypeToday  Type = "today"
	TypeFilter Type = "filter"
	TypeViewer Type = "viewer"
	TypeExport Type = "export"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

// allKeyword clears a category or viewer filter.
const allKeyword = "all"

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

type GotoArgs struct {
	Date model.Date
}

// FilterArgs carries the category to keep; empty means every category.
type FilterArgs struct {
	Category model.Category
}

// ViewerArgs carries the member to view as; empty means the whole household.
type ViewerArgs struct {
	MemberID string
}

// ExportArgs names the output file and an optional window. A zero window
// lets the handler pick its default.
type ExportArgs struct {
	Path string
	From model.Date
	To   model.Date
}

type Command struct {
	Type   Type
	Raw    string
	Goto   *GotoArgs
	Filter *FilterArgs
	Viewer *ViewerArgs
	Export *ExportArgs
}

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

	switch Type(head) {
	case TypeGoto:
		return parseGoto(input, args)
	case TypeToday:
		return Command{Type: TypeToday, Raw: input}, nil
	case TypeFilter:
		return parseFilter(input, args)
	case TypeViewer:
		return parseViewer(input, args)
	case TypeExport:
		return parseExport(input, args)
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

func parseGoto(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "goto requires a date (YYYY-MM-DD)"}
	}
	d, err := model.ParseDate(args[0])
	if err != nil || !d.Valid() {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("invalid date: %s", args[0])}
	}
	return Command{Type: TypeGoto, Raw: raw, Goto: &GotoArgs{Date: d}}, nil
}

func parseFilter(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "filter requires a category or all"}
	}
	value := strings.ToLower(args[0])
	if value == allKeyword {
		return Command{Type: TypeFilter, Raw: raw, Filter: &FilterArgs{}}, nil
	}
	category, err := model.ParseCategory(value)
	if err != nil {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("unknown category: %s", args[0])}
	}
	return Command{Type: TypeFilter, Raw: raw, Filter: &FilterArgs{Category: category}}, nil
}

func parseViewer(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "viewer requires a member id or all"}
	}
	member := args[0]
	if strings.EqualFold(member, allKeyword) {
		member = ""
	}
	return Command{Type: TypeViewer, Raw: raw, Viewer: &ViewerArgs{MemberID: member}}, nil
}

func parseExport(raw string, args []string) (Command, error) {
	if len(args) != 1 && len(args) != 3 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "export requires a path and optionally from and to dates"}
	}
	out := ExportArgs{Path: args[0]}
	if len(args) == 3 {
		from, fromErr := model.ParseDate(args[1])
		to, toErr := model.ParseDate(args[2])
		if fromErr != nil || toErr != nil || !from.Valid() || !to.Valid() {
			return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "export window must be two dates (YYYY-MM-DD)"}
		}
		if to.Before(from) {
			return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "export window ends before it starts"}
		}
		out.From, out.To = from, to
	}
	return Command{Type: TypeExport, Raw: raw, Export: &out}, nil
}
