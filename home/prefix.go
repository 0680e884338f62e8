package home

import (
	"strings"
)

// positional argument names per command
var prefixArgs = map[string][]string{
	CommandHelp:     nil,
	CommandListLogs: {ArgChannel},
	CommandPrintLog: {ArgChannel, ArgDate},
	CommandClearLog: {ArgChannel},
}

// ParsePrefix splits a "<prefix>name arg arg" message. Repeated spaces are
// collapsed and the name is case-insensitive. ok is false when content is
// not a log command.
func ParsePrefix(prefix, content string) (name string, args map[string]string, ok bool) {
	if prefix == "" || !strings.HasPrefix(content, prefix) {
		return "", nil, false
	}
	fields := strings.Fields(strings.TrimPrefix(content, prefix))
	if len(fields) == 0 {
		return "", nil, false
	}

	name = strings.ToLower(fields[0])
	names, known := prefixArgs[name]
	if !known {
		return "", nil, false
	}

	args = make(map[string]string, len(names))
	for i, arg := range names {
		if i+1 < len(fields) {
			args[arg] = fields[i+1]
		}
	}
	return name, args, true
}
