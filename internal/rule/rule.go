// Package rule builds the validated, immutable watch rule from raw
// configuration values.
package rule

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"fileguard/internal/event"
)

var (
	// ErrInodeAccess reports a target path that is missing or unreadable.
	ErrInodeAccess = errors.New("rule: inode not accessible")
	// ErrUnsupportedEvent reports an event name outside the vocabulary.
	ErrUnsupportedEvent = errors.New("rule: unsupported event")
	// ErrMalformedAction reports an action clause that does not parse.
	ErrMalformedAction = errors.New("rule: malformed action")
)

// ActionKind selects the side effect performed on a match.
type ActionKind int

const (
	ActionExecute ActionKind = iota
	ActionLog
)

func (kind ActionKind) String() string {
	switch kind {
	case ActionExecute:
		return "execute"
	case ActionLog:
		return "log"
	default:
		return "unknown"
	}
}

// Rule is the parsed configuration: which inode and event trigger which
// action. Immutable after construction; read-only for the process lifetime.
type Rule struct {
	InodePath    string
	EventName    string
	ActionKind   ActionKind
	ActionTarget string
}

// New validates the three raw configuration values and builds a Rule.
// Validation order: inode access, event vocabulary, action clause. Each
// failure is fatal to the caller; there is no fallback rule.
func New(inodePath, eventName, actionClause string) (Rule, error) {
	if err := checkInode(inodePath); err != nil {
		return Rule{}, err
	}

	if !event.Supported(eventName) {
		return Rule{}, fmt.Errorf("%w: %q", ErrUnsupportedEvent, eventName)
	}

	kind, target, err := parseAction(actionClause)
	if err != nil {
		return Rule{}, err
	}

	return Rule{
		InodePath:    inodePath,
		EventName:    eventName,
		ActionKind:   kind,
		ActionTarget: target,
	}, nil
}

func checkInode(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("%w: empty path", ErrInodeAccess)
	}
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInodeAccess, path, err)
	}
	_ = file.Close()
	return nil
}

// parseAction splits the clause into its verb and target. The target may be
// double-quoted to carry spaces (command lines usually are).
func parseAction(clause string) (ActionKind, string, error) {
	verb, rest, found := strings.Cut(strings.TrimSpace(clause), " ")
	if !found {
		return 0, "", fmt.Errorf("%w: %q: want verb and target", ErrMalformedAction, clause)
	}

	target := strings.TrimSpace(rest)
	if len(target) >= 2 && target[0] == '"' && target[len(target)-1] == '"' {
		target = target[1 : len(target)-1]
	}
	if target == "" {
		return 0, "", fmt.Errorf("%w: %q: empty target", ErrMalformedAction, clause)
	}

	switch verb {
	case "execute":
		return ActionExecute, target, nil
	case "log":
		return ActionLog, target, nil
	default:
		return 0, "", fmt.Errorf("%w: unknown verb %q", ErrMalformedAction, verb)
	}
}
