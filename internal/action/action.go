// Package action performs the configured side effect when an event matches
// the rule.
package action

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"fileguard/internal/logging"
	"fileguard/internal/rule"
)

// ErrLogWrite reports a failed log append. The log action is fail-fast:
// callers treat this as fatal, unlike the fire-and-forget execute action.
var ErrLogWrite = errors.New("action: log write failed")

// TimestampLayout renders the event time for log lines. The trailing space
// is the only separator between timestamp and event name.
const TimestampLayout = "Mon Jan _2 15:04:05 2006 "

// Action runs the configured side effect for one matched event.
type Action interface {
	Run(eventName string, at time.Time) error
}

// New selects the executor variant for the rule.
func New(matched rule.Rule, logger *logging.Logger) Action {
	switch matched.ActionKind {
	case rule.ActionLog:
		return &logAction{target: matched.ActionTarget, logger: logger}
	default:
		return &executeAction{
			eventName: matched.EventName,
			command:   matched.ActionTarget,
			logger:    logger,
		}
	}
}

// executeAction runs the configured command through the shell. The child's
// exit status is deliberately not inspected.
type executeAction struct {
	eventName string
	command   string
	logger    *logging.Logger
}

func (a *executeAction) Run(eventName string, at time.Time) error {
	// The dispatcher already matched; this guard keeps the action safe to
	// call directly.
	if eventName != a.eventName {
		return nil
	}

	a.logger.Debug("running command", map[string]string{
		"command": a.command,
	})
	command := exec.Command(shell(), "-c", a.command)
	command.Stdout = os.Stdout
	command.Stderr = os.Stderr
	if err := command.Run(); err != nil {
		a.logger.Debug("command finished with error", map[string]string{
			"command": a.command,
			"error":   err.Error(),
		})
	}
	return nil
}

func shell() string {
	if value := os.Getenv("SHELL"); value != "" {
		return value
	}
	return "/bin/sh"
}

// logAction appends one timestamped line per matched event to the target
// file, creating it on first use.
type logAction struct {
	target string
	logger *logging.Logger
}

func (a *logAction) Run(eventName string, at time.Time) error {
	line := at.Format(TimestampLayout) + eventName + "\n"

	file, err := os.OpenFile(a.target, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrLogWrite, a.target, err)
	}
	defer file.Close()

	if _, err := file.WriteString(line); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrLogWrite, a.target, err)
	}
	return nil
}
