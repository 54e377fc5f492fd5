package exec

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rileyhilliard/mactop/internal/errors"
)

// commandNotFoundPatterns detect a shell reporting a missing command. These
// require exit code 127.
var commandNotFoundPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)bash: (\S+): command not found`),
	regexp.MustCompile(`(?i)zsh: command not found: (\S+)`),
	regexp.MustCompile(`(?i)sh: \d+: (\S+): not found`),
	regexp.MustCompile(`(?i)(\S+): command not found`),
	regexp.MustCompile(`(?i)(\S+): not found`),
}

// wrapperNotFoundPatterns detect a wrapper such as sudo or env failing to
// find the command it was asked to run. Exit codes vary by wrapper.
var wrapperNotFoundPatterns = []*regexp.Regexp{
	// sudo: powermetrics: command not found
	regexp.MustCompile(`(?i)sudo: (\S+): command not found`),
	// env: ioreg: No such file or directory
	regexp.MustCompile(`(?i)env: (\S+): No such file or directory`),
}

// privilegePatterns match tools refusing to run without root.
var privilegePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)sudo: a (?:password|terminal) is required`),
	regexp.MustCompile(`(?i)must be (?:invoked|run) as (?:the )?superuser`),
	regexp.MustCompile(`(?i)operation not permitted`),
}

// IsCommandNotFound checks if the error output indicates a missing command.
// Returns the command name (if extractable) and whether it's a command-not-found error.
func IsCommandNotFound(stderr string, exitCode int) (string, bool) {
	for _, pattern := range wrapperNotFoundPatterns {
		if matches := pattern.FindStringSubmatch(stderr); len(matches) > 1 {
			return matches[1], true
		}
	}

	if exitCode != 127 {
		return "", false
	}
	for _, pattern := range commandNotFoundPatterns {
		if matches := pattern.FindStringSubmatch(stderr); len(matches) > 1 {
			return matches[1], true
		}
	}
	return "", true
}

// NeedsPrivilege reports whether stderr says the tool has to run as root.
func NeedsPrivilege(stderr string) bool {
	for _, pattern := range privilegePatterns {
		if pattern.MatchString(stderr) {
			return true
		}
	}
	return false
}

// HandleExecError turns a failed run of name into an error with an actionable
// suggestion. It returns nil when the failure isn't one it recognizes.
func HandleExecError(name, stderr string, exitCode int, cause error) error {
	if cmdName, notFound := IsCommandNotFound(stderr, exitCode); notFound {
		if cmdName == "" {
			cmdName = name
		}
		return errors.WrapWithCode(cause, errors.ErrExec,
			fmt.Sprintf("'%s' not found in PATH", cmdName),
			fmt.Sprintf("mactop reads %s, which ships with macOS. Check that you're on a Mac and that /usr/bin and /usr/sbin are in PATH.", cmdName))
	}

	if NeedsPrivilege(stderr) {
		return errors.WrapWithCode(cause, errors.ErrExec,
			fmt.Sprintf("%s must run as root", name),
			"Run mactop with sudo, or keep 'sudo' at the front of powermetrics.command. Output was: "+firstLine(stderr))
	}

	return nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
