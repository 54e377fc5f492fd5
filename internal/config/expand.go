package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ExpandTilde replaces ~ or ~/path with the user's home directory.
// Does not support ~username syntax - just ~ for the current user.
func ExpandTilde(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path // Return unchanged if we can't get home
		}
		return filepath.Join(home, path[2:])
	}

	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return home
	}

	return path
}

// Expand resolves a leading ~ and replaces variables in a path.
// Supported variables:
//   - ${HOME} - user's home directory
//   - ${USER} - current username
//   - ${PID}  - this process id, to keep dumps from concurrent runs apart
func Expand(s string) string {
	if s == "" {
		return s
	}

	result := ExpandTilde(s)

	if strings.Contains(result, "${HOME}") {
		result = strings.ReplaceAll(result, "${HOME}", getHome())
	}
	if strings.Contains(result, "${USER}") {
		result = strings.ReplaceAll(result, "${USER}", getUser())
	}
	if strings.Contains(result, "${PID}") {
		result = strings.ReplaceAll(result, "${PID}", strconv.Itoa(os.Getpid()))
	}

	return result
}

// getUser returns the current username for ${USER} expansion.
func getUser() string {
	// sudo keeps the invoking user here
	if user := os.Getenv("SUDO_USER"); user != "" {
		return user
	}
	if user := os.Getenv("USER"); user != "" {
		return user
	}
	if user := os.Getenv("LOGNAME"); user != "" {
		return user
	}
	return "user"
}

// getHome returns the home directory for ${HOME} expansion.
func getHome() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	return "~"
}
