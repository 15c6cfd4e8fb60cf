package util

import (
	"os/exec"
	"strings"
)

// GitHead returns the HEAD commit of the repository containing path. ok is
// false when path is not inside a git work tree or git is unavailable.
func GitHead(path string) (sha string, ok bool) {
	cmd := exec.Command("git", "rev-parse", "HEAD")
	cmd.Dir = path
	output, err := cmd.Output()
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(output)), true
}
