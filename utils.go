package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

func ParseTimeSig(input string) (TimeSignature, error) {
	parts := strings.Split(strings.TrimSpace(input), "/")
	if len(parts) != 2 {
		return TimeSignature{}, errors.Errorf("invalid time signature format %q", input)
	}

	beats, err1 := strconv.Atoi(parts[0])
	noteValue, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return TimeSignature{}, errors.Errorf("invalid number in time signature %q", input)
	}

	for _, ts := range TIME_SIGNATURES {
		if ts.Beats == beats && ts.NoteValue == noteValue {
			return ts, nil
		}
	}

	return TimeSignature{}, errors.Errorf("time signature %s not supported", input)
}

func (ts TimeSignature) String() string {
	return fmt.Sprintf("%d/%d", ts.Beats, ts.NoteValue)
}

// HomePath joins name onto the user's home directory.
func HomePath(name string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "could not find home directory")
	}
	return filepath.Join(home, name), nil
}

// ExpandHome resolves a leading ~ in a path from the settings file.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	return HomePath(strings.TrimPrefix(strings.TrimPrefix(path, "~"), "/"))
}

func runCmd(name string, arg ...string) error {
	cmd := exec.Command(name, arg...)
	cmd.Stdout = os.Stdout
	return cmd.Run()
}

func ClearTerminal() error {
	switch runtime.GOOS {
	case "windows":
		return runCmd("cmd", "/c", "cls")
	default:
		return runCmd("clear")
	}
}
