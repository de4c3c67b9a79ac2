package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
)

var (
	fatalLabel = color.New(color.FgRed, color.Bold).SprintFunc()
	noteLabel  = color.New(color.FgYellow).SprintFunc()
	okLabel    = color.New(color.FgGreen).SprintFunc()
)

func printFatal(w io.Writer, err error) {
	if errors.Is(err, errAborted) {
		fmt.Fprintln(w, "Aborted.")
		return
	}
	fmt.Fprintf(w, "%s %s\n", fatalLabel("FATAL:"), err)
}

func printNote(w io.Writer, msg string) {
	fmt.Fprintf(w, "%s %s\n", noteLabel("NOTE:"), msg)
}

func printDone(w io.Writer, msg string) {
	fmt.Fprintf(w, "%s %s\n", okLabel("Done."), msg)
}

// confirm asks a yes/no question on stderr and reads the answer from the
// input. It returns errAborted unless the answer is yes. With -y it asks
// nothing.
func (a *app) confirm(question string) error {
	if a.flags.yes {
		return nil
	}
	fmt.Fprintf(a.errOut, "%s [y/N] ", question)
	line, err := a.readLine()
	if err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return nil
	default:
		return errAborted
	}
}

// promptPassword reads a password without echo when stdin is a terminal and
// a plain line otherwise.
func (a *app) promptPassword() (string, error) {
	fmt.Fprint(a.errOut, "Password: ")
	if f, ok := a.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		pw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(a.errOut)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(pw), nil
	}
	line, err := a.readLine()
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// readLine reads one line of input. A missing final newline is not an error.
func (a *app) readLine() (string, error) {
	if a.reader == nil {
		a.reader = bufio.NewReader(a.in)
	}
	line, err := a.reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return line, nil
}
