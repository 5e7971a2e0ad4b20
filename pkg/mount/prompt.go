package mount

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"
)

// CredentialPrompter supplies a username and password for a mount retry.
// The terminal implementation is the default; tests inject fakes.
type CredentialPrompter interface {
	Credentials() (username, password string, err error)
}

// terminalPrompter reads credentials from the controlling terminal: the
// username is echoed, the password is not.
type terminalPrompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewTerminalPrompter returns a prompter bound to stdin/stdout.
func NewTerminalPrompter() CredentialPrompter {
	return &terminalPrompter{
		in:  bufio.NewReader(os.Stdin),
		out: os.Stdout,
	}
}

func (p *terminalPrompter) Credentials() (string, string, error) {
	fmt.Fprint(p.out, "Username: ")
	username, err := p.in.ReadString('\n')
	if err != nil {
		return "", "", fmt.Errorf("failed to read username: %w", err)
	}
	username = strings.TrimSpace(username)

	fmt.Fprint(p.out, "Password: ")
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(p.out)
	if err != nil {
		return "", "", fmt.Errorf("failed to read password: %w", err)
	}

	return username, string(password), nil
}
