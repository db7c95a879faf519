package authcmder

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// prompter reads answers line by line. On a terminal, secrets are read with
// echo disabled.
type prompter struct {
	in     *bufio.Reader
	out    io.Writer
	tty    *os.File
	closed bool
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	p := &prompter{in: bufio.NewReader(in), out: out}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.tty = f
	}
	return p
}

// ask prints label when interactive and returns the trimmed answer.
func (p *prompter) ask(label string) (string, error) {
	if p.tty != nil {
		fmt.Fprintf(p.out, "%s: ", label)
	}
	return p.readLine()
}

// secret is ask without echo.
func (p *prompter) secret(label string) (string, error) {
	if p.tty == nil {
		return p.readLine()
	}

	fmt.Fprintf(p.out, "%s: ", label)
	b, err := term.ReadPassword(int(p.tty.Fd()))
	fmt.Fprintln(p.out) // newline after hidden input
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(string(b)), nil
}

func (p *prompter) readLine() (string, error) {
	if p.closed {
		return "", nil
	}
	line, err := p.in.ReadString('\n')
	if errors.Is(err, io.EOF) {
		p.closed = true
		err = nil
	}
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return strings.TrimSpace(line), nil
}
