package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// PromptMissing asks on the terminal for values the command needs but that
// no other source supplied. Nothing is asked when in is not a terminal.
func (c *Config) PromptMissing(in *os.File, out io.Writer) error {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return nil
	}

	r := bufio.NewReader(in)

	var err error
	switch c.Command {
	case CommandCSV:
		if c.CSVFile == "" {
			c.CSVFile, err = promptLine(r, out, "CSV file path")
		}
		return err
	case CommandPanorama, CommandFirewall:
		label := strings.ToUpper(c.Command[:1]) + c.Command[1:]
		if c.Hostname == "" {
			if c.Hostname, err = promptLine(r, out, label+" hostname or IP"); err != nil {
				return err
			}
		}
		if c.APIKey != "" {
			return nil
		}
		if c.Username == "" {
			if c.Username, err = promptLine(r, out, label+" username"); err != nil {
				return err
			}
		}
		if c.Password == "" {
			fmt.Fprintf(out, "%s password: ", label)
			pw, err := term.ReadPassword(fd)
			fmt.Fprintln(out)
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}
			c.Password = string(pw)
		}
	}
	return nil
}

func promptLine(r *bufio.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprintf(out, "%s: ", label)
	line, err := r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(line), nil
}
