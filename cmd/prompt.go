package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dmarceau/instagram-follower-cli/internal/domain"
)

// promptPassword reads a password without echo when stdin is a terminal,
// and falls back to a plain line read so the command stays scriptable.
func promptPassword(cmd *cobra.Command, label string) (string, error) {
	_, _ = fmt.Fprint(cmd.ErrOrStderr(), label)

	if file, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		raw, err := term.ReadPassword(int(file.Fd()))
		_, _ = fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(raw), nil
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}

	return strings.TrimRight(line, "\r\n"), nil
}

func promptYesNo(cmd *cobra.Command, label string) (bool, error) {
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%s [y/N] ", label)

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return false, nil
	}

	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

// interactiveConfirmer asks before every single unfollow. It shares one
// reader across calls so buffered input is not lost between prompts.
type interactiveConfirmer struct {
	cmd    *cobra.Command
	reader *bufio.Reader
}

func newInteractiveConfirmer(cmd *cobra.Command) *interactiveConfirmer {
	return &interactiveConfirmer{
		cmd:    cmd,
		reader: bufio.NewReader(cmd.InOrStdin()),
	}
}

func (c *interactiveConfirmer) Confirm(ctx context.Context, user domain.UserRef) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	label := "@" + user.Username
	if user.FullName != "" {
		label += " (" + user.FullName + ")"
	}
	_, _ = fmt.Fprintf(c.cmd.ErrOrStderr(), "Unfollow %s? [y/N] ", label)

	line, err := c.reader.ReadString('\n')
	if err != nil && line == "" {
		// Input exhausted: treat the rest of the batch as declined.
		return false, nil
	}

	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}
