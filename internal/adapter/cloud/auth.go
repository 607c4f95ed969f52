package cloud

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/mmcdole/foodpin/internal/domain"
	"golang.org/x/term"
)

const authTimeout = 30 * time.Second

// AuthFlow implements domain.AuthFlow by prompting for an API token
// and checking it against the record database
type AuthFlow struct {
	container string
	logger    *slog.Logger

	in  io.Reader
	out io.Writer

	// readSecret reads the token without echo; replaced in tests
	readSecret func() (string, error)
}

// NewAuthFlow creates a new token authentication flow
func NewAuthFlow(container string, logger *slog.Logger) *AuthFlow {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthFlow{
		container: container,
		logger:    logger,
		in:        os.Stdin,
		out:       os.Stdout,
		readSecret: func() (string, error) {
			b, err := term.ReadPassword(int(syscall.Stdin))
			return string(b), err
		},
	}
}

// Run prompts for the API token and validates it with a one-record query
func (f *AuthFlow) Run(ctx context.Context, serverURL string) (*domain.AuthResult, error) {
	serverURL = strings.TrimRight(serverURL, "/")

	fmt.Fprintln(f.out)
	fmt.Fprintln(f.out, "FoodPin Cloud Authentication")
	fmt.Fprintln(f.out, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	container := f.container
	fmt.Fprintf(f.out, "Container [%s]: ", container)
	reader := bufio.NewReader(f.in)
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read container: %w", err)
	}
	if v := strings.TrimSpace(line); v != "" {
		container = v
	}

	// Prompt for token (hidden input)
	fmt.Fprint(f.out, "API token: ")
	token, err := f.readSecret()
	if err != nil {
		return nil, fmt.Errorf("failed to read token: %w", err)
	}
	token = strings.TrimSpace(token)
	fmt.Fprintln(f.out) // Add newline after hidden input

	if token == "" {
		return nil, domain.ErrAuthFailed
	}

	fmt.Fprintln(f.out)
	fmt.Fprintln(f.out, "Checking token...")

	ctx, cancel := context.WithTimeout(ctx, authTimeout)
	defer cancel()

	client := NewClient(serverURL, token, "", f.logger)
	if err := client.Ping(ctx); err != nil {
		f.logger.Error("token check failed", "error", err)
		return nil, err
	}

	fmt.Fprintln(f.out)
	fmt.Fprintln(f.out, "Authentication successful!")

	return &domain.AuthResult{
		Token:     token,
		Container: container,
	}, nil
}
