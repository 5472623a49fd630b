// Package credentials provides the token sources used for remote execution.
package credentials

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/qflip/pkg/domain"
	"github.com/aretw0/qflip/pkg/ports"
	"golang.org/x/term"
)

// DefaultEnvKey is the environment variable read by Env when no key is given.
const DefaultEnvKey = "QFLIP_IBM_TOKEN"

// DefaultPrompt is the message shown before reading a token interactively.
const DefaultPrompt = "Enter your IBM Quantum API token: "

// Static always returns the same token.
type Static string

// Token implements ports.CredentialProvider.
func (s Static) Token(ctx context.Context) (string, error) {
	return check(string(s))
}

// Env reads the token from an environment variable.
type Env struct {
	Key string
}

// Token implements ports.CredentialProvider.
func (e Env) Token(ctx context.Context) (string, error) {
	key := e.Key
	if key == "" {
		key = DefaultEnvKey
	}
	return check(os.Getenv(key))
}

// Prompt asks for the token on Out and reads one line from In.
// When In is a terminal the input is not echoed.
type Prompt struct {
	In      io.Reader
	Out     io.Writer
	Message string
}

// NewPrompt creates a prompt on stdin/stderr.
func NewPrompt() *Prompt {
	return &Prompt{In: os.Stdin, Out: os.Stderr, Message: DefaultPrompt}
}

// Token implements ports.CredentialProvider.
func (p *Prompt) Token(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	msg := p.Message
	if msg == "" {
		msg = DefaultPrompt
	}
	if p.Out != nil {
		fmt.Fprint(p.Out, msg)
	}

	if f, ok := p.In.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		raw, err := term.ReadPassword(int(f.Fd()))
		if p.Out != nil {
			fmt.Fprintln(p.Out)
		}
		if err != nil {
			return "", fmt.Errorf("failed to read token: %w", err)
		}
		return check(string(raw))
	}

	line, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return check(line)
}

// Chain tries each provider in order and returns the first token found.
// Only a missing credential moves on to the next provider; other errors stop the chain.
type Chain []ports.CredentialProvider

// Token implements ports.CredentialProvider.
func (c Chain) Token(ctx context.Context) (string, error) {
	for _, p := range c {
		token, err := p.Token(ctx)
		if err == nil {
			return token, nil
		}
		if !errors.Is(err, domain.ErrMissingCredential) {
			return "", err
		}
	}
	return "", domain.ErrMissingCredential
}

func check(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", domain.ErrMissingCredential
	}
	return token, nil
}
