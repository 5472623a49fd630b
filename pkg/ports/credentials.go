package ports

import "context"

// CredentialProvider supplies the API token used for remote execution.
type CredentialProvider interface {
	// Token returns a non-empty token, or an error wrapping domain.ErrMissingCredential.
	Token(ctx context.Context) (string, error)
}
