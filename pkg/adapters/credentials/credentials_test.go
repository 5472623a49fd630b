package credentials_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aretw0/qflip/pkg/adapters/credentials"
	"github.com/aretw0/qflip/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatic(t *testing.T) {
	token, err := credentials.Static("  abc \n").Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	_, err = credentials.Static("   ").Token(context.Background())
	assert.ErrorIs(t, err, domain.ErrMissingCredential)
}

func TestEnv(t *testing.T) {
	t.Setenv("QFLIP_TEST_TOKEN", "from-env")
	token, err := credentials.Env{Key: "QFLIP_TEST_TOKEN"}.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "from-env", token)

	t.Setenv(credentials.DefaultEnvKey, "")
	_, err = credentials.Env{}.Token(context.Background())
	assert.ErrorIs(t, err, domain.ErrMissingCredential)
}

func TestPrompt(t *testing.T) {
	t.Run("reads one line", func(t *testing.T) {
		var out bytes.Buffer
		p := &credentials.Prompt{In: strings.NewReader("secret-token\nignored\n"), Out: &out}

		token, err := p.Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "secret-token", token)
		assert.Equal(t, credentials.DefaultPrompt, out.String())
	})

	t.Run("empty input is a configuration error", func(t *testing.T) {
		p := &credentials.Prompt{In: strings.NewReader("\n"), Out: &bytes.Buffer{}}
		_, err := p.Token(context.Background())
		assert.ErrorIs(t, err, domain.ErrMissingCredential)
	})

	t.Run("closed input is a configuration error", func(t *testing.T) {
		p := &credentials.Prompt{In: strings.NewReader("")}
		_, err := p.Token(context.Background())
		assert.ErrorIs(t, err, domain.ErrMissingCredential)
	})
}

type failing struct{ err error }

func (f failing) Token(context.Context) (string, error) { return "", f.err }

func TestChain(t *testing.T) {
	ctx := context.Background()

	token, err := credentials.Chain{credentials.Static(""), credentials.Static("second")}.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", token)

	_, err = credentials.Chain{credentials.Static(""), credentials.Static(" ")}.Token(ctx)
	assert.ErrorIs(t, err, domain.ErrMissingCredential)

	boom := errors.New("boom")
	_, err = credentials.Chain{failing{boom}, credentials.Static("never")}.Token(ctx)
	assert.ErrorIs(t, err, boom)
}
