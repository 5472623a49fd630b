package cli_test

import (
	"context"
	"errors"
	"os"
	"runtime"
	"testing"
	"time"

	"github.com/aretw0/qflip/internal/cli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterrupt_Stop(t *testing.T) {
	in := cli.WithInterrupt(context.Background())
	in.Stop()
	in.Stop()

	assert.ErrorIs(t, in.Err(), context.Canceled)
	assert.Nil(t, in.Signal())

	base := errors.New("boom")
	assert.Same(t, base, in.Wrap(base))
	assert.NoError(t, in.Wrap(nil))
}

func TestInterrupt_ParentCancel(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	in := cli.WithInterrupt(parent)
	defer in.Stop()

	cancel()
	select {
	case <-in.Done():
	case <-time.After(time.Second):
		t.Fatal("context not cancelled with its parent")
	}
	assert.Nil(t, in.Signal())
}

func TestInterrupt_Signal(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("signals cannot be sent to the own process on windows")
	}
	in := cli.WithInterrupt(context.Background())
	defer in.Stop()

	p, err := os.FindProcess(os.Getpid())
	require.NoError(t, err)
	require.NoError(t, p.Signal(os.Interrupt))

	select {
	case <-in.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context not cancelled by SIGINT")
	}
	assert.Equal(t, os.Interrupt, in.Signal())
	assert.ErrorContains(t, in.Wrap(context.Canceled), "interrupted by interrupt")
}
