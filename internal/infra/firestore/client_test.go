package firestoreinfra

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewClient_EmptyProject(t *testing.T) {
	_, err := NewClient(context.Background(), " ", "", nil)
	assert.Error(t, err)
}

func TestPing_NilClient(t *testing.T) {
	var cw *ClientWrapper
	assert.Error(t, cw.Ping(context.Background(), "local_state"))
	assert.NoError(t, cw.Close())
}

// needs FIRESTORE_EMULATOR_HOST
func TestPing_Emulator(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	cw, err := NewClient(context.Background(), "papeleria-test", "", zaptest.NewLogger(t))
	require.NoError(t, err)
	defer cw.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, cw.Ping(ctx, "local_state"))
	assert.Error(t, cw.Ping(ctx, " "))
}
