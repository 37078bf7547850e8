package firestore

import (
	"context"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestDocID(t *testing.T) {
	assert.Equal(t, "cart:account:7", docID("cart:account:7"))
	assert.NotContains(t, docID("cart:email:a/b@x.mx"), "/")
}

func TestCheck(t *testing.T) {
	var r *KVRepositoryFS
	_, err := r.check("k")
	assert.Error(t, err)
}

// emulatorClient needs FIRESTORE_EMULATOR_HOST (gcloud emulators firestore start).
func emulatorClient(t *testing.T) *firestore.Client {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	c, err := firestore.NewClient(context.Background(), "papeleria-test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestKVRepositoryFS_Emulator(t *testing.T) {
	ctx := context.Background()
	client := emulatorClient(t)
	coll := "local_state_" + time.Now().Format("150405.000000")
	r := NewKVRepositoryFS(client, coll, zaptest.NewLogger(t))

	_, ok, err := r.Get(ctx, "cart:guest")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Set(ctx, "cart:guest", []byte(`[]`)))
	v, ok, err := r.Get(ctx, "cart:guest")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `[]`, string(v))

	require.NoError(t, r.Delete(ctx, "cart:guest"))
	require.NoError(t, r.Delete(ctx, "cart:guest"))
}

func TestKVRepositoryFS_WatchOtherInstance(t *testing.T) {
	client := emulatorClient(t)
	coll := "local_state_w_" + time.Now().Format("150405.000000")
	mine := NewKVRepositoryFS(client, coll, zaptest.NewLogger(t))
	other := NewKVRepositoryFS(client, coll, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	keys := make(chan string, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = mine.Watch(ctx, func(k string) { keys <- k })
	}()
	defer func() {
		cancel()
		<-done
	}()

	time.Sleep(300 * time.Millisecond)
	require.NoError(t, other.Set(context.Background(), "cart:account:1", []byte(`[]`)))

	select {
	case k := <-keys:
		assert.Equal(t, "cart:account:1", k)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
}
