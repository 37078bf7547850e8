package notify

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWriterNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewWriterNotifier(&buf)

	n.Notify(context.Background(), "Added 2 × Cuaderno to your cart")
	n.Notify(context.Background(), "  ")

	assert.Equal(t, "» Added 2 × Cuaderno to your cart\n", buf.String())
}

func TestLogNotifier(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	NewLogNotifier(zap.New(core)).Notify(context.Background(), "hola")

	entries := logs.FilterMessage("notification").All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "hola", entries[0].ContextMap()["message"])
	}
}
