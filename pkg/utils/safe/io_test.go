package safe_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/m-mizutani/ghsync/pkg/utils/safe"
)

func TestClose(t *testing.T) {
	t.Run("close valid reader", func(t *testing.T) {
		reader := io.NopCloser(bytes.NewReader([]byte("test")))
		safe.Close(reader) // Should not panic
	})

	t.Run("close nil reader", func(t *testing.T) {
		safe.Close(nil) // Should not panic
	})
}

func TestRollback(t *testing.T) {
	t.Run("rollback nil transaction", func(t *testing.T) {
		safe.Rollback(nil) // Should not panic
	})
}
