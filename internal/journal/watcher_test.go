// SPDX-License-Identifier: MIT
package journal

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatcherPrunesAfterOutOfBandDelete(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, dataDir := newTestStorage(t)
	s.Initialize(ctx)

	record := s.SaveVideo(ctx, writeTempVideo(t, "a.mp4"), "2024-03-10", "09:00", "")
	require.NotNil(t, record)

	w := NewWatcher(s)
	w.debounce = 20 * time.Millisecond

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()

	// give the watcher time to register before deleting
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.Remove(record.Filepath))

	metadataPath := filepath.Join(dataDir, "bello_metadata.json")
	require.Eventually(t, func() bool {
		data, err := os.ReadFile(metadataPath)
		if err != nil {
			return false
		}
		var records []VideoRecord
		if err := json.Unmarshal(data, &records); err != nil {
			return false
		}
		return len(records) == 0
	}, 3*time.Second, 25*time.Millisecond, "metadata should be pruned after out-of-band delete")

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop on context cancel")
	}
}
