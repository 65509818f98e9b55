// SPDX-License-Identifier: MIT

package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	xglog "github.com/bello-app/bellod/internal/log"
	"github.com/google/renameio/v2"
)

// metadataStore persists the full record list as one pretty-printed JSON
// array. Every mutation re-serializes the complete set; there is no partial
// or append update.
type metadataStore struct {
	path string
}

// load reads the metadata document. An absent file is the "no videos yet"
// state, not an error.
func (m *metadataStore) load() ([]VideoRecord, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	var records []VideoRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse metadata: %w", err)
	}
	return records, nil
}

// save atomically replaces the metadata document using renameio.
// fsync before rename keeps the index durable across power failure.
func (m *metadataStore) save(ctx context.Context, records []VideoRecord) error {
	logger := xglog.FromContext(ctx)

	if records == nil {
		records = []VideoRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	pendingFile, err := renameio.NewPendingFile(m.path)
	if err != nil {
		return fmt.Errorf("create pending metadata file: %w", err)
	}
	defer func() {
		// renameio removes the temp file if not committed
		if err := pendingFile.Cleanup(); err != nil {
			logger.Debug().Err(err).Msg("cleanup pending metadata file")
		}
	}()

	if _, err := pendingFile.Write(data); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}

	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace metadata file: %w", err)
	}
	return nil
}

// upsert replaces the entry with a matching id in place, preserving relative
// order, or appends when the id is new.
func upsert(records []VideoRecord, record VideoRecord) []VideoRecord {
	for i, existing := range records {
		if existing.ID == record.ID {
			records[i] = record
			return records
		}
	}
	return append(records, record)
}
