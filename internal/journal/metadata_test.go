// SPDX-License-Identifier: MIT
package journal

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataLoadAbsentFile(t *testing.T) {
	m := &metadataStore{path: filepath.Join(t.TempDir(), "bello_metadata.json")}

	records, err := m.load()
	require.NoError(t, err)
	assert.Nil(t, records)
}

func TestMetadataLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bello_metadata.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	m := &metadataStore{path: path}
	_, err := m.load()
	assert.Error(t, err)
}

func TestMetadataSaveIsPrettyPrinted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bello_metadata.json")
	m := &metadataStore{path: path}

	records := []VideoRecord{{ID: "2024-03-10_12:34", Filename: "2024-03-10_12-34.mp4"}}
	require.NoError(t, m.save(context.Background(), records))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	// the mobile client reads this document; keep it human-inspectable
	assert.True(t, strings.HasPrefix(string(data), "[\n  {\n"))
	assert.Contains(t, string(data), `"id": "2024-03-10_12:34"`)
}

func TestMetadataSaveNilWritesEmptyArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bello_metadata.json")
	m := &metadataStore{path: path}

	require.NoError(t, m.save(context.Background(), nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestMetadataRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bello_metadata.json")
	m := &metadataStore{path: path}

	in := []VideoRecord{
		{ID: "2024-03-10_12:34", Date: "2024-03-10", Time: "12:34", CreatedAt: 1710072840000},
		{ID: "recap_weekly_2024_11", IsRecap: true, RecapType: RecapWeekly, WeekNumber: 11, Year: 2024},
	}
	require.NoError(t, m.save(context.Background(), in))

	out, err := m.load()
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestUpsert(t *testing.T) {
	a := VideoRecord{ID: "a", CreatedAt: 1}
	b := VideoRecord{ID: "b", CreatedAt: 2}
	c := VideoRecord{ID: "c", CreatedAt: 3}

	records := upsert(upsert(upsert(nil, a), b), c)
	require.Len(t, records, 3)

	// existing id replaces in place, preserving relative order
	records = upsert(records, VideoRecord{ID: "b", CreatedAt: 9})
	require.Len(t, records, 3)
	assert.Equal(t, "a", records[0].ID)
	assert.Equal(t, "b", records[1].ID)
	assert.Equal(t, int64(9), records[1].CreatedAt)
	assert.Equal(t, "c", records[2].ID)
}
