package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemoryArchiveKeepsNewest(t *testing.T) {
	a := NewMemoryArchive(2)
	for id := uint64(1); id <= 3; id++ {
		assert.NoError(t, a.Record(context.Background(), GameRecord{ID: id}))
	}

	recs := a.Records()
	if assert.Len(t, recs, 2) {
		assert.Equal(t, uint64(2), recs[0].ID)
		assert.Equal(t, uint64(3), recs[1].ID)
	}

	recs[0].ID = 99
	assert.Equal(t, uint64(2), a.Records()[0].ID, "Records returns a copy")
}
