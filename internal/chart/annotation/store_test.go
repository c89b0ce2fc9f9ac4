package annotation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Falcon0711/zStock/internal/kv"
	"github.com/Falcon0711/zStock/internal/logger"
	"github.com/Falcon0711/zStock/internal/types"
)

func newTestStore() (*Store, *kv.Memory) {
	mem := kv.NewMemory()

	return NewStore(mem, logger.NewNopLogger()), mem
}

func TestLoadMissingRecordYieldsEmptyList(t *testing.T) {
	s, _ := newTestStore()

	s.Load("sh600000")

	assert.Equal(t, "sh600000", s.Code())
	assert.Empty(t, s.Lines())
}

func TestLoadMalformedRecordIsNonFatal(t *testing.T) {
	s, mem := newTestStore()
	require.NoError(t, mem.Set(StorageKey("sh600000"), `{not json`))

	s.Load("sh600000")

	assert.Empty(t, s.Lines())
}

func TestAddPersistsImmediately(t *testing.T) {
	s, mem := newTestStore()
	s.Load("sh600000")

	line := types.NewTrendLine(
		types.PricePoint{Time: "2024-03-06", Price: 10},
		types.PricePoint{Time: "2024-03-08", Price: 12},
	)
	require.NoError(t, s.Add(line))

	raw, ok, err := mem.Get(StorageKey("sh600000"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, raw, line.ID)
}

func TestLinesAreScopedPerInstrument(t *testing.T) {
	s, _ := newTestStore()

	s.Load("sh600000")
	lineA := types.NewTrendLine(
		types.PricePoint{Time: "2024-03-06", Price: 10},
		types.PricePoint{Time: "2024-03-08", Price: 12},
	)
	require.NoError(t, s.Add(lineA))

	// Switching to another instrument hides A's lines.
	s.Load("sz000001")
	assert.Empty(t, s.Lines())

	// Switching back restores them unchanged.
	s.Load("sh600000")
	require.Len(t, s.Lines(), 1)
	assert.Equal(t, lineA, s.Lines()[0])
}

func TestRemoveKeepsPersistedListInSync(t *testing.T) {
	s, mem := newTestStore()
	s.Load("sh600000")

	lineA := types.NewTrendLine(types.PricePoint{Time: "a", Price: 1}, types.PricePoint{Time: "b", Price: 2})
	lineB := types.NewTrendLine(types.PricePoint{Time: "c", Price: 3}, types.PricePoint{Time: "d", Price: 4})
	require.NoError(t, s.Add(lineA))
	require.NoError(t, s.Add(lineB))

	require.NoError(t, s.Remove(lineA.ID))

	require.Len(t, s.Lines(), 1)
	assert.Equal(t, lineB.ID, s.Lines()[0].ID)

	raw, ok, err := mem.Get(StorageKey("sh600000"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotContains(t, raw, lineA.ID)
	assert.Contains(t, raw, lineB.ID)
}

func TestClearDeletesPersistedRecord(t *testing.T) {
	s, mem := newTestStore()
	s.Load("sh600000")

	require.NoError(t, s.Add(types.NewTrendLine(
		types.PricePoint{Time: "2024-03-06", Price: 10},
		types.PricePoint{Time: "2024-03-08", Price: 12},
	)))

	require.NoError(t, s.Clear())

	assert.Empty(t, s.Lines())

	_, ok, err := mem.Get(StorageKey("sh600000"))
	require.NoError(t, err)
	assert.False(t, ok, "clear must delete the key, not write an empty array")

	// A reload after clear yields an empty list.
	s.Load("sh600000")
	assert.Empty(t, s.Lines())
}
