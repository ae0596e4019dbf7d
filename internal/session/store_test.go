package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_GetOrCreate(t *testing.T) {
	st := NewStore(StoreOptions{ProgressInterval: time.Hour})

	s, created := st.GetOrCreate("")
	require.True(t, created)
	assert.NotEmpty(t, s.ID())

	again, created := st.GetOrCreate(s.ID())
	assert.False(t, created)
	assert.Same(t, s, again)

	other, created := st.GetOrCreate("unknown")
	assert.True(t, created)
	assert.NotEqual(t, "unknown", other.ID(), "ids are always server generated")
	assert.Equal(t, 2, st.Len())
}

func TestStore_Delete(t *testing.T) {
	st := NewStore(StoreOptions{})
	s, _ := st.GetOrCreate("")
	st.Delete(s.ID())

	_, ok := st.Get(s.ID())
	assert.False(t, ok)
	assert.Zero(t, st.Len())
}

func TestStore_Sweep(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	st := NewStore(StoreOptions{ProgressInterval: time.Hour})
	st.now = func() time.Time { return now }

	idle, _ := st.GetOrCreate("")
	busy, _ := st.GetOrCreate("")
	require.NoError(t, busy.SelectFile(pngFile("a.png")))
	_, err := busy.Begin()
	require.NoError(t, err)

	now = now.Add(time.Hour)
	fresh, _ := st.GetOrCreate("")

	assert.Equal(t, 1, st.Sweep(30*time.Minute))

	_, ok := st.Get(idle.ID())
	assert.False(t, ok)
	_, ok = st.Get(busy.ID())
	assert.True(t, ok, "sessions with an analysis in flight are kept")
	_, ok = st.Get(fresh.ID())
	assert.True(t, ok)

	busy.Close()
}
