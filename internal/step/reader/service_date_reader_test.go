package reader_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "github.com/tigerroll/escala/internal/config"
	model "github.com/tigerroll/escala/internal/domain/model"
	"github.com/tigerroll/escala/internal/step/reader"
)

func newTestConfig(year int) *config.Config {
	cfg := config.NewConfig()
	cfg.Escala.Batch.Year = year
	return cfg
}

func TestServiceDateReader_ReadsWholeYearInOrder(t *testing.T) {
	r, err := reader.NewServiceDateReader(newTestConfig(2026))
	require.NoError(t, err)

	ctx := context.Background()
	ec := model.NewExecutionContext()
	require.NoError(t, r.Open(ctx, ec))

	var count int
	var last time.Time
	for {
		sd, err := r.Read(ctx)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		if count > 0 {
			assert.True(t, sd.Date.After(last), "dates must be chronological")
		}
		last = sd.Date
		count++
	}

	// 2026 starts on a Thursday, so Sundays, Wednesdays and Saturdays
	// occur 52 times each.
	assert.Equal(t, 156, count)
	require.NoError(t, r.Close(ctx))
}

func TestServiceDateReader_FirstDateIsFirstSaturday(t *testing.T) {
	r, err := reader.NewServiceDateReader(newTestConfig(2026))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, r.Open(ctx, model.NewExecutionContext()))

	sd, err := r.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.DaySaturday, sd.Day)
	assert.Equal(t, time.Date(2026, time.January, 3, 0, 0, 0, 0, time.UTC), sd.Date)
}

func TestServiceDateReader_ResumesFromCheckpoint(t *testing.T) {
	r, err := reader.NewServiceDateReader(newTestConfig(2026))
	require.NoError(t, err)

	ctx := context.Background()
	state := model.NewExecutionContext()
	state.Put(reader.CurrentIndexKey, 150)
	ec := model.NewExecutionContext()
	ec.Put(reader.ReaderContextKey, state)

	require.NoError(t, r.Open(ctx, ec))

	var count int
	for {
		_, err := r.Read(ctx)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		count++
	}
	assert.Equal(t, 6, count)
}

func TestServiceDateReader_CheckpointSurvivesJSONRoundTrip(t *testing.T) {
	r, err := reader.NewServiceDateReader(newTestConfig(2026))
	require.NoError(t, err)

	ctx := context.Background()
	// Deserialized contexts come back as plain maps.
	ec := model.NewExecutionContext()
	ec.Put(reader.ReaderContextKey, map[string]interface{}{
		reader.CurrentIndexKey: float64(155),
	})

	require.NoError(t, r.Open(ctx, ec))

	_, err = r.Read(ctx)
	require.NoError(t, err)
	_, err = r.Read(ctx)
	assert.Equal(t, io.EOF, err)
}

func TestServiceDateReader_RejectsOutOfRangeCheckpoint(t *testing.T) {
	r, err := reader.NewServiceDateReader(newTestConfig(2026))
	require.NoError(t, err)

	state := model.NewExecutionContext()
	state.Put(reader.CurrentIndexKey, 9999)
	ec := model.NewExecutionContext()
	ec.Put(reader.ReaderContextKey, state)

	assert.Error(t, r.Open(context.Background(), ec))
}

func TestServiceDateReader_CloseSavesCheckpoint(t *testing.T) {
	r, err := reader.NewServiceDateReader(newTestConfig(2026))
	require.NoError(t, err)

	ctx := context.Background()
	ec := model.NewExecutionContext()
	require.NoError(t, r.Open(ctx, ec))

	for i := 0; i < 10; i++ {
		_, err := r.Read(ctx)
		require.NoError(t, err)
	}
	require.NoError(t, r.Close(ctx))

	raw, ok := ec.Get(reader.ReaderContextKey)
	require.True(t, ok)
	state, ok := raw.(model.ExecutionContext)
	require.True(t, ok)
	idx, ok := state.GetInt(reader.CurrentIndexKey)
	require.True(t, ok)
	assert.Equal(t, 10, idx)
}

func TestServiceDateReader_CancelledContext(t *testing.T) {
	r, err := reader.NewServiceDateReader(newTestConfig(2026))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, r.Open(ctx, model.NewExecutionContext()), context.Canceled)
}

func TestServiceDateReader_InvalidTimezone(t *testing.T) {
	cfg := newTestConfig(2026)
	cfg.Escala.System.Timezone = "Neverland/Nowhere"

	_, err := reader.NewServiceDateReader(cfg)
	assert.Error(t, err)
}
