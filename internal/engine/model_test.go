package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"CodeNews/internal/domain"
)

func TestModelDefaultWeight(t *testing.T) {
	t.Parallel()

	model := NewModel(0.1, -1, 1)
	assert.Equal(t, 0.1, model.Weight("never-seen"))
}

func TestModelApplyDeltaClips(t *testing.T) {
	t.Parallel()

	model := NewModel(0, -1, 1)
	for i := 0; i < 30; i++ {
		model.ApplyDelta("golang", 0.3)
	}
	assert.Equal(t, 1.0, model.Weight("golang"))

	for i := 0; i < 30; i++ {
		model.ApplyDelta("golang", -0.3)
	}
	assert.Equal(t, -1.0, model.Weight("golang"))
}

func TestModelCountsFollowDeltaSign(t *testing.T) {
	t.Parallel()

	model := NewModel(0, -1, 1)
	model.ApplyDelta("golang", 0.2)
	model.ApplyDelta("golang", 0.2)
	model.ApplyDelta("golang", -0.2)

	snap := model.Snapshot()
	assert.Equal(t, 2, snap["golang"].Positive)
	assert.Equal(t, 1, snap["golang"].Negative)
}

func TestModelSnapshotRestoreRoundTrip(t *testing.T) {
	t.Parallel()

	model := NewModel(0, -1, 1)
	model.ApplyDelta("golang", 0.4)
	model.ApplyDelta("jquery", -0.6)

	restored := NewModel(0, -1, 1)
	restored.Restore(model.Snapshot())

	assert.Equal(t, model.Weight("golang"), restored.Weight("golang"))
	assert.Equal(t, model.Weight("jquery"), restored.Weight("jquery"))
	assert.Equal(t, model.Len(), restored.Len())
}

func TestModelRestoreClipsOutOfRangeWeights(t *testing.T) {
	t.Parallel()

	model := NewModel(0, -1, 1)
	model.Restore(map[string]domain.TermWeight{
		"golang": {Weight: 7.5},
	})
	assert.Equal(t, 1.0, model.Weight("golang"))
}

func TestModelSeedDoesNotOverwrite(t *testing.T) {
	t.Parallel()

	model := NewModel(0, -1, 1)
	model.ApplyDelta("golang", -0.5)
	model.Seed("golang", 0.5)

	assert.Equal(t, -0.5, model.Weight("golang"))
}

func TestModelTopPreferences(t *testing.T) {
	t.Parallel()

	model := NewModel(0, -1, 1)
	model.ApplyDelta("golang", 0.9)
	model.ApplyDelta("rust", 0.4)
	model.ApplyDelta("jquery", -0.7)

	positive := model.TopPositive(10)
	negative := model.TopNegative(10)

	assert.Equal(t, []TermScore{{Term: "golang", Weight: 0.9}, {Term: "rust", Weight: 0.4}}, positive)
	assert.Equal(t, []TermScore{{Term: "jquery", Weight: -0.7}}, negative)
}
