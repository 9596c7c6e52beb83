package component_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/scenekit/internal/core/component"
	"github.com/zeusync/scenekit/internal/core/component/componenttest"
)

func TestRegistry(t *testing.T) {
	r := component.NewRegistry()
	j := &componenttest.Journal{}
	require.NoError(t, r.Register("probe", componenttest.Factory("p", j)))
	require.NoError(t, r.Register("other", func() component.Component { return &component.Base{} }))

	assert.ErrorIs(t, r.Register("probe", componenttest.Factory("p", j)), component.ErrDuplicateType)
	assert.ErrorIs(t, r.Register("", componenttest.Factory("p", j)), component.ErrEmptyTypeName)
	assert.ErrorIs(t, r.Register("nil", nil), component.ErrNilFactory)

	c1, err := r.New("probe")
	require.NoError(t, err)
	c2, err := r.New("probe")
	require.NoError(t, err)
	assert.NotSame(t, c1, c2)
	assert.Equal(t, "p-2", c2.(*componenttest.Probe).Name)

	_, err = r.New("missing")
	assert.ErrorIs(t, err, component.ErrUnknownType)
	assert.True(t, r.Has("other"))
	assert.Equal(t, []string{"other", "probe"}, r.Types())

	assert.Panics(t, func() { r.MustRegister("probe", componenttest.Factory("p", j)) })
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "object_loaded", component.StateObjectLoaded.String())
	assert.Equal(t, "unknown", component.State(99).String())
}
