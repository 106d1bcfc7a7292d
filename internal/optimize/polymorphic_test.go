package optimize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jitcore/internal/ir"
)

func TestPolymorphicICLoweringClassifiesMonomorphic(t *testing.T) {
	ib := ir.NewBuilder()
	entry := ib.CreateBlock("entry")
	ib.SetCurrentBlock(entry)
	obj := ib.Parameter(0)
	load := ib.LoadProperty(obj, "x")
	ib.Return(load)
	require.Nil(t, ib.Finalize(entry, entry))

	g := ib.Graph()
	pl := &PolymorphicICLowering{Feedback: map[ir.NodeID]ShapeFeedback{
		load: {Shapes: []int{1}, Offsets: []int{0}},
	}}
	changed := pl.Apply(g)
	assert.True(t, changed)

	w := g.Node(load).Polymorphic
	require.NotNil(t, w)
	assert.Equal(t, ir.PolymorphicMonomorphic, w.State)
}

func TestPolymorphicICLoweringClassifiesPolymorphicAndMegamorphic(t *testing.T) {
	ib := ir.NewBuilder()
	entry := ib.CreateBlock("entry")
	ib.SetCurrentBlock(entry)
	obj := ib.Parameter(0)
	poly := ib.LoadProperty(obj, "x")
	mega := ib.LoadProperty(obj, "y")
	ib.Return(poly)
	require.Nil(t, ib.Finalize(entry, entry))

	g := ib.Graph()
	pl := &PolymorphicICLowering{Feedback: map[ir.NodeID]ShapeFeedback{
		poly: {Shapes: []int{1, 2, 3}, Offsets: []int{0, 0, 4}},
		mega: {Shapes: []int{1, 2, 3, 4, 5}, Offsets: []int{0, 0, 4, 4, 8}},
	}}
	pl.Apply(g)

	assert.Equal(t, ir.PolymorphicPolymorphic, g.Node(poly).Polymorphic.State)
	assert.Equal(t, ir.PolymorphicMegamorphic, g.Node(mega).Polymorphic.State)
}

func TestPolymorphicICLoweringNoOpWithoutFeedback(t *testing.T) {
	ib := ir.NewBuilder()
	entry := ib.CreateBlock("entry")
	ib.SetCurrentBlock(entry)
	obj := ib.Parameter(0)
	ib.LoadProperty(obj, "x")
	ib.Return(ir.InvalidNodeID)
	require.Nil(t, ib.Finalize(entry, entry))

	pl := &PolymorphicICLowering{}
	assert.False(t, pl.Apply(ib.Graph()))
}
