package speculate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jitcore/internal/ir"
	"jitcore/internal/profile"
)

func TestInsertGuardsNoOpOnEmptyRecord(t *testing.T) {
	ib := ir.NewBuilder()
	entry := ib.CreateBlock("entry")
	ib.SetCurrentBlock(entry)
	p := ib.Parameter(0)
	ib.Return(p)
	require.Nil(t, ib.Finalize(entry, entry))

	m := &Manager{Offsets: map[ir.NodeID]int{p: 0}}
	guards, triggers := m.InsertGuards(ib.Graph(), profile.Empty())
	assert.Empty(t, guards)
	assert.Empty(t, triggers)
}

func TestInsertGuardsTypeGuardOnConcentratedParameter(t *testing.T) {
	ib := ir.NewBuilder()
	entry := ib.CreateBlock("entry")
	ib.SetCurrentBlock(entry)
	p := ib.Parameter(0)
	ib.Return(p)
	require.Nil(t, ib.Finalize(entry, entry))

	g := ib.Graph()
	m := &Manager{Offsets: map[ir.NodeID]int{p: 3}}
	rec := profile.Empty()
	rec.TypeFeedback[3] = profile.TypeObservation{Type: "number", Nullable: true}

	guards, triggers := m.InsertGuards(g, rec)
	require.Len(t, guards, 1)
	require.Len(t, triggers, 1)
	assert.Equal(t, ir.GuardType, guards[0].Kind)
	assert.Equal(t, p, guards[0].Protects)
	assert.Equal(t, guards[0].ID, triggers[0].GuardID)
	assert.Equal(t, 3, triggers[0].ResumeOffset)

	guardNode := g.Node(guards[0].Node)
	assert.Equal(t, ir.KindGuard, guardNode.Kind())
	assert.Equal(t, p, guardNode.Inputs()[0])
}

func TestInsertGuardsShapeGuardOnSingleShapeLoad(t *testing.T) {
	ib := ir.NewBuilder()
	entry := ib.CreateBlock("entry")
	ib.SetCurrentBlock(entry)
	obj := ib.Parameter(0)
	load := ib.LoadProperty(obj, "x")
	ib.Return(load)
	require.Nil(t, ib.Finalize(entry, entry))

	g := ib.Graph()
	m := &Manager{Offsets: map[ir.NodeID]int{load: 7}}
	rec := profile.Empty()
	rec.TypeFeedback[7] = profile.TypeObservation{Shape: 42}

	guards, triggers := m.InsertGuards(g, rec)
	require.Len(t, guards, 1)
	assert.Equal(t, ir.GuardShape, guards[0].Kind)
	assert.Equal(t, obj, guards[0].Protects)
	assert.Equal(t, 42, guards[0].Witness)
	assert.Len(t, triggers, 1)
}

func TestInsertGuardsSkipsNodesWithoutOffsetOrFeedback(t *testing.T) {
	ib := ir.NewBuilder()
	entry := ib.CreateBlock("entry")
	ib.SetCurrentBlock(entry)
	p := ib.Parameter(0)
	ib.Return(p)
	require.Nil(t, ib.Finalize(entry, entry))

	g := ib.Graph()
	m := &Manager{}
	rec := profile.Empty()
	rec.TypeFeedback[0] = profile.TypeObservation{Type: "number"}

	guards, triggers := m.InsertGuards(g, rec)
	assert.Empty(t, guards)
	assert.Empty(t, triggers)
}
