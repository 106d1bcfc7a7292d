package optimize

import "jitcore/internal/ir"

// ScalarReplacement rewrites property accesses on an object proven NoEscape
// (§4.4.5): it collects every (object, property) store as a map to the
// stored value, rewires matching loads to that value, and removes the
// now-dead stores/loads. Runs after EscapeAnalysis and shares its verdict.
type ScalarReplacement struct {
	Escape *EscapeAnalysis // must have Apply already run
}

func (ScalarReplacement) Name() string { return "scalar-replacement" }
func (ScalarReplacement) Description() string {
	return "forwards stores directly to loads on objects proven not to escape"
}

type objectField struct {
	object ir.NodeID
	name   string
}

func (sr *ScalarReplacement) Apply(g *ir.Graph) bool {
	if sr.Escape == nil {
		return false
	}
	noEscape := func(id ir.NodeID) bool {
		k := g.Node(id).Kind()
		return (k == ir.KindParameter || k == ir.KindPhi) && !sr.Escape.Escapes(id)
	}

	changed := false
	// Walk blocks in execution order so the last store before a load wins,
	// matching straight-line store->load forwarding; loop-carried values
	// rely on the Phi already inserted by SSA construction.
	latest := map[objectField]ir.NodeID{}
	for _, bid := range g.Blocks() {
		b := g.Block(bid)
		for _, id := range append([]ir.NodeID(nil), b.Nodes...) {
			n := g.Node(id)
			switch n.Kind() {
			case ir.KindStoreProperty:
				obj := n.Inputs()[0]
				if noEscape(obj) {
					latest[objectField{obj, n.Property}] = n.Inputs()[1]
					g.DetachNode(id) // no aliasing consumer needs the store itself
					changed = true
				}
			case ir.KindLoadProperty:
				obj := n.Inputs()[0]
				if noEscape(obj) {
					if val, ok := latest[objectField{obj, n.Property}]; ok {
						g.ReplaceAllUses(id, val)
						g.DetachNode(id) // the load is now dead
						changed = true
					}
				}
			}
		}
	}
	return changed
}
