package callgraph

import (
	"github.com/zboralski/lattice"

	"github.com/openjdk/asmtools-sub002/jvm"
)

// Build constructs a call graph with one node per method. Invoke
// instructions become edges carrying the literals pushed before the call.
func Build(cf *jvm.ClassFile, opt jvm.Options) *lattice.Graph {
	g := &lattice.Graph{}
	cfg := BuildCFG(cf, opt)
	for _, fn := range cfg.Funcs[1:] {
		g.Nodes = append(g.Nodes, fn.Name)
		for _, b := range fn.Blocks {
			for _, c := range b.Calls {
				g.Edges = append(g.Edges, lattice.Edge{Caller: fn.Name, Callee: c.Callee, Args: c.Args})
			}
		}
	}
	g.Dedup()
	return g
}
