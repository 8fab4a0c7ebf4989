// Package dijkstra_test contains unit tests for the Dijkstra implementation:
// validation, distances, early exit, pruned views and cancellation.
package dijkstra_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/rxnpath/core"
	"github.com/katalvlaran/rxnpath/dijkstra"
)

// buildGraph creates vertices named by keys and the listed weighted edges.
func buildGraph(t *testing.T, keys []string, edges [][3]interface{}) (*core.Graph, map[string]core.NodeID) {
	t.Helper()
	g := core.NewGraph()
	ids := make(map[string]core.NodeID, len(keys))
	for _, k := range keys {
		id, err := g.AddVertex(k, nil)
		require.NoError(t, err)
		ids[k] = id
	}
	for _, e := range edges {
		require.NoError(t, g.AddEdge(ids[e[0].(string)], ids[e[1].(string)], e[2].(float64), nil))
	}
	return g, ids
}

// diamond: A→B(1) A→C(4) B→C(1) B→D(5) C→D(1)
func diamond(t *testing.T) (*core.Graph, map[string]core.NodeID) {
	return buildGraph(t, []string{"A", "B", "C", "D"}, [][3]interface{}{
		{"A", "B", 1.0}, {"A", "C", 4.0}, {"B", "C", 1.0}, {"B", "D", 5.0}, {"C", "D", 1.0},
	})
}

func TestDijkstra_Validation(t *testing.T) {
	ctx := context.Background()
	g, ids := diamond(t)

	_, _, err := dijkstra.Dijkstra(ctx, g)
	require.ErrorIs(t, err, dijkstra.ErrNoSource)

	_, _, err = dijkstra.Dijkstra(ctx, nil, dijkstra.Source(0))
	require.ErrorIs(t, err, dijkstra.ErrNilGraph)

	_, _, err = dijkstra.Dijkstra(ctx, g, dijkstra.Source(42))
	require.ErrorIs(t, err, dijkstra.ErrVertexNotFound)

	_, _, err = dijkstra.Dijkstra(ctx, g, dijkstra.Source(ids["A"]), dijkstra.Target(99))
	require.ErrorIs(t, err, dijkstra.ErrVertexNotFound)

	require.Panics(t, func() { dijkstra.WithMaxDistance(-1)(&dijkstra.Options{}) })
	require.Panics(t, func() {
		_, _, _ = dijkstra.Dijkstra(ctx, g, dijkstra.Source(ids["A"]), dijkstra.WithMaxDistance(-1))
	})
}

func TestDijkstra_Distances(t *testing.T) {
	g, ids := diamond(t)
	dist, prev, err := dijkstra.Dijkstra(context.Background(), g,
		dijkstra.Source(ids["A"]), dijkstra.WithReturnPath())
	require.NoError(t, err)
	require.Equal(t, 0.0, dist[ids["A"]])
	require.Equal(t, 1.0, dist[ids["B"]])
	require.Equal(t, 2.0, dist[ids["C"]])
	require.Equal(t, 3.0, dist[ids["D"]])
	require.Equal(t, ids["C"], prev[ids["D"]])
	require.Equal(t, ids["B"], prev[ids["C"]])
}

func TestDijkstra_UnreachableAbsent(t *testing.T) {
	g, ids := buildGraph(t, []string{"A", "B", "Z"}, [][3]interface{}{{"A", "B", 2.0}})
	dist, prev, err := dijkstra.Dijkstra(context.Background(), g, dijkstra.Source(ids["A"]))
	require.NoError(t, err)
	require.Nil(t, prev)
	_, ok := dist[ids["Z"]]
	require.False(t, ok)
}

func TestDijkstra_MaxDistance(t *testing.T) {
	g, ids := diamond(t)
	dist, _, err := dijkstra.Dijkstra(context.Background(), g,
		dijkstra.Source(ids["A"]), dijkstra.WithMaxDistance(1.5))
	require.NoError(t, err)
	require.Len(t, dist, 2)
}

func TestDijkstra_NegativeWeight(t *testing.T) {
	g, ids := buildGraph(t, []string{"A", "B"}, [][3]interface{}{{"A", "B", -1.0}})
	_, _, err := dijkstra.Dijkstra(context.Background(), g, dijkstra.Source(ids["A"]))
	require.ErrorIs(t, err, dijkstra.ErrNegativeWeight)
}

func TestShortestPath(t *testing.T) {
	g, ids := diamond(t)
	path, cost, err := dijkstra.ShortestPath(context.Background(), g, ids["A"], ids["D"])
	require.NoError(t, err)
	require.Equal(t, []core.NodeID{ids["A"], ids["B"], ids["C"], ids["D"]}, path)
	require.Equal(t, 3.0, cost)

	path, cost, err = dijkstra.ShortestPath(context.Background(), g, ids["A"], ids["A"])
	require.NoError(t, err)
	require.Equal(t, []core.NodeID{ids["A"]}, path)
	require.Equal(t, 0.0, cost)
}

func TestShortestPath_PrunedViews(t *testing.T) {
	g, ids := diamond(t)
	ctx := context.Background()

	// Skipping B→C leaves A→C→D (4+1) cheaper than A→B→D (1+5).
	skip := func(from, to core.NodeID) bool { return from == ids["B"] && to == ids["C"] }
	path, cost, err := dijkstra.ShortestPath(ctx, g, ids["A"], ids["D"], dijkstra.WithEdgeFilter(skip))
	require.NoError(t, err)
	require.Equal(t, []core.NodeID{ids["A"], ids["C"], ids["D"]}, path)
	require.Equal(t, 5.0, cost)

	// Skipping C→D as well forces A→B→D.
	skipBoth := func(from, to core.NodeID) bool { return skip(from, to) || (from == ids["C"] && to == ids["D"]) }
	path, cost, err = dijkstra.ShortestPath(ctx, g, ids["A"], ids["D"], dijkstra.WithEdgeFilter(skipBoth))
	require.NoError(t, err)
	require.Equal(t, []core.NodeID{ids["A"], ids["B"], ids["D"]}, path)
	require.Equal(t, 6.0, cost)

	// Excluding B forces A→C→D.
	ex := map[core.NodeID]struct{}{ids["B"]: {}}
	path, cost, err = dijkstra.ShortestPath(ctx, g, ids["A"], ids["D"], dijkstra.WithExcludedVertices(ex))
	require.NoError(t, err)
	require.Equal(t, []core.NodeID{ids["A"], ids["C"], ids["D"]}, path)
	require.Equal(t, 5.0, cost)

	// Excluding both intermediates disconnects the target.
	ex[ids["C"]] = struct{}{}
	_, _, err = dijkstra.ShortestPath(ctx, g, ids["A"], ids["D"], dijkstra.WithExcludedVertices(ex))
	require.ErrorIs(t, err, dijkstra.ErrNoPath)

	// The graph itself is untouched.
	require.Equal(t, 5, g.EdgeCount())
}

func TestShortestPath_TieBreakIsDeterministic(t *testing.T) {
	g, ids := buildGraph(t, []string{"S", "X", "Y", "T"}, [][3]interface{}{
		{"S", "Y", 1.0}, {"S", "X", 1.0}, {"X", "T", 1.0}, {"Y", "T", 1.0},
	})
	for i := 0; i < 20; i++ {
		path, _, err := dijkstra.ShortestPath(context.Background(), g, ids["S"], ids["T"])
		require.NoError(t, err)
		require.Equal(t, []core.NodeID{ids["S"], ids["X"], ids["T"]}, path)
	}
}

func TestDijkstra_Cancelled(t *testing.T) {
	g := core.NewGraph()
	prev, _ := g.AddVertex("v0", nil)
	for i := 1; i < 2000; i++ {
		id, _ := g.AddVertex(fmt.Sprintf("v%d", i), nil)
		require.NoError(t, g.AddEdge(prev, id, 1, nil))
		prev = id
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := dijkstra.Dijkstra(ctx, g, dijkstra.Source(0))
	require.ErrorIs(t, err, context.Canceled)
}
