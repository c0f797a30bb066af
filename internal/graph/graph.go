// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package graph builds the snippet graph: an undirected adjacency structure
// linking each snippet node to its keyword nodes and resource-type nodes,
// plus reverse indices from keyword and resource type to snippet ids.
package graph

import (
	"math"
	"sort"
	"strconv"

	"github.com/pdiddy/iac-rag/internal/tokenize"
	"github.com/pdiddy/iac-rag/pkg/types"
)

// Node id prefixes, one per node kind.
const (
	snippetPrefix  = "s:"
	keywordPrefix  = "k:"
	resourcePrefix = "r:"
)

// SnippetNode returns the node id of snippet id.
func SnippetNode(id int) string { return snippetPrefix + strconv.Itoa(id) }

// KeywordNode returns the node id of a keyword.
func KeywordNode(keyword string) string { return keywordPrefix + keyword }

// ResourceNode returns the node id of a resource type.
func ResourceNode(resource string) string { return resourcePrefix + resource }

// entry holds a snippet together with set views of its metadata.
type entry struct {
	snippet   types.Snippet
	keywords  tokenize.Set
	resources tokenize.Set
}

// Graph is the built index. It is not modified after Build returns, so a
// Graph may be read from many goroutines.
type Graph struct {
	adj        map[string]tokenize.Set
	entries    []entry
	byKeyword  map[string][]int
	byResource map[string][]int
	stats      types.GraphStats
}

// Build indexes snippets. Snippet ids follow slice order: the snippet at
// index i is stored with ID i.
func Build(snippets []types.Snippet) *Graph {
	g := &Graph{
		adj:        make(map[string]tokenize.Set),
		entries:    make([]entry, 0, len(snippets)),
		byKeyword:  make(map[string][]int),
		byResource: make(map[string][]int),
	}

	for i, s := range snippets {
		s.ID = i
		e := entry{
			snippet:   s,
			keywords:  tokenize.NewSet(s.Keywords...),
			resources: tokenize.NewSet(s.ResourceTypes...),
		}
		g.entries = append(g.entries, e)

		node := SnippetNode(s.ID)
		if _, ok := g.adj[node]; !ok {
			g.adj[node] = tokenize.Set{}
		}
		for _, kw := range e.keywords.Sorted() {
			g.link(node, KeywordNode(kw))
			g.byKeyword[kw] = append(g.byKeyword[kw], s.ID)
		}
		for _, rt := range e.resources.Sorted() {
			g.link(node, ResourceNode(rt))
			g.byResource[rt] = append(g.byResource[rt], s.ID)
		}
	}

	g.stats = g.computeStats()
	return g
}

// link adds the undirected edge a–b.
func (g *Graph) link(a, b string) {
	if g.adj[a] == nil {
		g.adj[a] = tokenize.Set{}
	}
	if g.adj[b] == nil {
		g.adj[b] = tokenize.Set{}
	}
	g.adj[a].Add(b)
	g.adj[b].Add(a)
}

func (g *Graph) computeStats() types.GraphStats {
	degrees := 0
	for _, nb := range g.adj {
		degrees += len(nb)
	}

	avg := 0.0
	if n := len(g.entries); n > 0 {
		snippetDegrees := 0
		for _, e := range g.entries {
			snippetDegrees += len(g.adj[SnippetNode(e.snippet.ID)])
		}
		avg = math.Round(float64(snippetDegrees)/float64(n)*100) / 100
	}

	return types.GraphStats{
		Snippets:         len(g.entries),
		Keywords:         len(g.byKeyword),
		ResourceTypes:    len(g.byResource),
		Edges:            degrees / 2,
		AvgSnippetDegree: avg,
	}
}

// Stats returns the statistics computed at build time.
func (g *Graph) Stats() types.GraphStats { return g.stats }

// Len returns the number of snippets.
func (g *Graph) Len() int { return len(g.entries) }

// Snippet returns the snippet with the given id.
func (g *Graph) Snippet(id int) (types.Snippet, bool) {
	if id < 0 || id >= len(g.entries) {
		return types.Snippet{}, false
	}
	return g.entries[id].snippet, true
}

// Snippets returns all snippets in id order.
func (g *Graph) Snippets() []types.Snippet {
	out := make([]types.Snippet, len(g.entries))
	for i, e := range g.entries {
		out[i] = e.snippet
	}
	return out
}

// KeywordSet returns the keyword set of snippet id. Callers must not modify it.
func (g *Graph) KeywordSet(id int) tokenize.Set { return g.entries[id].keywords }

// ResourceSet returns the resource-type set of snippet id. Callers must not modify it.
func (g *Graph) ResourceSet(id int) tokenize.Set { return g.entries[id].resources }

// Neighbors returns the neighbor node ids of node, sorted.
func (g *Graph) Neighbors(node string) []string {
	return g.adj[node].Sorted()
}

// HasEdge reports whether nodes a and b are adjacent.
func (g *Graph) HasEdge(a, b string) bool {
	return g.adj[a].Has(b)
}

// Degree returns the number of neighbors of node.
func (g *Graph) Degree(node string) int { return len(g.adj[node]) }

// SnippetsForKeyword returns the ids of snippets linked to keyword, ascending.
func (g *Graph) SnippetsForKeyword(keyword string) []int {
	return g.byKeyword[keyword]
}

// SnippetsForResource returns the ids of snippets linked to resource, ascending.
func (g *Graph) SnippetsForResource(resource string) []int {
	return g.byResource[resource]
}

// Candidates returns the ids of snippets linked to any of the keywords or
// resources, ascending and without repeats.
func (g *Graph) Candidates(keywords, resources tokenize.Set) []int {
	seen := make(map[int]bool)
	for kw := range keywords {
		for _, id := range g.byKeyword[kw] {
			seen[id] = true
		}
	}
	for rt := range resources {
		for _, id := range g.byResource[rt] {
			seen[id] = true
		}
	}

	ids := make([]int, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Connected counts the keywords and resources that are direct neighbors of
// snippet id.
func (g *Graph) Connected(id int, keywords, resources tokenize.Set) int {
	nb := g.adj[SnippetNode(id)]
	if len(nb) == 0 {
		return 0
	}
	n := 0
	for kw := range keywords {
		if nb.Has(KeywordNode(kw)) {
			n++
		}
	}
	for rt := range resources {
		if nb.Has(ResourceNode(rt)) {
			n++
		}
	}
	return n
}
