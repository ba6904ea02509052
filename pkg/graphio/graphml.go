package graphio

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gilchrisn/ensemble-clustering/pkg/graph"
)

const graphMLNamespace = "http://graphml.graphdrawing.org/xmlns"

type graphMLDocument struct {
	XMLName xml.Name     `xml:"graphml"`
	Xmlns   string       `xml:"xmlns,attr,omitempty"`
	Keys    []graphMLKey `xml:"key"`
	Graph   graphMLGraph `xml:"graph"`
}

type graphMLKey struct {
	ID       string `xml:"id,attr"`
	For      string `xml:"for,attr"`
	AttrName string `xml:"attr.name,attr"`
	AttrType string `xml:"attr.type,attr"`
}

type graphMLGraph struct {
	ID          string        `xml:"id,attr,omitempty"`
	EdgeDefault string        `xml:"edgedefault,attr"`
	Nodes       []graphMLNode `xml:"node"`
	Edges       []graphMLEdge `xml:"edge"`
}

type graphMLNode struct {
	ID string `xml:"id,attr"`
}

type graphMLEdge struct {
	ID     string        `xml:"id,attr,omitempty"`
	Source string        `xml:"source,attr"`
	Target string        `xml:"target,attr"`
	Data   []graphMLData `xml:"data"`
}

type graphMLData struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

// ReadGraphML parses a GraphML document. Nodes get ids in document order.
// The graph is directed when edgedefault is "directed". Edge weights are
// read from the edge key with attr.name "weight" and type double or float;
// edges without a weight get weight 1.
func ReadGraphML(r io.Reader) (*ParseResult, error) {
	var doc graphMLDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode GraphML: %w", err)
	}

	weightKey := ""
	for _, k := range doc.Keys {
		if k.For == "edge" && k.AttrName == "weight" && (k.AttrType == "double" || k.AttrType == "float") {
			weightKey = k.ID
		}
	}

	directed := doc.Graph.EdgeDefault == "directed"
	result := &ParseResult{
		Graph:  graph.New(0, directed),
		Labels: make([]string, 0, len(doc.Graph.Nodes)),
		Index:  make(map[string]int, len(doc.Graph.Nodes)),
	}
	for _, n := range doc.Graph.Nodes {
		if _, dup := result.Index[n.ID]; dup {
			return nil, fmt.Errorf("duplicate node id %q", n.ID)
		}
		result.Index[n.ID] = result.Graph.AddNode()
		result.Labels = append(result.Labels, n.ID)
	}

	for i, e := range doc.Graph.Edges {
		u, ok := result.Index[e.Source]
		if !ok {
			return nil, fmt.Errorf("edge %d: unknown source node %q", i, e.Source)
		}
		v, ok := result.Index[e.Target]
		if !ok {
			return nil, fmt.Errorf("edge %d: unknown target node %q", i, e.Target)
		}

		weight := graph.DefaultEdgeWeight
		for _, d := range e.Data {
			if weightKey != "" && d.Key == weightKey {
				w, err := strconv.ParseFloat(strings.TrimSpace(d.Value), 64)
				if err != nil {
					return nil, fmt.Errorf("edge %d: invalid weight %q: %w", i, d.Value, err)
				}
				weight = w
			}
		}
		if err := result.Graph.AddEdge(u, v, weight); err != nil {
			return nil, fmt.Errorf("edge %d: %w", i, err)
		}
	}

	return result, nil
}

// WriteGraphML writes g as a GraphML document with a double "weight" edge
// key. Node ids are written as their integer ids.
func WriteGraphML(w io.Writer, g *graph.Graph, name string) error {
	doc := graphMLDocument{
		Xmlns: graphMLNamespace,
		Keys: []graphMLKey{
			{ID: "d1", For: "edge", AttrName: "weight", AttrType: "double"},
		},
		Graph: graphMLGraph{
			ID:          name,
			EdgeDefault: "undirected",
		},
	}
	if g.IsDirected() {
		doc.Graph.EdgeDefault = "directed"
	}

	g.ForNodes(func(u int) {
		doc.Graph.Nodes = append(doc.Graph.Nodes, graphMLNode{ID: strconv.Itoa(u)})
	})
	g.ForEdges(func(u, v int, weight float64) {
		doc.Graph.Edges = append(doc.Graph.Edges, graphMLEdge{
			ID:     "e" + strconv.Itoa(len(doc.Graph.Edges)),
			Source: strconv.Itoa(u),
			Target: strconv.Itoa(v),
			Data:   []graphMLData{{Key: "d1", Value: strconv.FormatFloat(weight, 'g', -1, 64)}},
		})
	})

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode GraphML: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}
