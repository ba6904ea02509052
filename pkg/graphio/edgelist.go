// Package graphio reads and writes graphs and partitions.
package graphio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/gilchrisn/ensemble-clustering/pkg/graph"
)

// ParseResult is a parsed graph together with the mapping between the labels
// used in the input and the dense node ids of the graph.
type ParseResult struct {
	Graph  *graph.Graph
	Labels []string       // node id -> original label
	Index  map[string]int // original label -> node id
}

type rawEdge struct {
	from, to string
	weight   float64
}

// ReadEdgeList parses a whitespace separated edge list. Each line is
// "from to [weight]"; empty lines and lines starting with '#' or '%' are
// skipped and weights default to 1. Labels are mapped to node ids in numeric
// order when all of them are integers and in lexical order otherwise.
func ReadEdgeList(r io.Reader, directed bool) (*ParseResult, error) {
	var edges []rawEdge
	labels := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "%") {
			continue
		}

		parts := strings.Fields(line)
		if len(parts) < 2 {
			return nil, fmt.Errorf("line %d: expected at least two fields, got %q", lineNo, line)
		}

		weight := graph.DefaultEdgeWeight
		if len(parts) >= 3 {
			w, err := strconv.ParseFloat(parts[2], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid weight %q: %w", lineNo, parts[2], err)
			}
			weight = w
		}

		edges = append(edges, rawEdge{from: parts[0], to: parts[1], weight: weight})
		labels[parts[0]] = true
		labels[parts[1]] = true
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading edge list: %w", err)
	}

	result := newParseResult(labels, directed)
	for i, e := range edges {
		if err := result.Graph.AddEdge(result.Index[e.from], result.Index[e.to], e.weight); err != nil {
			return nil, fmt.Errorf("edge %d (%s, %s): %w", i, e.from, e.to, err)
		}
	}
	return result, nil
}

// ReadEdgeListFile opens path and parses it with ReadEdgeList.
func ReadEdgeListFile(path string, directed bool) (*ParseResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()
	return ReadEdgeList(file, directed)
}

func newParseResult(labelSet map[string]bool, directed bool) *ParseResult {
	labels := make([]string, 0, len(labelSet))
	for label := range labelSet {
		labels = append(labels, label)
	}
	sortLabels(labels)

	index := make(map[string]int, len(labels))
	for i, label := range labels {
		index[label] = i
	}
	return &ParseResult{
		Graph:  graph.New(len(labels), directed),
		Labels: labels,
		Index:  index,
	}
}

// sortLabels sorts numerically if every label is an integer.
func sortLabels(labels []string) {
	numeric := make([]int64, len(labels))
	for i, label := range labels {
		n, err := strconv.ParseInt(label, 10, 64)
		if err != nil {
			sort.Strings(labels)
			return
		}
		numeric[i] = n
	}
	sort.Sort(byNumber{labels, numeric})
}

type byNumber struct {
	labels  []string
	numbers []int64
}

func (b byNumber) Len() int           { return len(b.labels) }
func (b byNumber) Less(i, j int) bool { return b.numbers[i] < b.numbers[j] }
func (b byNumber) Swap(i, j int) {
	b.labels[i], b.labels[j] = b.labels[j], b.labels[i]
	b.numbers[i], b.numbers[j] = b.numbers[j], b.numbers[i]
}

// WriteEdgeList writes every edge of g as "u v weight", one per line.
func WriteEdgeList(w io.Writer, g *graph.Graph) error {
	bw := bufio.NewWriter(w)
	var err error
	g.ForEdges(func(u, v int, weight float64) {
		if err == nil {
			_, err = fmt.Fprintf(bw, "%d %d %s\n", u, v, strconv.FormatFloat(weight, 'g', -1, 64))
		}
	})
	if err != nil {
		return err
	}
	return bw.Flush()
}

// WriteAdjacencyList writes one line per live node: the node id followed by
// the ids of its neighbors.
func WriteAdjacencyList(w io.Writer, g *graph.Graph) error {
	bw := bufio.NewWriter(w)
	for _, u := range g.Nodes() {
		if _, err := bw.WriteString(strconv.Itoa(u)); err != nil {
			return err
		}
		var err error
		g.ForNeighborsOf(u, func(v int, _ float64) {
			if err == nil {
				_, err = fmt.Fprintf(bw, " %d", v)
			}
		})
		if err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}
