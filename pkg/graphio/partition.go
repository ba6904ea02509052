package graphio

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gilchrisn/ensemble-clustering/pkg/partition"
)

// WritePartition writes the cluster id of every node id, one per line.
// Unassigned entries are written as -1.
func WritePartition(w io.Writer, p *partition.Partition) error {
	bw := bufio.NewWriter(w)
	for _, c := range p.Slice() {
		if _, err := fmt.Fprintln(bw, c); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadPartition reads a partition written by WritePartition.
func ReadPartition(r io.Reader) (*partition.Partition, error) {
	var data []int
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		c, err := strconv.Atoi(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid cluster id %q: %w", lineNo, line, err)
		}
		if c < partition.None {
			return nil, fmt.Errorf("line %d: negative cluster id %d", lineNo, c)
		}
		data = append(data, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading partition: %w", err)
	}
	return partition.FromSlice(data), nil
}
