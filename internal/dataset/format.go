package dataset

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// WriteIndices writes idx as a single comma-separated line.
func WriteIndices(w io.Writer, idx []int) error {
	parts := make([]string, len(idx))
	for i, v := range idx {
		parts[i] = strconv.Itoa(v)
	}
	_, err := io.WriteString(w, strings.Join(parts, ",")+"\n")
	return err
}

// WriteCentroids writes one comma-separated line per row with four decimals.
func WriteCentroids(w io.Writer, rows [][]float64) error {
	bw := bufio.NewWriter(w)
	for _, row := range rows {
		for j, v := range row {
			if j > 0 {
				bw.WriteByte(',')
			}
			bw.WriteString(strconv.FormatFloat(v, 'f', 4, 64))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}
