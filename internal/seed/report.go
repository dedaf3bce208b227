package seed

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/okian/trendrank/internal/domain/types"
)

// WriteBoard prints the first top topics of b as a table.
func WriteBoard(w io.Writer, b types.Board, top int) error {
	if top <= 0 {
		top = defaultTopShown
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "RANK\tTOPIC\tSCORE\tBONUS\tAUTHORS\tACTIVE\tSIGNAL\n")
	for _, t := range b.Topics {
		if t.Rank > top {
			break
		}
		fmt.Fprintf(tw, "%d\t%s\t%.1f\t%.1f\t%d\t%s\t%s\n",
			t.Rank, t.TopicName, t.FinalTrendScore, t.EarlySignalerBonus,
			t.TotalUniqueAuthors, t.TimeActive, t.SignalReason)
	}
	return tw.Flush()
}

// WriteStats prints a run summary.
func WriteStats(w io.Writer, s *Stats) {
	fmt.Fprintf(w, "batches: %d  authors: %d  topics created: %d  topics updated: %d  posts: %d  took: %s\n",
		s.Batches, s.Authors, s.TopicsCreated, s.TopicsUpdated, s.Posts, s.Duration.Round(time.Millisecond))
}

// SaveBoard writes b as indented JSON to path, creating parent directories.
func SaveBoard(path string, b types.Board) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPerm); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("encode board: %w", err)
	}
	if err := os.WriteFile(path, data, outputFilePerm); err != nil {
		return fmt.Errorf("write board: %w", err)
	}
	return nil
}
