package arena

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
	"github.com/samber/lo"
)

// Row is one archived game. Moves and TurnMicros are parallel.
type Row struct {
	GameID     string  `parquet:"game_id"`
	Index      int32   `parquet:"index"`
	First      string  `parquet:"first,dict"`
	Second     string  `parquet:"second,dict"`
	Winner     string  `parquet:"winner,dict"`
	Reason     string  `parquet:"reason,dict"`
	Moves      []int32 `parquet:"moves"`
	TurnMicros []int64 `parquet:"turn_micros"`
	Overruns   int32   `parquet:"overruns"`
	Board      string  `parquet:"board,zstd"`
}

func toRow(i int, r *Result) Row {
	return Row{
		GameID: r.ID,
		Index:  int32(i),
		First:  r.First,
		Second: r.Second,
		Winner: r.Winner,
		Reason: string(r.Reason),
		Moves: lo.Map(r.Turns, func(t Turn, _ int) int32 {
			return int32(t.Column)
		}),
		TurnMicros: lo.Map(r.Turns, func(t Turn, _ int) int64 {
			return t.Elapsed.Microseconds()
		}),
		Overruns: int32(r.Overruns()),
		Board:    r.Board.String(),
	}
}

// WriteParquet archives results to outPath. The file is written next to
// its destination and renamed into place.
func WriteParquet(outPath string, results []*Result) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	rows := make([]Row, len(results))
	for i, r := range results {
		rows[i] = toRow(i, r)
	}

	tmpPath := outPath + ".tmp"
	_ = os.Remove(tmpPath)
	if err := parquet.WriteFile(tmpPath, rows,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", "arena_game_v1"),
	); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write parquet: %w", err)
	}
	if err := os.Rename(tmpPath, outPath); err != nil {
		return fmt.Errorf("rename parquet: %w", err)
	}
	return nil
}

func ReadParquet(path string) ([]Row, error) {
	rows, err := parquet.ReadFile[Row](path)
	if err != nil {
		return nil, fmt.Errorf("read parquet %s: %w", path, err)
	}
	return rows, nil
}
