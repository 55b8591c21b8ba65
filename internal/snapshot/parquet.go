package snapshot

import (
	"fmt"
	"time"

	"github.com/parquet-go/parquet-go"
)

// AddressRecord is the Parquet schema for the optional columnar export of a
// merge run. Downstream analytics read this instead of reparsing the text
// output.
type AddressRecord struct {
	Address    string `parquet:"address"`
	CapturedAt int64  `parquet:"captured_at,timestamp(millisecond)"` // Unix ms
}

// writeParquet writes the merged address list as a Parquet file. The rows
// carry the capture timestamp of the merge run.
func writeParquet(path string, addresses []string, captured time.Time) error {
	records := make([]AddressRecord, len(addresses))
	ms := captured.UnixMilli()
	for i, addr := range addresses {
		records[i] = AddressRecord{Address: addr, CapturedAt: ms}
	}

	if err := parquet.WriteFile(path, records); err != nil {
		return fmt.Errorf("writing parquet export: %w", err)
	}
	return nil
}
