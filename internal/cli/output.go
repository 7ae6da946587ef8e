package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
)

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// megabytes renders a size given in MB.
func megabytes(mb int32) string {
	return humanize.IBytes(uint64(mb) * 1024 * 1024)
}

// since renders a BBS timestamp in nanoseconds as a relative time.
func since(nanos int64) string {
	if nanos == 0 {
		return "-"
	}
	return humanize.Time(time.Unix(0, nanos))
}
