package taskreport

import (
	"fmt"
	"strings"
)

// Format is the on-disk encoding of a report file.
type Format string

const (
	JSONL    Format = "jsonl"
	JSONLGz  Format = "jsonl.gz"
	JSONLZst Format = "jsonl.zst"
)

var formatToString = map[Format]string{
	JSONL:    "jsonl",
	JSONLGz:  "jsonl.gz",
	JSONLZst: "jsonl.zst",
}

func (f Format) String() string {
	if str, ok := formatToString[f]; ok {
		return str
	}
	return fmt.Sprintf("unknown_report_format(%s)", string(f))
}

// FormatForPath picks the format from the file suffix: ".gz" and ".zst"
// select compression, anything else is plain JSON lines.
func FormatForPath(path string) Format {
	switch lower := strings.ToLower(path); {
	case strings.HasSuffix(lower, ".gz"):
		return JSONLGz
	case strings.HasSuffix(lower, ".zst"):
		return JSONLZst
	default:
		return JSONL
	}
}
