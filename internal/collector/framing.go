package collector

import (
	"bufio"
	"bytes"
	"io"
)

// recordMarker closes every powermetrics record.
var recordMarker = []byte("</plist>")

// separators are the bytes powermetrics writes between records: the line
// break after the marker and a single NUL terminator.
const separators = "\x00\r\n\t "

// MaxRecordSize bounds a single record. When this many bytes arrive without
// a marker they are returned as one record, which fails to decode and gets
// dumped, and reading resumes at the next marker.
const MaxRecordSize = 64 << 20

// RecordReader splits a powermetrics plist stream into records. A record is
// returned as soon as its closing marker has been read; the reader never
// waits for the stream to end.
type RecordReader struct {
	scanner *bufio.Scanner
}

// NewRecordReader wraps r.
func NewRecordReader(r io.Reader) *RecordReader {
	return newRecordReaderSize(r, MaxRecordSize)
}

func newRecordReaderSize(r io.Reader, limit int) *RecordReader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, min(64*1024, limit)), limit)
	s.Split(splitRecords(limit))
	return &RecordReader{scanner: s}
}

// Next returns the next record, or io.EOF once the stream is exhausted. The
// returned slice is owned by the caller.
func (r *RecordReader) Next() ([]byte, error) {
	if r.scanner.Scan() {
		return bytes.Clone(r.scanner.Bytes()), nil
	}
	if err := r.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// splitRecords returns a bufio.SplitFunc. Separator bytes left over from the
// previous record are dropped first, then the buffer is searched for the
// marker. An unterminated fragment at EOF, or one that reaches limit bytes, is
// returned as a record of its own so the caller can report it.
func splitRecords(limit int) bufio.SplitFunc {
	return func(data []byte, atEOF bool) (advance int, token []byte, err error) {
		start := len(data) - len(bytes.TrimLeft(data, separators))

		if i := bytes.Index(data[start:], recordMarker); i >= 0 {
			end := start + i + len(recordMarker)
			return end, data[start:end], nil
		}

		if atEOF {
			if start == len(data) {
				return len(data), nil, nil
			}
			return len(data), data[start:], nil
		}

		if len(data) >= limit && start < len(data) {
			return len(data), data[start:], nil
		}

		// Drop separators now and wait for more data.
		return start, nil, nil
	}
}
