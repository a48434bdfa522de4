package cli

import (
	"bufio"
	"io"
)

// lineReader hands out input lines one at a time.
type lineReader interface {
	next() (string, bool)
}

type scannerReader struct {
	sc *bufio.Scanner
}

func newLineReader(r io.Reader) *scannerReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	return &scannerReader{sc: sc}
}

func (r *scannerReader) next() (string, bool) {
	if !r.sc.Scan() {
		return "", false
	}
	return r.sc.Text(), true
}
