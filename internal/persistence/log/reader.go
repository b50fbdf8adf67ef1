package log

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// ListFiles returns dir's <prefix>-*.jsonl.zst files in write order.
func ListFiles(dir, prefix string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, prefix+"-") && strings.HasSuffix(name, ".jsonl.zst") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, filepath.Join(dir, name))
	}
	return out, nil
}

// Segment parses the segment number out of a <prefix>-<segment>.jsonl.zst path.
func Segment(path, prefix string) (int64, bool) {
	name := filepath.Base(path)
	if !strings.HasPrefix(name, prefix+"-") || !strings.HasSuffix(name, ".jsonl.zst") {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.TrimSuffix(strings.TrimPrefix(name, prefix+"-"), ".jsonl.zst"), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// StepFilesFrom drops the leading step files that end before step. files
// must be sorted as ListFiles returns them.
func StepFilesFrom(files []string, step int) []string {
	first := 0
	for i, f := range files {
		seg, ok := Segment(f, StepPrefix)
		if !ok || seg > int64(step) {
			break
		}
		first = i
	}
	return files[first:]
}

// ReadJSONL calls fn for every line of a compressed JSONL file. The line is
// only valid until fn returns.
func ReadJSONL(path string, fn func(line []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)
	n := 0
	for sc.Scan() {
		n++
		if err := fn(sc.Bytes()); err != nil {
			return fmt.Errorf("%s:%d: %w", filepath.Base(path), n, err)
		}
	}
	return sc.Err()
}
