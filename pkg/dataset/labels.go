package dataset

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/menta2k/yolo-auditor/pkg/types"
)

// FieldsPerLine is the token count of a well-formed label line:
// class cx cy w h.
const FieldsPerLine = 5

// maxLineSize caps a single label line. Longer lines are reported as line
// errors with only their first rawPreview bytes kept.
const (
	maxLineSize = 1024 * 1024
	rawPreview  = 80
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseLabelFile reads a YOLO label file.
//
// Blank lines are skipped. Every other line must hold exactly five
// whitespace-separated tokens; lines that don't, or whose tokens fail numeric
// parsing, are collected as line errors and do not stop the remaining lines.
// An absent file yields Exists=false; any other read failure sets Err.
func ParseLabelFile(path string) types.LabelFile {
	lf := types.LabelFile{Path: path, Annotations: []types.Annotation{}}

	f, err := os.Open(path)
	if err != nil {
		if !os.IsNotExist(err) {
			lf.Exists = true
		}
		lf.Err = err.Error()
		return lf
	}
	defer f.Close()
	lf.Exists = true

	r := bufio.NewReader(f)
	lineNo := 0
	for {
		raw, tooLong, err := readLine(r)
		if err != nil && err != io.EOF {
			lf.Err = fmt.Sprintf("read after line %d: %v", lineNo, err)
			break
		}
		if err == io.EOF && len(raw) == 0 {
			break
		}
		lineNo++
		if lineNo == 1 {
			raw = bytes.TrimPrefix(raw, utf8BOM)
		}
		line := strings.TrimRight(string(raw), "\r")

		if tooLong {
			lf.Errors = append(lf.Errors, types.LineError{
				Line:   lineNo,
				Raw:    line + "...",
				Reason: fmt.Sprintf("line exceeds %d bytes", maxLineSize),
			})
		} else if strings.TrimSpace(line) != "" {
			ann, perr := ParseLabelLine(line)
			if perr != nil {
				lf.Errors = append(lf.Errors, types.LineError{
					Line:   lineNo,
					Raw:    line,
					Reason: perr.Error(),
				})
			} else {
				ann.Line = lineNo
				lf.Annotations = append(lf.Annotations, ann)
			}
		}

		if err == io.EOF {
			break
		}
	}

	return lf
}

// readLine returns the next line without its newline. A line longer than
// maxLineSize is consumed to its end but truncated to rawPreview bytes, and
// tooLong is set. err is io.EOF when the input ends, possibly alongside a
// final unterminated line.
func readLine(r *bufio.Reader) (line []byte, tooLong bool, err error) {
	for {
		chunk, rerr := r.ReadSlice('\n')
		if rerr == nil {
			chunk = chunk[:len(chunk)-1]
		}
		if !tooLong {
			line = append(line, chunk...)
			if len(line) > maxLineSize {
				tooLong = true
				line = line[:rawPreview]
			}
		}
		if rerr != bufio.ErrBufferFull {
			return line, tooLong, rerr
		}
	}
}

// ParseLabelLine parses "<class> <cx> <cy> <w> <h>".
func ParseLabelLine(line string) (types.Annotation, error) {
	fields := strings.Fields(line)
	if len(fields) != FieldsPerLine {
		return types.Annotation{}, fmt.Errorf("expected %d fields, got %d", FieldsPerLine, len(fields))
	}

	class, err := strconv.Atoi(fields[0])
	if err != nil {
		return types.Annotation{}, fmt.Errorf("invalid class index %q", fields[0])
	}
	if class < 0 {
		return types.Annotation{}, fmt.Errorf("negative class index %d", class)
	}

	var v [4]float64
	for i := range v {
		v[i], err = strconv.ParseFloat(fields[i+1], 64)
		if err != nil || math.IsNaN(v[i]) || math.IsInf(v[i], 0) {
			return types.Annotation{}, fmt.Errorf("invalid coordinate %q", fields[i+1])
		}
	}

	return types.Annotation{
		Class: class,
		Box:   types.Box{CX: v[0], CY: v[1], W: v[2], H: v[3]},
	}, nil
}
