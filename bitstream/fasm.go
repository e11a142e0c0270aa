package bitstream

import (
	"bufio"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// A FASMError reports a malformed FASM line.
type FASMError struct {
	Line   int
	Reason string
}

func (e *FASMError) Error() string {
	return "fasm line " + strconv.Itoa(e.Line) + ": " + e.Reason
}

var (
	fasmLine = regexp.MustCompile(
		`^([^\s\[\]={}]+)(?:\[(\d+)(?::(\d+))?\])?(?:\s*=\s*([0-9_]*'[bBhHdDoO][0-9a-fA-F_]+|[0-9_]+))?$`)
	annotation = regexp.MustCompile(`\{[^}]*\}`)
)

// ParseFASM reads a FASM feature list. FEATURE sets a bit, FEATURE = v
// sets it to v, and FEATURE[hi:lo] = N'b... sets each indexed feature to
// its bit of the value. Comments and annotations are skipped.
func ParseFASM(r io.Reader) ([]Assignment, error) {
	var result []Assignment

	scanner := bufio.NewScanner(r)
	no := 0
	for scanner.Scan() {
		no++

		text := scanner.Text()
		if i := strings.Index(text, "#"); i >= 0 {
			text = text[:i]
		}

		text = strings.TrimSpace(annotation.ReplaceAllString(text, ""))
		if text == "" {
			continue
		}

		m := fasmLine.FindStringSubmatch(text)
		if m == nil {
			return nil, &FASMError{Line: no, Reason: "cannot parse " + strconv.Quote(text)}
		}

		value := uint64(1)
		if m[4] != "" {
			v, err := parseVerilogValue(m[4])
			if err != nil {
				return nil, &FASMError{Line: no, Reason: err.Error()}
			}

			value = v
		}

		if m[2] == "" {
			if value > 1 {
				return nil, &FASMError{Line: no,
					Reason: "value " + m[4] + " needs an address range"}
			}

			result = append(result, Assignment{Feature: m[1], Value: value == 1})

			continue
		}

		hi, _ := strconv.Atoi(m[2])
		lo := hi
		if m[3] != "" {
			lo, _ = strconv.Atoi(m[3])
		}

		if lo > hi {
			return nil, &FASMError{Line: no, Reason: "ascending address range"}
		}

		if hi-lo >= 64 {
			return nil, &FASMError{Line: no, Reason: "address range wider than 64 bits"}
		}

		if hi-lo < 63 && value>>uint(hi-lo+1) != 0 {
			return nil, &FASMError{Line: no, Reason: "value does not fit the address range"}
		}

		for i := lo; i <= hi; i++ {
			result = append(result, Assignment{
				Feature: m[1] + "[" + strconv.Itoa(i) + "]",
				Value:   value>>uint(i-lo)&1 == 1,
			})
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "read fasm")
	}

	return result, nil
}

func parseVerilogValue(s string) (uint64, error) {
	s = strings.ReplaceAll(s, "_", "")

	width, rest, sized := strings.Cut(s, "'")
	if !sized {
		return strconv.ParseUint(s, 10, 64)
	}

	if rest == "" {
		return 0, errors.Errorf("invalid literal %s", s)
	}

	base := 10
	switch rest[0] {
	case 'b', 'B':
		base = 2
	case 'h', 'H':
		base = 16
	case 'o', 'O':
		base = 8
	}

	v, err := strconv.ParseUint(rest[1:], base, 64)
	if err != nil {
		return 0, errors.Errorf("invalid literal %s", s)
	}

	if width != "" {
		n, err := strconv.Atoi(width)
		if err != nil {
			return 0, errors.Errorf("invalid literal width %s", s)
		}

		if n < 64 && v>>uint(n) != 0 {
			return 0, errors.Errorf("literal %s does not fit into %d bits", s, n)
		}
	}

	return v, nil
}

// WriteFASM writes assignments as a FASM feature list, one per line.
// Cleared features are written with an explicit value.
func WriteFASM(w io.Writer, assignments []Assignment) error {
	bw := bufio.NewWriter(w)

	for _, a := range assignments {
		line := a.Feature
		if !a.Value {
			line += " = 0"
		}

		if _, err := bw.WriteString(line + "\n"); err != nil {
			return errors.Wrap(err, "write fasm")
		}
	}

	return errors.Wrap(bw.Flush(), "write fasm")
}
