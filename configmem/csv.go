package configmem

import (
	"encoding/csv"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sarchlab/fabgen/fabric"
)

var header = []string{
	"frame_name",
	"frame_index",
	"bits_used_in_frame",
	"used_bits_mask",
	"frame_bits",
	"config_bits",
	"owner",
}

const metaMarker = "#meta"

// WriteCSV writes the table with one row per entry followed by its meta
// rows.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(header); err != nil {
		return errors.Wrap(err, "write configmem header")
	}

	for _, e := range t.Entries {
		row := []string{
			frameName(e.Frame),
			strconv.Itoa(e.Frame),
			strconv.Itoa(t.FrameUsage(e.Frame)),
			t.UsedMask(e.Frame),
			formatRange(e.Bit, e.Width),
			formatRange(e.Logical, e.Width),
			e.Owner,
		}

		if err := cw.Write(row); err != nil {
			return errors.Wrap(err, "write configmem row")
		}
	}

	for _, m := range t.Meta {
		if err := cw.Write([]string{metaMarker, m.Key, m.Value}); err != nil {
			return errors.Wrap(err, "write configmem meta")
		}
	}

	cw.Flush()

	return errors.Wrap(cw.Error(), "flush configmem")
}

// ReadCSV reads a table written by WriteCSV, or provided by the user, and
// validates it against the layout of the fabric.
func ReadCSV(r io.Reader, layout fabric.Layout) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "read configmem")
	}

	if len(records) == 0 || records[0][0] != header[0] {
		return nil, errors.New("configmem table has no header")
	}

	t := &Table{Layout: layout}

	for i, rec := range records[1:] {
		if rec[0] == metaMarker {
			if len(rec) < 3 {
				return nil, errors.Errorf("row %d: short meta row", i+2)
			}

			t.Meta = append(t.Meta, Meta{Key: rec[1], Value: rec[2]})

			continue
		}

		if len(rec) < len(header) {
			return nil, errors.Errorf("row %d: expected %d columns, got %d",
				i+2, len(header), len(rec))
		}

		e, err := parseEntry(rec)
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", i+2)
		}

		t.Entries = append(t.Entries, e)
	}

	if err := t.applyMeta(); err != nil {
		return nil, err
	}

	sort.SliceStable(t.Entries, func(i, j int) bool {
		return t.Entries[i].Logical < t.Entries[j].Logical
	})

	for _, e := range t.Entries {
		t.TotalBits += e.Width
		if e.Frame+1 > t.Frames {
			t.Frames = e.Frame + 1
		}
	}

	if v, ok := t.MetaValue(MetaFrames); ok {
		if n, err := strconv.Atoi(v); err == nil && n > t.Frames {
			t.Frames = n
		}
	}

	if t.Frames > layout.MaxFramesPerCol && !t.NonDefault() {
		return nil, &CapacityError{
			Tile:     t.Tile,
			Required: t.Frames * layout.FrameBitsPerRow,
			Capacity: layout.TileBits(),
			Overflow: (t.Frames - layout.MaxFramesPerCol) * layout.FrameBitsPerRow,
		}
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}

	return t, nil
}

func (t *Table) applyMeta() error {
	if v, ok := t.MetaValue(MetaTile); ok {
		t.Tile = v
	}

	if v, ok := t.MetaValue(MetaFrameBits); ok {
		if v != strconv.Itoa(t.Layout.FrameBitsPerRow) {
			return errors.Errorf("configmem of %s was built for %s bit frames, fabric uses %d",
				t.Tile, v, t.Layout.FrameBitsPerRow)
		}
	}

	if v, ok := t.MetaValue(MetaTotalBits); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Errorf("invalid %s %q", MetaTotalBits, v)
		}

		sum := 0
		for _, e := range t.Entries {
			sum += e.Width
		}

		if n != sum {
			return errors.Errorf("configmem of %s declares %d bits but maps %d",
				t.Tile, n, sum)
		}
	}

	return nil
}

func parseEntry(rec []string) (Entry, error) {
	frame, err := strconv.Atoi(rec[1])
	if err != nil {
		return Entry{}, errors.Errorf("invalid frame index %q", rec[1])
	}

	bit, width, err := parseRange(strings.TrimSpace(rec[4]))
	if err != nil {
		return Entry{}, errors.Errorf("invalid frame bits %q", rec[4])
	}

	logical, lwidth, err := parseRange(strings.TrimSpace(rec[5]))
	if err != nil {
		return Entry{}, errors.Errorf("invalid config bits %q", rec[5])
	}

	if width != lwidth {
		return Entry{}, errors.Errorf("frame bits %s and config bits %s differ in width",
			rec[4], rec[5])
	}

	return Entry{
		Frame:   frame,
		Bit:     bit,
		Logical: logical,
		Width:   width,
		Owner:   rec[6],
	}, nil
}
