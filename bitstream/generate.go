package bitstream

import (
	"sort"

	"github.com/sarchlab/fabgen/util"
)

// An Assignment sets a feature, addressed as X<x>Y<y>.<feature>, to a
// value.
type Assignment struct {
	Feature string
	Value   bool
}

type write struct {
	value   bool
	feature string
}

// Generate rasterizes the assignments into an image. All writes are
// collected before any bit is set, so the result does not depend on the
// order of the assignments. On error no image is returned.
func Generate(spec *FabricSpec, assignments []Assignment) (*Image, error) {
	writes := make(map[int]write)

	var (
		unknown   []string
		outside   []*OutOfBoundsError
		conflicts []*ConflictError
	)

	for _, a := range assignments {
		x, y, name, ok := SplitFeature(a.Feature)
		if !ok {
			unknown = append(unknown, a.Feature)
			continue
		}

		ts := spec.TileAt(x, y)
		if ts == nil {
			outside = append(outside, &OutOfBoundsError{Feature: a.Feature, X: x, Y: y})
			continue
		}

		f, ok := ts.Feature(name)
		if !ok {
			unknown = append(unknown, a.Feature)
			continue
		}

		for _, b := range f.Bits {
			addr := spec.Address(x, y, b.Frame, b.Bit)
			w := write{value: b.Value && a.Value, feature: a.Feature}

			prev, seen := writes[addr]
			if !seen {
				writes[addr] = w
				continue
			}

			if prev.value != w.value {
				pair := [2]string{prev.feature, w.feature}
				if pair[1] < pair[0] {
					pair[0], pair[1] = pair[1], pair[0]
				}

				conflicts = append(conflicts, &ConflictError{Address: addr, Features: pair})
			}
		}
	}

	if len(outside) > 0 {
		sort.Slice(outside, func(i, j int) bool {
			return outside[i].Feature < outside[j].Feature
		})

		return nil, outside[0]
	}

	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, &UnknownFeatureError{Feature: unknown[0]}
	}

	if len(conflicts) > 0 {
		sort.Slice(conflicts, func(i, j int) bool {
			if conflicts[i].Address != conflicts[j].Address {
				return conflicts[i].Address < conflicts[j].Address
			}

			return conflicts[i].Features[0] < conflicts[j].Features[0]
		})

		return nil, conflicts[0]
	}

	img := defaultImage(spec)
	for addr, w := range writes {
		img.SetBit(addr, w.value)
	}

	util.Trace("Bitstream generated",
		"assignments", len(assignments), "bits", len(writes))

	return img, nil
}

// defaultImage is the image of an unconfigured fabric.
func defaultImage(spec *FabricSpec) *Image {
	img := NewImage(spec.Size())

	for y := 0; y < spec.Rows; y++ {
		for x := 0; x < spec.Cols; x++ {
			ts := spec.TileAt(x, y)
			if ts == nil {
				continue
			}

			for _, d := range ts.Defaults {
				img.SetBit(spec.Address(x, y, d.Frame, d.Bit), true)
			}
		}
	}

	return img
}

// DecodeOptions filter the result of Decode.
type DecodeOptions struct {
	// SetOnly drops features that are not selected.
	SetOnly bool
	// NonDefault drops features whose value equals the unconfigured fabric.
	NonDefault bool
}

// Decode reads back every feature that owns at least one bit. A feature is
// selected when all of its bits hold the values it requires. Features are
// listed in row-major tile order, then in spec order.
func Decode(spec *FabricSpec, img *Image, opts DecodeOptions) []Assignment {
	var (
		result []Assignment
		def    *Image
	)

	if opts.NonDefault {
		def = defaultImage(spec)
	}

	selected := func(im *Image, x, y int, f Feature) bool {
		for _, b := range f.Bits {
			if im.Bit(spec.Address(x, y, b.Frame, b.Bit)) != b.Value {
				return false
			}
		}

		return true
	}

	for y := 0; y < spec.Rows; y++ {
		for x := 0; x < spec.Cols; x++ {
			ts := spec.TileAt(x, y)
			if ts == nil {
				continue
			}

			for _, f := range ts.Features {
				if len(f.Bits) == 0 {
					continue
				}

				v := selected(img, x, y, f)
				if opts.SetOnly && !v {
					continue
				}

				if def != nil && selected(def, x, y, f) == v {
					continue
				}

				result = append(result, Assignment{
					Feature: InstanceName(x, y) + "." + f.Name,
					Value:   v,
				})
			}
		}
	}

	return result
}
