// Package switchmatrix turns the connectivity declaration of a tile into
// the ordered list of multiplexers of its switch matrix.
package switchmatrix

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sarchlab/fabgen/fabric"
)

// A Route lists the candidate sources of one destination, in declaration
// order.
type Route struct {
	Dest    string
	Sources []string
}

// Connectivity is the ordered set of routes of a tile. The first time a
// destination appears fixes its position.
type Connectivity struct {
	routes []Route
	index  map[string]int
	pairs  map[[2]string]bool
}

// NewConnectivity creates an empty connectivity declaration.
func NewConnectivity() *Connectivity {
	return &Connectivity{
		index: make(map[string]int),
		pairs: make(map[[2]string]bool),
	}
}

// Add declares that src can drive dest. A repeated pair is kept once.
func (c *Connectivity) Add(dest, src string) {
	key := [2]string{dest, src}
	if c.pairs[key] {
		return
	}

	c.pairs[key] = true

	i, ok := c.index[dest]
	if !ok {
		i = len(c.routes)
		c.index[dest] = i
		c.routes = append(c.routes, Route{Dest: dest})
	}

	c.routes[i].Sources = append(c.routes[i].Sources, src)
}

// Routes returns a copy of the routes.
func (c *Connectivity) Routes() []Route {
	routes := make([]Route, len(c.routes))
	for i, r := range c.routes {
		routes[i] = Route{
			Dest:    r.Dest,
			Sources: append([]string(nil), r.Sources...),
		}
	}

	return routes
}

// Sources returns the sources of one destination.
func (c *Connectivity) Sources(dest string) []string {
	i, ok := c.index[dest]
	if !ok {
		return nil
	}

	return append([]string(nil), c.routes[i].Sources...)
}

// Parse reads a connectivity declaration, selecting the format by the
// file extension.
func Parse(path, tileName string) (*Connectivity, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".list":
		return ParseList(path)
	case ".csv":
		return ParseMatrixCSV(path, tileName)
	}

	return nil, fabric.NewModelError(path, "tile "+tileName,
		"unsupported matrix file type %s", filepath.Ext(path))
}

func readFields(path string, fn func(no int, fields []string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	no := 0
	for scanner.Scan() {
		no++

		text := scanner.Text()
		if i := strings.Index(text, "#"); i >= 0 {
			text = text[:i]
		}

		if strings.TrimSpace(text) == "" {
			continue
		}

		fields := strings.Split(text, ",")
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}

		if err := fn(no, fields); err != nil {
			return err
		}
	}

	return errors.Wrapf(scanner.Err(), "read %s", path)
}

// ParseList reads a .list file. Each line pairs a destination with a
// source; both sides may use [a|b] alternatives and {n} repetition, and the
// expanded sides are zipped. INCLUDE,<file> pulls in another list.
func ParseList(path string) (*Connectivity, error) {
	c := NewConnectivity()
	if err := parseListInto(c, path, 0); err != nil {
		return nil, err
	}

	return c, nil
}

const maxIncludeDepth = 16

func parseListInto(c *Connectivity, path string, depth int) error {
	if depth > maxIncludeDepth {
		return fabric.NewModelError(path, "list", "INCLUDE nested too deeply")
	}

	return readFields(path, func(no int, fields []string) error {
		src := path + ":" + strconv.Itoa(no)

		var nonEmpty []string
		for _, f := range fields {
			if f != "" {
				nonEmpty = append(nonEmpty, strings.ReplaceAll(f, " ", ""))
			}
		}

		if len(nonEmpty) != 2 {
			return fabric.NewModelError(src, "list",
				"expected destination,source but got %d fields", len(nonEmpty))
		}

		if nonEmpty[0] == "INCLUDE" {
			return parseListInto(c,
				filepath.Join(filepath.Dir(path), nonEmpty[1]), depth+1)
		}

		dests, err := expand(nonEmpty[0])
		if err != nil {
			return fabric.NewModelError(src, "list", "%v", err)
		}

		sources, err := expand(nonEmpty[1])
		if err != nil {
			return fabric.NewModelError(src, "list", "%v", err)
		}

		if len(dests) != len(sources) {
			return fabric.NewModelError(src, "list",
				"%d destinations but %d sources", len(dests), len(sources))
		}

		for i := range dests {
			c.Add(dests[i], sources[i])
		}

		return nil
	})
}

var multiplier = regexp.MustCompile(`\{(\d+)\}`)

// expand resolves the first [a|b|...] group recursively, then applies {n}
// repetition.
func expand(entry string) ([]string, error) {
	if strings.Count(entry, "[") != strings.Count(entry, "]") {
		return nil, errors.Errorf("mismatched brackets in %s", entry)
	}

	left := strings.Index(entry, "[")
	if left >= 0 {
		right := strings.Index(entry, "]")
		if right < left {
			return nil, errors.Errorf("mismatched brackets in %s", entry)
		}

		var out []string
		for _, alt := range strings.Split(entry[left+1:right], "|") {
			sub, err := expand(entry[:left] + alt + entry[right+1:])
			if err != nil {
				return nil, err
			}

			out = append(out, sub...)
		}

		return out, nil
	}

	count := 0
	for _, m := range multiplier.FindAllStringSubmatch(entry, -1) {
		n, _ := strconv.Atoi(m[1])
		count += n
	}

	if count == 0 {
		return []string{entry}, nil
	}

	name := multiplier.ReplaceAllString(entry, "")
	out := make([]string, count)
	for i := range out {
		out[i] = name
	}

	return out, nil
}

// ParseMatrixCSV reads an adjacency matrix. The top-left cell must be the
// tile name, the header row lists sources, each following row is a
// destination with 1 marking a connection.
func ParseMatrixCSV(path, tileName string) (*Connectivity, error) {
	c := NewConnectivity()

	var header []string

	err := readFields(path, func(no int, fields []string) error {
		src := path + ":" + strconv.Itoa(no)

		if header == nil {
			if fields[0] != tileName {
				return fabric.NewModelError(src, "tile "+tileName,
					"matrix belongs to tile %s", fields[0])
			}

			header = fields[1:]

			return nil
		}

		dest := fields[0]
		if dest == "" {
			return nil
		}

		cells := fields[1:]
		if len(cells) > len(header) {
			return fabric.NewModelError(src, "tile "+tileName,
				"row %s has more cells than the header", dest)
		}

		for i, cell := range cells {
			if cell == "1" {
				c.Add(dest, header[i])
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if header == nil {
		return nil, fabric.NewModelError(path, "tile "+tileName, "empty matrix")
	}

	return c, nil
}
