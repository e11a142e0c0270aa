package bitstream_test

import (
	"bytes"
	"strings"

	"github.com/pkg/errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/fabgen/bitstream"
)

var _ = Describe("FASM", func() {
	It("should parse features, values and ranges", func() {
		in := `# placed design
X0Y0.A.OUT0
X0Y1.SRC.EN = 0 { module = "top" }
X0Y1.SRC.MODE[1:0] = 2'b10
X1Y1.SRC.MODE[1] = 1
X1Y1.LUT.INIT[7:4] = 4'hA

`
		got, err := bitstream.ParseFASM(strings.NewReader(in))
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal([]bitstream.Assignment{
			{Feature: "X0Y0.A.OUT0", Value: true},
			{Feature: "X0Y1.SRC.EN", Value: false},
			{Feature: "X0Y1.SRC.MODE[0]", Value: false},
			{Feature: "X0Y1.SRC.MODE[1]", Value: true},
			{Feature: "X1Y1.SRC.MODE[1]", Value: true},
			{Feature: "X1Y1.LUT.INIT[4]", Value: false},
			{Feature: "X1Y1.LUT.INIT[5]", Value: true},
			{Feature: "X1Y1.LUT.INIT[6]", Value: false},
			{Feature: "X1Y1.LUT.INIT[7]", Value: true},
		}))
	})

	It("should reject malformed lines", func() {
		for _, in := range []string{
			"A.B = 2",
			"A.B[0:1] = 1",
			"A.B[1:0] = 3'b111",
			"A.B = = 1",
		} {
			_, err := bitstream.ParseFASM(strings.NewReader(in))

			var fe *bitstream.FASMError
			Expect(errors.As(err, &fe)).To(BeTrue(), in)
			Expect(fe.Line).To(Equal(1))
		}
	})

	It("should write what it parses", func() {
		list := []bitstream.Assignment{
			{Feature: "X0Y0.A.OUT0", Value: true},
			{Feature: "X0Y1.SRC.MODE[1]", Value: false},
		}

		var buf bytes.Buffer
		Expect(bitstream.WriteFASM(&buf, list)).To(Succeed())

		back, err := bitstream.ParseFASM(&buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(back).To(Equal(list))
	})
})
