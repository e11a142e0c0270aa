package flow

import (
	"context"
	"os/exec"

	gomock "github.com/golang/mock/gomock"
	"github.com/pkg/errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/fabgen/bitstream"
	"github.com/sarchlab/fabgen/compiler"
	"github.com/sarchlab/fabgen/fabric"
)

var _ = Describe("Run", func() {
	var (
		mockCtrl *gomock.Controller
		impl     *MockImplementer
		spec     *bitstream.FabricSpec
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		impl = NewMockImplementer(mockCtrl)

		f, err := fabric.Load("../fabric/testdata/fabric.csv")
		Expect(err).NotTo(HaveOccurred())

		r, err := compiler.Compile(context.Background(), f, compiler.Options{})
		Expect(err).NotTo(HaveOccurred())

		spec = r.Spec
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should rasterize the features returned by the tool", func() {
		impl.EXPECT().
			Implement(gomock.Any(), "blinky.json", spec).
			Return([]byte("X0Y1.LA.INIT[3:0] = 4'b1010\nX2Y0.IOB.PULLUP\n"), nil)

		out, err := Run(context.Background(), impl, spec, "blinky.json")
		Expect(err).NotTo(HaveOccurred())

		Expect(out.Assignments).To(HaveLen(5))
		Expect(out.Image.Size()).To(Equal(spec.Size()))

		decoded := bitstream.Decode(spec, out.Image,
			bitstream.DecodeOptions{SetOnly: true})
		Expect(decoded).To(ContainElement(
			bitstream.Assignment{Feature: "X0Y1.LA.INIT[1]", Value: true}))
		Expect(decoded).NotTo(ContainElement(
			bitstream.Assignment{Feature: "X0Y1.LA.INIT[0]", Value: true}))
	})

	It("should report tool failures", func() {
		impl.EXPECT().
			Implement(gomock.Any(), "broken.json", spec).
			Return(nil, errors.New("no placement"))

		_, err := Run(context.Background(), impl, spec, "broken.json")
		Expect(err).To(MatchError(ContainSubstring("no placement")))
	})

	It("should reject unknown features", func() {
		impl.EXPECT().
			Implement(gomock.Any(), gomock.Any(), spec).
			Return([]byte("X0Y1.NOPE\n"), nil)

		_, err := Run(context.Background(), impl, spec, "d.json")

		var unknown *bitstream.UnknownFeatureError
		Expect(errors.As(err, &unknown)).To(BeTrue())
	})

	It("should run an external command", func() {
		if _, err := exec.LookPath("echo"); err != nil {
			Skip("echo is not available")
		}

		cmd := Command{Name: "echo", Args: []string{"X2Y1.IOB.PULLUP", "#", DesignPlaceholder}}

		out, err := Run(context.Background(), cmd, spec, "top.json")
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Assignments).To(Equal([]bitstream.Assignment{
			{Feature: "X2Y1.IOB.PULLUP", Value: true},
		}))
	})
})
