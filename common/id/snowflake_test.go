package id_test

import (
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"samilabs.app/pulse/common/id"
)

var _ = Describe("New", func() {
	BeforeEach(func() {
		Expect(id.Init(3)).To(Succeed())
	})

	It("returns unique increasing ids", func() {
		seen := make(map[int64]struct{})
		prev := int64(0)
		for range 1000 {
			v := id.New()
			Expect(v).To(BeNumerically(">", prev))
			seen[v] = struct{}{}
			prev = v
		}
		Expect(seen).To(HaveLen(1000))
	})
})

var _ = Describe("Parse", func() {
	BeforeEach(func() {
		Expect(id.Init(3)).To(Succeed())
	})

	It("round-trips a generated id", func() {
		v := id.New()
		parsed, err := id.Parse(fmt.Sprint(v))
		Expect(err).NotTo(HaveOccurred())
		Expect(parsed).To(Equal(v))
	})

	DescribeTable("rejects malformed ids",
		func(raw string) {
			_, err := id.Parse(raw)
			Expect(err).To(HaveOccurred())
		},
		Entry("empty", ""),
		Entry("letters", "abc"),
		Entry("negative", "-5"),
		Entry("zero", "0"),
	)
})
