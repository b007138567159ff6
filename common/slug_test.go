package common_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"samilabs.app/pulse/common"
)

var _ = Describe("Slugify", func() {
	DescribeTable("slugs",
		func(input, fallback, want string) {
			got, err := common.Slugify(input, fallback)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(want))
		},
		Entry("simple", "Acme Corp", "default", "acme-corp"),
		Entry("special chars", "Acme & Sons!", "default", "acme-sons"),
		Entry("keeps numbers", "Studio 54", "default", "studio-54"),
		Entry("trims hyphens", "--acme--", "default", "acme"),
		Entry("non-ascii only falls back", "株式会社", "fallback", "fallback"),
		Entry("whitespace falls back", "   ", "fallback", "fallback"),
	)

	It("fails when nothing survives", func() {
		_, err := common.Slugify("@#$", "!@#")
		Expect(err).To(MatchError(common.ErrEmptySlug))
	})
})

var _ = Describe("ExportFilename", func() {
	It("prefixes the entity slug", func() {
		Expect(common.ExportFilename("Acme Corp", "mentions", "csv")).To(Equal("acme-corp_mentions.csv"))
	})

	It("drops an empty entity", func() {
		Expect(common.ExportFilename("!!!", "mentions", "csv")).To(Equal("mentions.csv"))
	})
})
