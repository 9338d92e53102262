package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"os"
	"path/filepath"
	"time"

	bubbletea "github.com/charmbracelet/bubbletea"
	"github.com/disintegration/imaging"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"photodedupe/discard"
	"photodedupe/review"
	"photodedupe/types"
)

type decodedReport struct {
	Total   int             `json:"total"`
	Result  types.RunResult `json:"result"`
	Skipped []skippedJSON   `json:"skipped"`
	Warning string          `json:"warning"`
	Commit  *struct {
		Moved []discard.Move `json:"moved"`
	} `json:"commit"`
}

func execute(args ...string) (string, string, error) {
	cmd := NewRootCmd("test")
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

var _ = Describe("photodedupe CLI", func() {
	var home, dir string

	BeforeEach(func() {
		home = GinkgoT().TempDir()
		GinkgoT().Setenv("HOME", home)
		GinkgoT().Setenv("XDG_CONFIG_HOME", filepath.Join(home, "config"))
		GinkgoT().Setenv("XDG_CACHE_HOME", filepath.Join(home, "cache"))

		dir = GinkgoT().TempDir()
	})

	save := func(name string, img image.Image, quality int) string {
		path := filepath.Join(dir, name)
		Expect(imaging.Save(img, path, imaging.JPEGQuality(quality))).To(Succeed())
		return path
	}

	populate := func() (original, copied string) {
		img := patterned(360, 320, zigzag, ripple)
		original = save("a_original.jpg", img, 95)
		copied = save("b_copy.jpg", imaging.Resize(img, 180, 160, imaging.Lanczos), 90)
		Expect(os.WriteFile(filepath.Join(dir, "c_broken.jpg"), nil, 0o644)).To(Succeed())
		save("d_other.jpg", patterned(360, 320, reverse, ripple), 95)
		return original, copied
	}

	Describe("version", func() {
		It("prints the build version", func() {
			out, _, err := execute("version")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(HavePrefix("photodedupe test"))
		})
	})

	Describe("config", func() {
		It("shows the defaults when no file exists", func() {
			out, _, err := execute("config", "show")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("[detect]"))
			Expect(out).To(ContainSubstring("threshold = 2"))
			Expect(out).To(ContainSubstring(`folder_name = "duplicates"`))
		})

		It("applies environment overrides", func() {
			GinkgoT().Setenv("PHOTODEDUPE_DETECT_THRESHOLD", "6")
			out, _, err := execute("config", "show")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("threshold = 6"))
		})

		It("writes a default file once", func() {
			path := filepath.Join(home, "custom", "config.toml")

			out, _, err := execute("config", "init", "--config", path)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring(path))
			Expect(path).To(BeAnExistingFile())

			_, _, err = execute("config", "init", "--config", path)
			Expect(err).To(MatchError(ContainSubstring("already exists")))

			_, _, err = execute("config", "init", "--config", path, "--force")
			Expect(err).NotTo(HaveOccurred())
		})

		It("prints the config path", func() {
			out, _, err := execute("config", "path")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring(filepath.Join("photodedupe", "config.toml")))
		})
	})

	Describe("scan", func() {
		It("reports groups as JSON", func() {
			original, copied := populate()

			out, _, err := execute("scan", dir, "--format", "json", "--cache=false")
			Expect(err).NotTo(HaveOccurred())

			var report decodedReport
			Expect(json.Unmarshal([]byte(out), &report)).To(Succeed())
			Expect(report.Total).To(Equal(4))
			Expect(report.Skipped).To(HaveLen(1))
			Expect(report.Skipped[0].Path).To(HaveSuffix("c_broken.jpg"))
			Expect(report.Result.Groups).To(HaveLen(1))

			group := report.Result.Groups[0]
			Expect(group.Members).To(HaveLen(2))
			Expect(group.Members[0].Path).To(Equal(copied))
			Expect(group.Members[1].Path).To(Equal(original))
			Expect(group.Keep).To(Equal([]int{0}))
			Expect(report.Result.Singletons).To(Equal(1))
			Expect(report.Commit).To(BeNil())

			Expect(original).To(BeAnExistingFile())
		})

		It("moves discards with --move", func() {
			original, copied := populate()

			out, _, err := execute("scan", dir, "--move", "--cache=false", "--no-progress")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("4 images found"))
			Expect(out).To(ContainSubstring("1 groups with duplicates, 1 files to discard"))
			Expect(out).To(ContainSubstring("1 files moved"))

			Expect(original).NotTo(BeAnExistingFile())
			Expect(filepath.Join(dir, "duplicates", "a_original.jpg")).To(BeAnExistingFile())
			Expect(copied).To(BeAnExistingFile())
		})

		It("honours a custom folder name", func() {
			populate()

			_, _, err := execute("scan", dir, "--move", "--cache=false", "--no-progress", "--folder-name", "rejects")
			Expect(err).NotTo(HaveOccurred())
			Expect(filepath.Join(dir, "rejects", "a_original.jpg")).To(BeAnExistingFile())
		})

		It("warns about an empty folder", func() {
			out, errOut, err := execute("scan", dir, "--cache=false", "--no-progress")
			Expect(err).NotTo(HaveOccurred())
			Expect(errOut).To(ContainSubstring(types.ErrEmptyInput.Error()))
			Expect(out).To(ContainSubstring("0 images found"))
		})

		It("includes the warning in JSON output", func() {
			out, _, err := execute("scan", dir, "--format", "json", "--cache=false")
			Expect(err).NotTo(HaveOccurred())

			var report decodedReport
			Expect(json.Unmarshal([]byte(out), &report)).To(Succeed())
			Expect(report.Warning).To(Equal(types.ErrEmptyInput.Error()))
			Expect(report.Result.Groups).To(BeEmpty())
		})

		It("renders markdown", func() {
			populate()

			out, _, err := execute("scan", dir, "--format", "markdown", "--cache=false", "--no-progress")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("b_copy.jpg"))
			Expect(out).To(ContainSubstring("Group 1"))
		})

		It("fills the cache", func() {
			populate()
			cache := filepath.Join(home, "fingerprints.db")

			_, _, err := execute("scan", dir, "--format", "json", "--cache-path", cache)
			Expect(err).NotTo(HaveOccurred())

			out, _, err := execute("cache", "stats", "--cache-path", cache)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(MatchRegexp(`entries\s+3`))
			Expect(out).To(ContainSubstring("dhash/lanczos"))

			Expect(os.Remove(filepath.Join(dir, "d_other.jpg"))).To(Succeed())
			out, _, err = execute("cache", "prune", "--cache-path", cache)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("pruned 1 entries"))

			out, _, err = execute("cache", "clear", "--cache-path", cache)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("cleared 2 entries"))
		})

		DescribeTable("rejects bad input",
			func(args []string, message string) {
				_, _, err := execute(append([]string{"scan"}, args...)...)
				Expect(err).To(MatchError(ContainSubstring(message)))
			},
			Entry("missing folder", []string{"/does/not/exist"}, "does not exist"),
			Entry("unknown format", []string{".", "--format", "xml"}, "unknown output format"),
			Entry("negative threshold", []string{".", "--threshold", "-1"}, "detect.threshold"),
			Entry("unknown filter", []string{".", "--filter", "bicubic"}, "detect.filter"),
		)
	})

	Describe("resolve", func() {
		stubReview := func(fn func([]types.DuplicateGroup) ([]types.DuplicateGroup, error)) {
			previous := runReview
			runReview = func(_ context.Context, groups []types.DuplicateGroup, _ ...bubbletea.ProgramOption) ([]types.DuplicateGroup, error) {
				return fn(groups)
			}
			DeferCleanup(func() { runReview = previous })
		}

		It("moves the discards confirmed in review", func() {
			original, copied := populate()
			stubReview(func(groups []types.DuplicateGroup) ([]types.DuplicateGroup, error) {
				return groups, nil
			})

			out, _, err := execute("resolve", dir, "--cache=false", "--no-progress")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("1 files moved"))
			Expect(original).NotTo(BeAnExistingFile())
			Expect(copied).To(BeAnExistingFile())
		})

		It("honours overrides made in review", func() {
			original, copied := populate()
			stubReview(func(groups []types.DuplicateGroup) ([]types.DuplicateGroup, error) {
				groups[0].Keep = []int{1}
				return groups, nil
			})

			_, _, err := execute("resolve", dir, "--cache=false", "--no-progress")
			Expect(err).NotTo(HaveOccurred())
			Expect(original).To(BeAnExistingFile())
			Expect(copied).NotTo(BeAnExistingFile())
			Expect(filepath.Join(dir, "duplicates", "b_copy.jpg")).To(BeAnExistingFile())
		})

		It("leaves files alone when aborted", func() {
			original, _ := populate()
			stubReview(func([]types.DuplicateGroup) ([]types.DuplicateGroup, error) {
				return nil, review.ErrAborted
			})

			out, _, err := execute("resolve", dir, "--cache=false", "--no-progress")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("review aborted"))
			Expect(original).To(BeAnExistingFile())
			Expect(filepath.Join(dir, "duplicates")).NotTo(BeADirectory())
		})

		It("skips the review without duplicates", func() {
			save("a.jpg", patterned(200, 200, zigzag, ripple), 95)
			stubReview(func([]types.DuplicateGroup) ([]types.DuplicateGroup, error) {
				Fail("review should not run")
				return nil, nil
			})

			out, _, err := execute("resolve", dir, "--cache=false", "--no-progress")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("0 groups with duplicates"))
		})

		It("propagates review failures", func() {
			populate()
			stubReview(func([]types.DuplicateGroup) ([]types.DuplicateGroup, error) {
				return nil, errors.New("no tty")
			})

			_, _, err := execute("resolve", dir, "--cache=false", "--no-progress")
			Expect(err).To(MatchError(ContainSubstring("no tty")))
		})
	})
})

var _ = Describe("output helpers", func() {
	groups := []types.DuplicateGroup{
		types.NewDuplicateGroup([]types.ImageRecord{
			{Path: "/p/small.jpg", Size: 1_048_576, Width: 100, Height: 80},
			{Path: "/p/large.jpg", Size: 3_145_728, Width: 400, Height: 320, Index: 1},
		}),
	}

	It("lists keep and discard members", func() {
		var buf bytes.Buffer
		writeGroups(&buf, groups)
		Expect(buf.String()).To(MatchRegexp(`keep\s+small\.jpg\s+1\.00 MB\s+100x80`))
		Expect(buf.String()).To(MatchRegexp(`discard\s+large\.jpg\s+3\.00 MB\s+400x320`))
	})

	It("builds a markdown table per group", func() {
		md := groupsMarkdown(groups)
		Expect(md).To(ContainSubstring("## Group 1"))
		Expect(md).To(ContainSubstring("| **keep** | small.jpg | 1.00 MB | 100x80 |"))
		Expect(groupsMarkdown(nil)).To(ContainSubstring("No duplicates found."))
	})

	It("summarizes moves and failures", func() {
		var buf bytes.Buffer
		writeSummary(&buf, summary{
			Found:    10,
			Groups:   2,
			Discards: 3,
			Skipped:  1,
			Raw:      2,
			Elapsed:  1500 * time.Millisecond,
			Commit: &discard.CommitReport{
				Folder: "/p/duplicates",
				Moved:  []discard.Move{{From: "/p/a.jpg", To: "/p/duplicates/a.jpg"}},
				Failed: []*discard.CommitError{{Path: "/p/b.jpg", Target: "/p/duplicates/b.jpg", Err: discard.ErrNameCollision}},
			},
		})
		Expect(buf.String()).To(ContainSubstring("10 images found (1.5s)"))
		Expect(buf.String()).To(ContainSubstring("1 images could not be read"))
		Expect(buf.String()).To(ContainSubstring("2 RAW files read from embedded previews"))
		Expect(buf.String()).To(ContainSubstring("1 files moved to /p/duplicates"))
		Expect(buf.String()).To(ContainSubstring("/p/b.jpg"))
	})

	It("turns move failures into an error", func() {
		Expect(commitErr(nil)).To(Succeed())
		Expect(commitErr(&discard.CommitReport{})).To(Succeed())

		err := commitErr(&discard.CommitReport{
			Moved:  []discard.Move{{}},
			Failed: []*discard.CommitError{{Path: "/p/b.jpg", Err: discard.ErrNameCollision}},
		})
		Expect(err).To(MatchError(discard.ErrNameCollision))
		Expect(err.Error()).To(HavePrefix("1 of 2 discards"))
	})

	DescribeTable("formatDuration",
		func(d time.Duration, expected string) {
			Expect(formatDuration(d)).To(Equal(expected))
		},
		Entry("milliseconds", 12*time.Millisecond, "12ms"),
		Entry("seconds", 3200*time.Millisecond, "3.2s"),
	)
})
