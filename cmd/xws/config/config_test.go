package configcmder_test

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	configcmder "github.com/papercomputeco/xws/cmd/xws/config"
)

var _ = Describe("NewConfigCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := configcmder.NewConfigCmd()
		Expect(cmd.Use).To(Equal("config"))
	})

	It("has set, get, and list subcommands", func() {
		cmd := configcmder.NewConfigCmd()
		cmds := cmd.Commands()
		subcommands := make([]string, 0, len(cmds))
		for _, sub := range cmds {
			subcommands = append(subcommands, sub.Name())
		}
		Expect(subcommands).To(ContainElements("set", "get", "list"))
	})
})

var _ = Describe("Config command execution", func() {
	var (
		tmpDir  string
		origDir string
		out     *bytes.Buffer
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "xws-config-test-*")
		Expect(err).NotTo(HaveOccurred())

		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())

		// Create a local .xws dir so the manager picks it up
		err = os.MkdirAll(filepath.Join(tmpDir, ".xws"), 0o755)
		Expect(err).NotTo(HaveOccurred())

		err = os.Chdir(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		out = &bytes.Buffer{}
	})

	AfterEach(func() {
		err := os.Chdir(origDir)
		Expect(err).NotTo(HaveOccurred())
		os.RemoveAll(tmpDir)
	})

	run := func(args ...string) error {
		cmd := configcmder.NewConfigCmd()
		cmd.SetOut(out)
		cmd.SetErr(out)
		cmd.SetArgs(args)
		return cmd.Execute()
	}

	Describe("set subcommand", func() {
		It("sets a config value successfully", func() {
			Expect(run("set", "auth.profile", "work")).To(Succeed())

			_, err := os.Stat(filepath.Join(tmpDir, ".xws", "config.toml"))
			Expect(err).NotTo(HaveOccurred())
		})

		It("rejects unknown keys", func() {
			Expect(run("set", "invalid_key", "value")).To(HaveOccurred())
		})

		It("requires exactly two arguments", func() {
			Expect(run("set", "auth.profile")).To(HaveOccurred())
		})

		It("rejects invalid uint values", func() {
			Expect(run("set", "dispatcher.workers", "not-a-number")).To(HaveOccurred())
		})

		It("rejects invalid durations", func() {
			Expect(run("set", "api.timeout", "later")).To(HaveOccurred())
		})
	})

	Describe("get subcommand", func() {
		It("gets a previously set value", func() {
			Expect(run("set", "auth.profile", "work")).To(Succeed())
			out.Reset()

			Expect(run("get", "auth.profile")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("work"))
		})

		It("shows defaults for keys not in the file", func() {
			Expect(run("get", "dispatcher.queue_size")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("256"))
		})

		It("marks unset keys", func() {
			Expect(run("get", "api.user_agent")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("<not set>"))
		})

		It("rejects unknown keys", func() {
			Expect(run("get", "invalid_key")).To(HaveOccurred())
		})

		It("requires exactly one argument", func() {
			Expect(run("get")).To(HaveOccurred())
		})
	})

	Describe("list subcommand", func() {
		It("lists every key", func() {
			Expect(run("list")).To(Succeed())
			Expect(out.String()).To(MatchRegexp(`api\.endpoint\s+= "https://api\.xing\.com/"`))
			Expect(out.String()).To(ContainSubstring("auth.profile"))
		})

		It("resolves environment variables with --effective", func() {
			GinkgoT().Setenv("XWS_RATE_LIMIT", "2.5")

			Expect(run("list")).To(Succeed())
			Expect(out.String()).To(MatchRegexp(`rate\.limit\s+= <not set>`))
			out.Reset()

			Expect(run("list", "--effective")).To(Succeed())
			Expect(out.String()).To(MatchRegexp(`rate\.limit\s+= "2.5"`))
		})

		It("rejects any arguments", func() {
			Expect(run("list", "extra")).To(HaveOccurred())
		})
	})
})
