package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/xws/pkg/config"
)

var _ = Describe("InitViper", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "viper-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("returns viper with defaults when no config file exists", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		defaults := config.NewDefaultConfig()
		Expect(v.GetString("api.endpoint")).To(Equal(defaults.API.Endpoint))
		Expect(v.GetUint("dispatcher.workers")).To(Equal(defaults.Dispatcher.Workers))
		Expect(v.GetString("auth.profile")).To(Equal(defaults.Auth.Profile))
	})

	It("reads config file values over defaults", func() {
		data := `[api]
endpoint = "https://staging.example.com/"
`
		err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
		Expect(err).NotTo(HaveOccurred())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		Expect(v.GetString("api.endpoint")).To(Equal("https://staging.example.com/"))
		Expect(v.GetString("api.timeout")).To(Equal(config.NewDefaultConfig().API.Timeout))
	})

	It("env vars take precedence over config file values", func() {
		data := `[auth]
profile = "file"
`
		err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
		Expect(err).NotTo(HaveOccurred())

		GinkgoT().Setenv("XWS_AUTH_PROFILE", "env")

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.GetString("auth.profile")).To(Equal("env"))
	})
})

var _ = Describe("FromViper", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "fromviper-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("resolves the defaults", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cfg, err := config.FromViper(v)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg).To(Equal(config.NewDefaultConfig()))
	})

	It("rejects an invalid timeout from the environment", func() {
		GinkgoT().Setenv("XWS_API_TIMEOUT", "soon")

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		_, err = config.FromViper(v)
		Expect(err).To(MatchError(ContainSubstring("api.timeout")))
	})

	It("rejects an unknown log format", func() {
		GinkgoT().Setenv("XWS_LOG_FORMAT", "xml")

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		_, err = config.FromViper(v)
		Expect(err).To(MatchError(ContainSubstring("log.format")))
	})
})

var _ = Describe("BindFlags", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "bindflag-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("binds cobra flags to viper keys via registry", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		var endpoint string
		config.AddStringFlag(cmd, config.Flags, config.FlagEndpoint, &endpoint)

		Expect(cmd.Flags().Set("endpoint", "http://localhost:9999/")).To(Succeed())
		config.BindRegisteredFlags(v, cmd, config.Flags, []string{config.FlagEndpoint})

		Expect(v.GetString("api.endpoint")).To(Equal("http://localhost:9999/"))
	})

	It("falls through to config when flag not set", func() {
		data := `[dispatcher]
workers = 7
`
		err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
		Expect(err).NotTo(HaveOccurred())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		var workers uint
		config.AddUintFlag(cmd, config.Flags, config.FlagWorkers, &workers)
		config.BindRegisteredFlags(v, cmd, config.Flags, []string{config.FlagWorkers})

		Expect(v.GetUint("dispatcher.workers")).To(Equal(uint(7)))
	})

	It("flags take precedence over env vars", func() {
		GinkgoT().Setenv("XWS_RATE_LIMIT", "1")

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		var limit float64
		config.AddFloatFlag(cmd, config.Flags, config.FlagRateLimit, &limit)
		Expect(cmd.Flags().Set("rate-limit", "4")).To(Succeed())
		config.BindRegisteredFlags(v, cmd, config.Flags, []string{config.FlagRateLimit})

		Expect(v.GetFloat64("rate.limit")).To(Equal(4.0))
	})

	It("skips bindings for nonexistent registry keys", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		config.BindRegisteredFlags(v, cmd, config.FlagSet{}, []string{"nonexistent"})

		Expect(v.GetString("api.endpoint")).To(Equal(config.NewDefaultConfig().API.Endpoint))
	})

	It("AddStringFlag pulls name, shorthand, and description from FlagSet", func() {
		cmd := &cobra.Command{Use: "test"}
		var profile string
		config.AddStringFlag(cmd, config.Flags, config.FlagProfile, &profile)

		f := cmd.Flags().Lookup("profile")
		Expect(f).NotTo(BeNil())
		Expect(f.Shorthand).To(Equal("p"))
		Expect(f.Usage).To(Equal(config.Flags[config.FlagProfile].Description))
		Expect(f.DefValue).To(Equal("default"))
	})

	It("AddPersistentBoolFlag registers an inherited flag", func() {
		cmd := &cobra.Command{Use: "test"}
		config.AddPersistentBoolFlag(cmd, config.Flags, config.FlagDebug)

		f := cmd.PersistentFlags().Lookup("debug")
		Expect(f).NotTo(BeNil())
		Expect(f.Shorthand).To(Equal("d"))
		Expect(f.DefValue).To(Equal("false"))
	})
})
