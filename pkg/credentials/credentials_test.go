package credentials_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/xws/pkg/credentials"
)

var work = credentials.Profile{
	ConsumerKey:    "ck-work",
	ConsumerSecret: "cs-work",
	AccessToken:    "at-work",
	AccessSecret:   "as-work",
}

var _ = Describe("Manager", func() {
	var (
		tmpDir string
		mgr    *credentials.Manager
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "credentials-test-*")
		Expect(err).NotTo(HaveOccurred())

		mgr, err = credentials.NewManager(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		for _, env := range []string{
			credentials.EnvConsumerKey,
			credentials.EnvConsumerSecret,
			credentials.EnvAccessToken,
			credentials.EnvAccessSecret,
		} {
			GinkgoT().Setenv(env, "")
		}
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Describe("NewManager", func() {
		It("targets credentials.toml in the override directory", func() {
			Expect(mgr.GetTarget()).To(HaveSuffix(filepath.Join(filepath.Base(tmpDir), "credentials.toml")))
		})
	})

	Describe("Load", func() {
		It("returns empty credentials when no file exists", func() {
			creds, err := mgr.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(creds.Profiles).To(BeEmpty())
		})

		It("loads existing credentials", func() {
			data := `version = 0

[profiles.default]
consumer_key = "ck"
consumer_secret = "cs"
access_token = "at"
access_secret = "as"
`
			err := os.WriteFile(mgr.GetTarget(), []byte(data), 0o600)
			Expect(err).NotTo(HaveOccurred())

			creds, err := mgr.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(creds.Profiles).To(HaveKeyWithValue("default", credentials.Profile{
				ConsumerKey:    "ck",
				ConsumerSecret: "cs",
				AccessToken:    "at",
				AccessSecret:   "as",
			}))
		})

		It("returns error for malformed TOML", func() {
			err := os.WriteFile(mgr.GetTarget(), []byte("not valid [[["), 0o600)
			Expect(err).NotTo(HaveOccurred())

			creds, err := mgr.Load()
			Expect(err).To(HaveOccurred())
			Expect(creds).To(BeNil())
		})
	})

	Describe("Save", func() {
		It("persists credentials to disk with restricted permissions", func() {
			creds := &credentials.Credentials{
				Profiles: map[string]credentials.Profile{"work": work},
			}
			Expect(mgr.Save(creds)).To(Succeed())

			info, err := os.Stat(mgr.GetTarget())
			Expect(err).NotTo(HaveOccurred())
			Expect(info.Mode().Perm()).To(Equal(os.FileMode(0o600)))
		})

		It("returns error for nil credentials", func() {
			Expect(mgr.Save(nil)).To(HaveOccurred())
		})
	})

	Describe("profiles", func() {
		It("stores and reads back a profile", func() {
			Expect(mgr.SetProfile("work", work)).To(Succeed())

			p, ok, err := mgr.GetProfile("work")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(p).To(Equal(work))
		})

		It("preserves other profiles", func() {
			Expect(mgr.SetProfile("work", work)).To(Succeed())
			Expect(mgr.SetProfile("home", credentials.Profile{ConsumerKey: "a", ConsumerSecret: "b"})).To(Succeed())

			p, _, err := mgr.GetProfile("work")
			Expect(err).NotTo(HaveOccurred())
			Expect(p).To(Equal(work))
		})

		It("rejects an empty name", func() {
			Expect(mgr.SetProfile("", work)).To(HaveOccurred())
		})

		It("reports unknown profiles", func() {
			_, ok, err := mgr.GetProfile("nonexistent")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
		})

		It("removes a profile", func() {
			Expect(mgr.SetProfile("work", work)).To(Succeed())
			Expect(mgr.RemoveProfile("work")).To(Succeed())

			_, ok, err := mgr.GetProfile("work")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
		})

		It("lists profiles in sorted order", func() {
			Expect(mgr.SetProfile("work", work)).To(Succeed())
			Expect(mgr.SetProfile("home", work)).To(Succeed())

			names, err := mgr.ListProfiles()
			Expect(err).NotTo(HaveOccurred())
			Expect(names).To(Equal([]string{"home", "work"}))
		})
	})

	Describe("Resolve", func() {
		It("returns the stored profile", func() {
			Expect(mgr.SetProfile("work", work)).To(Succeed())

			p, err := mgr.Resolve("work")
			Expect(err).NotTo(HaveOccurred())
			Expect(p).To(Equal(work))
			Expect(p.IsAuthorized()).To(BeTrue())
		})

		It("lets the environment override single fields", func() {
			Expect(mgr.SetProfile("work", work)).To(Succeed())
			GinkgoT().Setenv(credentials.EnvAccessToken, "at-env")

			p, err := mgr.Resolve("work")
			Expect(err).NotTo(HaveOccurred())
			Expect(p.AccessToken).To(Equal("at-env"))
			Expect(p.ConsumerKey).To(Equal(work.ConsumerKey))
		})

		It("builds a profile from the environment alone", func() {
			GinkgoT().Setenv(credentials.EnvConsumerKey, "ck-env")
			GinkgoT().Setenv(credentials.EnvConsumerSecret, "cs-env")

			p, err := mgr.Resolve("default")
			Expect(err).NotTo(HaveOccurred())
			Expect(p.HasConsumer()).To(BeTrue())
			Expect(p.IsAuthorized()).To(BeFalse())
		})

		It("fails without consumer credentials", func() {
			_, err := mgr.Resolve("default")
			Expect(err).To(MatchError(credentials.ErrNoProfile))
		})
	})
})
