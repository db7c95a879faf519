package credentials

// Credentials represents the stored OAuth1 credentials in credentials.toml.
type Credentials struct {
	Version  int                `toml:"version"`
	Profiles map[string]Profile `toml:"profiles"`
}

// Profile is one set of application and user credentials. The consumer pair
// identifies the application, the access pair the authorized user.
type Profile struct {
	ConsumerKey    string `toml:"consumer_key"`
	ConsumerSecret string `toml:"consumer_secret"`
	AccessToken    string `toml:"access_token,omitempty"`
	AccessSecret   string `toml:"access_secret,omitempty"`
}

// HasConsumer reports whether the application credentials are set.
func (p Profile) HasConsumer() bool {
	return p.ConsumerKey != "" && p.ConsumerSecret != ""
}

// IsAuthorized reports whether the profile can sign user requests.
func (p Profile) IsAuthorized() bool {
	return p.HasConsumer() && p.AccessToken != "" && p.AccessSecret != ""
}
