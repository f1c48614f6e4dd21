package fcdex

// Option configures the Client.
type Option func(*clientConfig)

type clientConfig struct {
	driver            string
	addrs             []string
	password          string
	path              string
	inMemory          bool
	keyPrefix         string
	nilsimsaThreshold int
	defaultLimit      int
	maxLimit          int
	randomCutoff      int
}

// WithRedis configures the client to connect to a Redis instance.
func WithRedis(addr, password string) Option {
	return func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	}
}

// WithValkey configures the client to connect to a Valkey instance. Valkey
// speaks the Redis protocol, so this is the redis driver under another name.
func WithValkey(addr, password string) Option {
	return func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	}
}

// WithBadger configures the client to use an embedded Badger database at
// the given directory. No external database is needed.
func WithBadger(path string) Option {
	return func(c *clientConfig) {
		c.driver = "badger"
		c.path = path
	}
}

// WithBadgerInMemory configures an embedded in-memory database. All data is
// lost on Close; intended for tests and experiments.
func WithBadgerInMemory() Option {
	return func(c *clientConfig) {
		c.driver = "badger"
		c.inMemory = true
	}
}

// WithKeyPrefix namespaces every stored key (default "fcdex:").
func WithKeyPrefix(prefix string) Option {
	return func(c *clientConfig) {
		c.keyPrefix = prefix
	}
}

// WithNilsimsaThreshold sets the near-duplicate rejection score, from -128
// to 128. Higher values reject only closer matches.
func WithNilsimsaThreshold(threshold int) Option {
	return func(c *clientConfig) {
		c.nilsimsaThreshold = threshold
	}
}

// WithSearchLimits sets the default and maximum search result limits.
func WithSearchLimits(def, max int) Option {
	return func(c *clientConfig) {
		c.defaultLimit = def
		c.maxLimit = max
	}
}

// WithRandomCutoff bounds how many ids a random draw scans.
func WithRandomCutoff(n int) Option {
	return func(c *clientConfig) {
		c.randomCutoff = n
	}
}
