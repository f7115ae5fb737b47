// Package core holds the account synchronization domain: trackers,
// credentials, temporary authorization state and access keys, plus the
// Service that orchestrates them. Storage, upstream clients and transports
// live in adapter packages that depend on core, never the reverse.
package core
