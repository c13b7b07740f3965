// Package discovery resolves key broker endpoints published in DNS SRV
// records.
package discovery
