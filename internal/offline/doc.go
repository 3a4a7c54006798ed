// Package offline ties the durable queue and the sync engine together behind
// one surface for application code.
package offline
