// Package connectivity answers the question the sync engine must get right
// before touching any queued row: is the device actually online? Connected
// and internet-reachable are tracked as separate flags so a captive portal or
// isolated LAN does not count as online.
package connectivity
