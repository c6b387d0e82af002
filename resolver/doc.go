// Package resolver turns symbolic references found in node agent
// configuration templates into concrete values. It reads process
// environment variables and queries the Kubernetes control plane
// for node labels, service addresses and pod IPs. Every cluster
// operation establishes its own client through a Connector and
// never mutates cluster state.
package resolver
