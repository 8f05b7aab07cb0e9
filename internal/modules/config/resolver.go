package config

import (
	"net"
	"strings"
)

// PlaceholderImage is served when a resource has no image reference.
const PlaceholderImage = "/static/img/placeholder.svg"

// Endpoints are the base URLs derived for one hostname.
type Endpoints struct {
	APIBase    string `json:"api_base"`
	ServerBase string `json:"server_base"`
}

// ImageURL resolves an image reference returned by the API.
func (e Endpoints) ImageURL(ref string) string {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "":
		return PlaceholderImage
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"), strings.HasPrefix(ref, "data:"):
		return ref
	}
	return e.ServerBase + "/" + strings.TrimLeft(ref, "/")
}

// Resolver derives API and server base URLs from the hostname a page was
// requested on. Overrides win over derivation. Only local names and
// AllowedHosts are derived; any other Host header resolves to the first
// allowed host, or to the local API when none is configured.
type Resolver struct {
	APIOverride    string
	ServerOverride string
	DevPort        string
	AllowedHosts   []string
}

// Resolve returns the endpoints for host. host may carry a port.
func (r *Resolver) Resolve(host string) Endpoints {
	server := r.ServerOverride
	if server == "" {
		server = r.deriveServer(host)
	}
	api := r.APIOverride
	if api == "" {
		api = server + "/api"
	}
	return Endpoints{APIBase: api, ServerBase: server}
}

func (r *Resolver) deriveServer(host string) string {
	name := hostname(host)
	switch {
	case isLocal(name):
		return r.devServer()
	case r.allowed(name):
		return "https://" + name
	case len(r.AllowedHosts) > 0:
		return "https://" + hostname(r.AllowedHosts[0])
	}
	return r.devServer()
}

func (r *Resolver) devServer() string {
	port := r.DevPort
	if port == "" {
		port = "5000"
	}
	return "http://localhost:" + port
}

func (r *Resolver) allowed(name string) bool {
	for _, h := range r.AllowedHosts {
		if hostname(h) == name {
			return true
		}
	}
	return false
}

func hostname(host string) string {
	host = strings.TrimSpace(strings.ToLower(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		return strings.Trim(h, "[]")
	}
	return strings.Trim(host, "[]")
}

func isLocal(name string) bool {
	switch name {
	case "", "localhost", "127.0.0.1", "::1", "0.0.0.0":
		return true
	}
	return strings.HasSuffix(name, ".local") || strings.HasSuffix(name, ".localhost")
}
