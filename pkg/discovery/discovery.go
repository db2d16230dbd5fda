// Package discovery advertises the sensor's HTTP API over mDNS, grounded
// on networking.c's init_mdns (mdns_init / mdns_hostname_set /
// mdns_instance_name_set). github.com/hashicorp/mdns is an out-of-pack
// choice — no example repo wires an mDNS library, see DESIGN.md.
package discovery

import (
	"fmt"

	"github.com/hashicorp/mdns"
)

// ServiceName is the advertised mDNS service type.
const ServiceName = "_kwartiwi-p1._tcp"

// Server holds a running mDNS advertisement.
type Server struct {
	server *mdns.Server
}

// Advertise starts advertising ServiceName on port under hostname and
// instance, the two values persisted in nvconfig.
func Advertise(hostname, instance string, port int) (*Server, error) {
	hostName := hostname
	if hostName != "" && hostName[len(hostName)-1] != '.' {
		hostName += "."
	}

	svc, err := mdns.NewMDNSService(instance, ServiceName, "", hostName, port, nil, []string{"p1sensor"})
	if err != nil {
		return nil, fmt.Errorf("discovery: build service: %w", err)
	}

	srv, err := mdns.NewServer(&mdns.Config{Zone: svc})
	if err != nil {
		return nil, fmt.Errorf("discovery: start server: %w", err)
	}
	return &Server{server: srv}, nil
}

// Close stops advertising.
func (s *Server) Close() error {
	return s.server.Shutdown()
}
