package main

import (
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/hashicorp/mdns"
	"github.com/nickyhof/JsonDB"
)

// ServiceType is the mDNS service type the server advertises.
const ServiceType = "_jsondb._tcp"

// advertisement describes the server in mDNS TXT records.
type advertisement struct {
	instance string
	port     int
	ips      []net.IP
	txt      []string
}

func (s *Server) advertisement(instance string) (advertisement, error) {
	host, portStr, err := net.SplitHostPort(s.Addr())
	if err != nil {
		return advertisement{}, fmt.Errorf("invalid listen address: %w", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return advertisement{}, fmt.Errorf("invalid listen port: %w", err)
	}

	if instance == "" {
		instance, _ = os.Hostname()
	}

	var ips []net.IP
	if ip := net.ParseIP(host); ip != nil && !ip.IsUnspecified() {
		ips = []net.IP{ip}
	}

	return advertisement{
		instance: instance,
		port:     port,
		ips:      ips,
		txt: []string{
			"product=" + JsonDB.ProductName,
			"version=" + Version,
			"database=" + s.config.Database,
			"tls=" + strconv.FormatBool(s.tlsEnabled),
			"auth=" + strconv.FormatBool(s.auth != nil),
		},
	}, nil
}

// Advertise announces the server on the local network until Stop.
func (s *Server) Advertise(instance string) error {
	ad, err := s.advertisement(instance)
	if err != nil {
		return err
	}

	service, err := mdns.NewMDNSService(ad.instance, ServiceType, "", "", ad.port, ad.ips, ad.txt)
	if err != nil {
		return fmt.Errorf("failed to create mDNS service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("failed to create mDNS server: %w", err)
	}
	s.mdns = server

	s.logger.Info("advertising over mDNS", "instance", ad.instance, "service", ServiceType, "port", ad.port)
	return nil
}
