package bridge

import (
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/kingrea/guild-forge/internal/config"
	"github.com/kingrea/guild-forge/internal/prompt"
)

const (
	// DefaultHost is the loopback interface used when no host override is provided.
	DefaultHost = "127.0.0.1"
	// DefaultPort is the default TCP port for the bridge server.
	DefaultPort = 8765
	// DefaultReadTimeout guards hung clients during the HTTP handshake.
	DefaultReadTimeout = 15 * time.Second
	// DefaultWriteTimeout bounds plain HTTP handler writes.
	DefaultWriteTimeout = 15 * time.Second
	// DefaultIdleTimeout bounds keep-alive connections.
	DefaultIdleTimeout = 60 * time.Second
	// DefaultRecentOrders is the number of confirmed orders kept for lookup.
	DefaultRecentOrders = 64
	// DefaultRecentTTL is how long a confirmed order stays retrievable.
	DefaultRecentTTL = time.Hour
)

// Settings captures runtime configuration for the bridge server.
type Settings struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	// Wait bounds every prompt sent over a session socket.
	Wait         time.Duration
	RecentOrders int
	RecentTTL    time.Duration
}

// SettingsFromConfig builds Settings from the project's .forge config.
// Environment overrides are already applied by config.NewConfig.
func SettingsFromConfig(cfg *config.Config) Settings {
	settings := Settings{
		Host:         DefaultHost,
		Port:         DefaultPort,
		ReadTimeout:  DefaultReadTimeout,
		WriteTimeout: DefaultWriteTimeout,
		IdleTimeout:  DefaultIdleTimeout,
		Wait:         prompt.DefaultWait * time.Second,
		RecentOrders: DefaultRecentOrders,
		RecentTTL:    DefaultRecentTTL,
	}
	if cfg != nil {
		raw := cfg.Project.Bridge
		if host := strings.TrimSpace(raw.Host); host != "" {
			settings.Host = host
		}
		if isValidPort(raw.Port) {
			settings.Port = raw.Port
		}
		if raw.RecentOrders > 0 {
			settings.RecentOrders = raw.RecentOrders
		}
		if ttl := cfg.RecentTTL(); ttl > 0 {
			settings.RecentTTL = ttl
		}
		if wait := cfg.Wait(); wait > 0 {
			settings.Wait = wait
		}
	}
	settings.normalize()
	return settings
}

func (s *Settings) normalize() {
	if s == nil {
		return
	}
	s.Host = strings.TrimSpace(s.Host)
	if s.Host == "" {
		s.Host = DefaultHost
	}
	// Port 0 asks the kernel for a free port and is kept as is.
	if s.Port != 0 && !isValidPort(s.Port) {
		s.Port = DefaultPort
	}
	if s.ReadTimeout <= 0 {
		s.ReadTimeout = DefaultReadTimeout
	}
	if s.WriteTimeout <= 0 {
		s.WriteTimeout = DefaultWriteTimeout
	}
	if s.IdleTimeout <= 0 {
		s.IdleTimeout = DefaultIdleTimeout
	}
	if s.Wait <= 0 {
		s.Wait = prompt.DefaultWait * time.Second
	}
	if s.RecentOrders <= 0 {
		s.RecentOrders = DefaultRecentOrders
	}
	if s.RecentTTL <= 0 {
		s.RecentTTL = DefaultRecentTTL
	}
}

// Address returns the TCP bind address in host:port form.
func (s Settings) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// URL returns the HTTP base URL for the server.
func (s Settings) URL() string {
	return "http://" + s.Address()
}

func isValidPort(port int) bool {
	return port > 0 && port <= 65535
}
