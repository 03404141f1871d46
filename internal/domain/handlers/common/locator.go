package common

import (
	"fmt"
	"net/netip"
	"sort"
	"time"

	"sleepvoice-server-go/internal/util/optional"
)

// Locator guesses a timezone from the request's source address.
type Locator interface {
	Locate(ip string) optional.Value[*time.Location]
}

type network struct {
	prefix netip.Prefix
	loc    *time.Location
}

// NetworkLocator maps configured address ranges to timezones. The most
// specific matching range wins.
type NetworkLocator struct {
	networks []network
}

// NewNetworkLocator parses CIDR -> IANA zone pairs.
func NewNetworkLocator(ranges map[string]string) (*NetworkLocator, error) {
	l := &NetworkLocator{networks: make([]network, 0, len(ranges))}
	for cidr, zone := range ranges {
		prefix, err := netip.ParsePrefix(cidr)
		if err != nil {
			return nil, fmt.Errorf("network %q: %w", cidr, err)
		}
		loc, err := time.LoadLocation(zone)
		if err != nil {
			return nil, fmt.Errorf("network %q: %w", cidr, err)
		}
		l.networks = append(l.networks, network{prefix: prefix.Masked(), loc: loc})
	}
	sort.Slice(l.networks, func(i, j int) bool {
		a, b := l.networks[i].prefix, l.networks[j].prefix
		if a.Bits() != b.Bits() {
			return a.Bits() > b.Bits()
		}
		return a.String() < b.String()
	})
	return l, nil
}

// Locate returns the zone of the narrowest range containing ip.
func (l *NetworkLocator) Locate(ip string) optional.Value[*time.Location] {
	if l == nil || ip == "" {
		return optional.None[*time.Location]()
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return optional.None[*time.Location]()
	}
	addr = addr.Unmap()
	for _, n := range l.networks {
		if n.prefix.Contains(addr) {
			return optional.Some(n.loc)
		}
	}
	return optional.None[*time.Location]()
}
