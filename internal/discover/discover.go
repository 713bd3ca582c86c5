// Package discover seeds a host list by probing a CIDR range for open
// SSH ports.
package discover

import (
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Scan probes every usable address in the CIDR range for an open TCP
// port and returns the responsive addresses sorted numerically, ready to
// be written out as a host list. Network and broadcast addresses are
// skipped for IPv4 ranges larger than /31.
func Scan(ctx context.Context, cidr string, port, concurrency int, timeout time.Duration) ([]string, error) {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		return nil, fmt.Errorf("invalid CIDR %q: %w", cidr, err)
	}
	if concurrency < 1 {
		concurrency = 64
	}

	ips := enumerate(network)
	if len(ips) == 0 {
		return nil, nil
	}

	var (
		mu    sync.Mutex
		found []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, ip := range ips {
		addr := ip.String()
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			target := net.JoinHostPort(addr, fmt.Sprintf("%d", port))
			conn, dialErr := net.DialTimeout("tcp", target, timeout)
			if dialErr != nil {
				return nil // closed or filtered port, not an error
			}
			conn.Close()

			mu.Lock()
			found = append(found, addr)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil && len(found) == 0 {
		return nil, err
	}

	sort.Slice(found, func(i, j int) bool {
		a := net.ParseIP(found[i]).To4()
		b := net.ParseIP(found[j]).To4()
		if a != nil && b != nil {
			return binary.BigEndian.Uint32(a) < binary.BigEndian.Uint32(b)
		}
		return found[i] < found[j]
	})

	return found, nil
}

// enumerate returns all usable host IPs in the given IPv4 network.
func enumerate(network *net.IPNet) []net.IP {
	ip := network.IP.To4()
	if ip == nil {
		// IPv6 or invalid; not supported.
		return nil
	}

	ones, bits := network.Mask.Size()
	if bits != 32 {
		return nil
	}

	// /32 is a single host.
	if ones == 32 {
		single := make(net.IP, 4)
		copy(single, ip)
		return []net.IP{single}
	}

	start := binary.BigEndian.Uint32(ip)
	size := uint32(1) << uint(bits-ones)

	var hosts []net.IP
	appendIP := func(v uint32) {
		addr := make(net.IP, 4)
		binary.BigEndian.PutUint32(addr, v)
		hosts = append(hosts, addr)
	}

	// /31 is a point-to-point link: both addresses are usable (RFC 3021).
	if ones == 31 {
		appendIP(start)
		appendIP(start + 1)
		return hosts
	}

	// For /30 and larger: skip network (first) and broadcast (last).
	for i := uint32(1); i < size-1; i++ {
		appendIP(start + i)
	}
	return hosts
}
