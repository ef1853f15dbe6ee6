package domains

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// Checker answers whether a domain is free to be registered.
type Checker interface {
	Available(ctx context.Context, domain string) (bool, error)
}

// DNSChecker treats a name that does not resolve (NXDOMAIN) as available.
// Anything that resolves, or has NS records, is taken.
type DNSChecker struct {
	resolver *net.Resolver
	timeout  time.Duration
}

func NewDNSChecker() *DNSChecker {
	return &DNSChecker{
		resolver: net.DefaultResolver,
		timeout:  5 * time.Second,
	}
}

func (c *DNSChecker) Available(ctx context.Context, domain string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ns, err := c.resolver.LookupNS(ctx, domain)
	if err == nil && len(ns) > 0 {
		return false, nil
	}
	if err != nil && !isNotFound(err) {
		return false, fmt.Errorf("lookup NS for %s: %w", domain, err)
	}

	addrs, err := c.resolver.LookupHost(ctx, domain)
	if err == nil && len(addrs) > 0 {
		return false, nil
	}
	if err != nil && !isNotFound(err) {
		return false, fmt.Errorf("lookup host for %s: %w", domain, err)
	}
	return true, nil
}

func isNotFound(err error) bool {
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr) && dnsErr.IsNotFound
}
