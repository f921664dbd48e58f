// Package propagation polls public DNS until a challenge TXT record
// becomes visible or a deadline passes.
package propagation

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// Resolver performs TXT lookups
type Resolver interface {
	LookupTXT(ctx context.Context, name string) ([]string, error)
}

// DNSResolver queries the system's configured nameservers directly
type DNSResolver struct {
	servers []string
	client  *dns.Client
}

// NewResolver builds a resolver from /etc/resolv.conf, falling back to
// a public nameserver when none can be read.
func NewResolver() *DNSResolver {
	var servers []string
	if conf, err := dns.ClientConfigFromFile("/etc/resolv.conf"); err == nil {
		for _, s := range conf.Servers {
			servers = append(servers, net.JoinHostPort(s, conf.Port))
		}
	}
	if len(servers) == 0 {
		servers = []string{"8.8.8.8:53"}
	}

	return &DNSResolver{
		servers: servers,
		client: &dns.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// LookupTXT returns the TXT strings for name from the first nameserver
// that answers. Chunked records are joined into a single string per RR.
func (r *DNSResolver) LookupTXT(ctx context.Context, name string) ([]string, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(name), dns.TypeTXT)
	msg.RecursionDesired = true

	var lastErr error
	for _, server := range r.servers {
		resp, _, err := r.client.ExchangeContext(ctx, msg, server)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.Rcode != dns.RcodeSuccess {
			lastErr = fmt.Errorf("dns query returned %s", dns.RcodeToString[resp.Rcode])
			continue
		}

		var values []string
		for _, rr := range resp.Answer {
			if txt, ok := rr.(*dns.TXT); ok {
				values = append(values, strings.Join(txt.Txt, ""))
			}
		}
		return values, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no nameservers available")
	}
	return nil, lastErr
}

// Wait polls DNS for record until one of its TXT values contains
// expected as a substring, or until timeout passes. It sleeps interval
// before every check, including the first, to give the provider a
// moment to propagate. A timeout of zero disables waiting: the
// function returns false without a single query. Lookup errors count
// as "no match this round" and are retried until the deadline.
func Wait(ctx context.Context, resolver Resolver, record, expected string, interval, timeout time.Duration) bool {
	if timeout <= 0 {
		return false
	}

	deadline := time.Now().Add(timeout)
	for {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(interval):
		}

		values, err := resolver.LookupTXT(ctx, record)
		if err == nil {
			for _, v := range values {
				// Substring match: resolver output may carry quoting
				// or chunking artifacts around the challenge value
				if strings.Contains(v, expected) {
					return true
				}
			}
		}

		if !time.Now().Before(deadline) {
			return false
		}
	}
}
