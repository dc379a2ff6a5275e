package tool

import (
	"fmt"
	"net/url"
	"strings"

	"browsegpt/internal/domain/entity"
)

// URLPolicy decides which URLs fetch-page-content may open. Only http and
// https are allowed; denied hosts also cover their subdomains.
type URLPolicy struct {
	deny []string
}

func NewURLPolicy(denyHosts []string) *URLPolicy {
	p := &URLPolicy{}
	for _, h := range denyHosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h != "" {
			p.deny = append(p.deny, h)
		}
	}
	return p
}

func (p *URLPolicy) Check(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("%w: %v", entity.ErrURLNotAllowed, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme %q", entity.ErrURLNotAllowed, u.Scheme)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return fmt.Errorf("%w: missing host", entity.ErrURLNotAllowed)
	}
	for _, d := range p.deny {
		if host == d || strings.HasSuffix(host, "."+d) {
			return fmt.Errorf("%w: host %s is denied", entity.ErrURLNotAllowed, host)
		}
	}
	return nil
}
