// Package urlnorm canonicalizes discovered URLs and tracks which canonical
// forms have already been seen during a run. The seen-set is the single
// deduplication gate for every discovery strategy and for link expansion.
package urlnorm

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"sync"

	"golang.org/x/net/publicsuffix"
)

// Rejection reasons returned by Normalize.
var (
	ErrScheme    = errors.New("unsupported scheme")
	ErrOffDomain = errors.New("outside target domain")
	ErrExtension = errors.New("non-content extension")
)

// nonContentExtensions lists file types that never carry contact markup.
var nonContentExtensions = map[string]struct{}{
	".pdf": {}, ".doc": {}, ".docx": {}, ".xls": {}, ".xlsx": {},
	".zip": {}, ".rar": {}, ".jpg": {}, ".jpeg": {}, ".png": {},
	".gif": {}, ".css": {}, ".js": {}, ".svg": {}, ".ico": {},
}

// Normalizer canonicalizes URLs against a run target and deduplicates them.
// It is safe for concurrent use.
type Normalizer struct {
	targetDomain string

	mu   sync.Mutex
	seen map[string]struct{}
}

// New builds a Normalizer scoped to the registrable domain of targetURL.
func New(targetURL string) (*Normalizer, error) {
	u, err := url.Parse(targetURL)
	if err != nil {
		return nil, fmt.Errorf("parse target url: %w", err)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return nil, fmt.Errorf("target url %q has no host", targetURL)
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		// Hosts without a public suffix (localhost, bare IPs) are matched
		// exactly.
		domain = host
	}
	return &Normalizer{
		targetDomain: domain,
		seen:         make(map[string]struct{}),
	}, nil
}

// TargetDomain returns the registrable domain candidates must belong to.
func (n *Normalizer) TargetDomain() string { return n.targetDomain }

// Normalize resolves rawURL against baseURL and returns its canonical form:
// lowercased scheme and host, default ports and fragments removed, query
// parameters sorted, trailing slash trimmed from non-root paths. It rejects
// non-HTTP(S) schemes, URLs outside the target's registrable domain, and
// paths with a denylisted extension.
func (n *Normalizer) Normalize(rawURL, baseURL string) (string, error) {
	ref, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	u := ref
	if baseURL != "" {
		base, err := url.Parse(baseURL)
		if err != nil {
			return "", fmt.Errorf("parse base url: %w", err)
		}
		u = base.ResolveReference(ref)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: %q", ErrScheme, u.Scheme)
	}
	u.Host = strings.ToLower(u.Host)
	if u.Scheme == "http" {
		u.Host = strings.TrimSuffix(u.Host, ":80")
	}
	if u.Scheme == "https" {
		u.Host = strings.TrimSuffix(u.Host, ":443")
	}

	host := u.Hostname()
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		domain = host
	}
	if domain != n.targetDomain {
		return "", fmt.Errorf("%w: %s", ErrOffDomain, host)
	}

	if ext := strings.ToLower(path.Ext(u.Path)); ext != "" {
		if _, blocked := nonContentExtensions[ext]; blocked {
			return "", fmt.Errorf("%w: %s", ErrExtension, ext)
		}
	}

	u.Fragment = ""
	u.RawQuery = u.Query().Encode()
	if u.Path != "/" {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}
	if u.Path == "" {
		u.Path = "/"
	}

	return u.String(), nil
}

// MarkSeen atomically records canonicalURL and reports whether this was the
// first sighting in the run.
func (n *Normalizer) MarkSeen(canonicalURL string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.seen[canonicalURL]; ok {
		return false
	}
	n.seen[canonicalURL] = struct{}{}
	return true
}

// SeenCount returns the number of distinct canonical URLs observed.
func (n *Normalizer) SeenCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.seen)
}
