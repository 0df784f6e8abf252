package service

import (
	"context"
	"errors"
	"net"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/nyaruka/phonenumbers"
	"golang.org/x/net/idna"

	"github.com/octobees/prospecting-crm/api/internal/dto"
	"github.com/octobees/prospecting-crm/api/internal/entity"
)

var (
	emailPattern = regexp.MustCompile(`^[a-z0-9._%+\-']+@[a-z0-9.-]+\.[a-z]{2,}$`)
	idnaProfile  = idna.Lookup
)

const (
	trackingPrefix     = "utm_"
	defaultPhoneRegion = "FR"
	linkedInDomain     = "linkedin.com"
	maxFullNameLength  = 160
)

// DNSResolver abstracts DNS lookups to simplify testing.
type DNSResolver interface {
	LookupMX(ctx context.Context, domain string) ([]*net.MX, error)
}

// ContactSanitizer normalizes generated contacts before they are stored.
// Invalid emails, phones and profile URLs are dropped, not rejected.
type ContactSanitizer struct {
	DefaultRegion string
	dnsResolver   DNSResolver
}

// SanitizerOption configures optional dependencies.
type SanitizerOption func(*ContactSanitizer)

// WithMXCheck drops emails whose domain has no MX record.
func WithMXCheck(resolver DNSResolver) SanitizerOption {
	return func(s *ContactSanitizer) {
		s.dnsResolver = resolver
	}
}

// WithSystemMXCheck checks MX records with the default resolver.
func WithSystemMXCheck() SanitizerOption {
	return WithMXCheck(systemDNSResolver{})
}

// NewContactSanitizer builds a sanitizer parsing national phone numbers in defaultRegion.
func NewContactSanitizer(defaultRegion string, opts ...SanitizerOption) *ContactSanitizer {
	region := strings.ToUpper(strings.TrimSpace(defaultRegion))
	if region == "" {
		region = defaultPhoneRegion
	}
	s := &ContactSanitizer{DefaultRegion: region}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Clean converts a raw generated contact into a contact row. It reports false
// when the contact has no usable name.
func (s *ContactSanitizer) Clean(ctx context.Context, raw dto.GeneratedContact) (entity.Contact, bool) {
	name := strings.Join(strings.Fields(raw.FullName), " ")
	if name == "" || len([]rune(name)) > maxFullNameLength {
		return entity.Contact{}, false
	}

	return entity.Contact{
		FullName: name,
		Role:     optional(strings.TrimSpace(raw.Role)),
		Email:    optional(s.cleanEmail(ctx, raw.Email)),
		Phone:    optional(normalizePhone(raw.Phone, s.DefaultRegion)),
		LinkedIn: optional(cleanLinkedIn(raw.LinkedIn)),
	}, true
}

func (s *ContactSanitizer) cleanEmail(ctx context.Context, raw string) string {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" || !emailPattern.MatchString(email) {
		return ""
	}
	domain := email[strings.LastIndex(email, "@")+1:]
	if !isDomainValid(domain) {
		return ""
	}
	asciiDomain, err := idnaProfile.ToASCII(domain)
	if err != nil || asciiDomain == "" {
		return ""
	}
	if s.dnsResolver != nil && !s.hasMXRecord(ctx, asciiDomain) {
		return ""
	}
	return email
}

func (s *ContactSanitizer) hasMXRecord(ctx context.Context, domain string) bool {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	records, err := s.dnsResolver.LookupMX(ctx, domain)
	return err == nil && len(records) > 0
}

func cleanLinkedIn(raw string) string {
	u, err := sanitizeURL(raw)
	if err != nil {
		return ""
	}
	host := strings.ToLower(strings.Trim(u.Hostname(), "."))
	if host != linkedInDomain && !strings.HasSuffix(host, "."+linkedInDomain) {
		return ""
	}
	stripTracking(u)
	return u.String()
}

func sanitizeURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("empty url")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return nil, errors.New("invalid url")
	}
	u.Scheme = "https"
	return u, nil
}

func stripTracking(u *url.URL) {
	query := u.Query()
	changed := false
	for key := range query {
		if strings.HasPrefix(strings.ToLower(key), trackingPrefix) {
			query.Del(key)
			changed = true
		}
	}
	if changed {
		u.RawQuery = query.Encode()
	}
}

func normalizePhone(raw, region string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if region == "" {
		region = defaultPhoneRegion
	}
	number, err := phonenumbers.Parse(raw, region)
	if err != nil {
		return ""
	}
	if !phonenumbers.IsValidNumber(number) {
		return ""
	}
	return phonenumbers.Format(number, phonenumbers.E164)
}

func isDomainValid(domain string) bool {
	if !strings.Contains(domain, ".") {
		return false
	}
	for _, part := range strings.Split(domain, ".") {
		if part == "" || strings.HasPrefix(part, "-") || strings.HasSuffix(part, "-") {
			return false
		}
	}
	return true
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

type systemDNSResolver struct{}

func (systemDNSResolver) LookupMX(ctx context.Context, domain string) ([]*net.MX, error) {
	return net.DefaultResolver.LookupMX(ctx, domain)
}
