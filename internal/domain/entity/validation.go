package entity

import (
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"strings"
)

const (
	maxURLLength  = 2048
	maxNameLength = 200
)

// ValidateRecipe checks a user-authored recipe before it is stored.
func ValidateRecipe(r Recipe) error {
	if strings.TrimSpace(r.ID) == "" {
		return &ValidationError{Field: "id", Message: "id is required"}
	}
	if strings.TrimSpace(r.Name) == "" {
		return &ValidationError{Field: "name", Message: "Please add a recipe name"}
	}
	if len(r.Name) > maxNameLength {
		return &ValidationError{
			Field:   "name",
			Message: fmt.Sprintf("name must not exceed %d characters", maxNameLength),
		}
	}
	if r.ImageURL != "" {
		return ValidateImageURL(r.ImageURL)
	}
	return nil
}

// ValidateImageURL accepts absolute http and https URLs only. Where the URL
// points is checked when the image proxy dials it, not here.
func ValidateImageURL(rawURL string) error {
	if len(rawURL) > maxURLLength {
		return &ValidationError{
			Field:   "image",
			Message: fmt.Sprintf("image url must not exceed %d characters", maxURLLength),
		}
	}
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &ValidationError{Field: "image", Message: "image url must be an absolute http or https URL"}
	}
	return nil
}

// restrictedPrefixes are ranges the image proxy must never reach.
var restrictedPrefixes = []netip.Prefix{
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.168.0.0/16"),
	netip.MustParsePrefix("100.64.0.0/10"),  // carrier-grade NAT
	netip.MustParsePrefix("169.254.0.0/16"), // link-local, cloud metadata
	netip.MustParsePrefix("fc00::/7"),
}

// IsPrivateIP reports whether ip is loopback, link-local or in a private range.
func IsPrivateIP(ip net.IP) bool {
	addr, ok := netip.AddrFromSlice(ip)
	if !ok {
		return false
	}
	addr = addr.Unmap()
	if addr.IsLoopback() || addr.IsLinkLocalUnicast() || addr.IsLinkLocalMulticast() {
		return true
	}
	for _, p := range restrictedPrefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
