package mirror

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	ErrEmptyCountryCode = errors.New("mirror: empty country code")
	ErrNoHost           = errors.New("mirror: uri has no host")
)

// Countrify prefixes the host of uri with a country code, selecting the
// country mirror of an archive:
//
//	Countrify("http://archive.ubuntu.com/ubuntu", "us")
//	// http://us.archive.ubuntu.com/ubuntu
//
// Scheme, userinfo, port, path, query and fragment are kept.
func Countrify(uri, cc string) (string, error) {
	cc = strings.ToLower(strings.TrimSpace(cc))
	if cc == "" {
		return "", ErrEmptyCountryCode
	}

	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("mirror: parsing %q: %w", uri, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrNoHost, uri)
	}

	u.Host = cc + "." + u.Host
	return u.String(), nil
}
