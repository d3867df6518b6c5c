package credentials

import (
	"bufio"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const httpOnlyPrefix = "#HttpOnly_"

// LoadJar parses a Netscape-format cookie file into a cookie jar.
func LoadJar(path string) (http.CookieJar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening cookie file: %w", err)
	}
	defer f.Close()

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	byHost := make(map[string][]*http.Cookie)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		host, c, ok := parseLine(scanner.Text())
		if !ok {
			continue
		}
		byHost[host] = append(byHost[host], c)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading cookie file: %w", err)
	}

	for host, cookies := range byHost {
		jar.SetCookies(&url.URL{Scheme: "https", Host: host, Path: "/"}, cookies)
	}
	return jar, nil
}

// parseLine reads one tab-separated record:
// domain, include-subdomains, path, secure, expiry, name, value.
func parseLine(line string) (string, *http.Cookie, bool) {
	httpOnly := false
	if strings.HasPrefix(line, httpOnlyPrefix) {
		line = strings.TrimPrefix(line, httpOnlyPrefix)
		httpOnly = true
	}
	line = strings.TrimRight(line, "\r")
	if line == "" || strings.HasPrefix(line, "#") {
		return "", nil, false
	}

	fields := strings.Split(line, "\t")
	if len(fields) != 7 {
		return "", nil, false
	}

	domain := fields[0]
	host := strings.TrimPrefix(domain, ".")
	c := &http.Cookie{
		Name:     fields[5],
		Value:    fields[6],
		Path:     fields[2],
		Secure:   strings.EqualFold(fields[3], "TRUE"),
		HttpOnly: httpOnly,
	}
	if strings.EqualFold(fields[1], "TRUE") {
		c.Domain = domain
	}
	if exp, err := strconv.ParseInt(fields[4], 10, 64); err == nil && exp > 0 {
		c.Expires = time.Unix(exp, 0)
	}
	return host, c, true
}
