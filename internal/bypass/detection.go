// Package bypass identifies bot-protection challenge responses so the
// fetch layer can count them as unusable pages instead of real content.
package bypass

import (
	"bytes"
	"net/http"
	"strings"
)

// Detector inspects a response and reports whether a bot-protection vendor
// challenged or blocked it, and which one.
type Detector func(status int, headers map[string][]string, body []byte) (detected bool, source string)

// DefaultDetectors returns the standard detector chain.
func DefaultDetectors() []Detector {
	return []Detector{
		detectCloudflare,
		detectAkamai,
		detectDataDome,
		detectPerimeterX,
	}
}

// Analyze runs the response through the detectors and returns the first hit.
func Analyze(status int, headers map[string][]string, body []byte, detectors []Detector) (bool, string) {
	for _, d := range detectors {
		if detected, source := d(status, headers, body); detected {
			return true, source
		}
	}
	return false, ""
}

func header(headers map[string][]string, key string) string {
	if vals, ok := headers[key]; ok && len(vals) > 0 {
		return vals[0]
	}
	lower := strings.ToLower(key)
	for k, vals := range headers {
		if strings.ToLower(k) == lower && len(vals) > 0 {
			return vals[0]
		}
	}
	return ""
}

func detectCloudflare(status int, headers map[string][]string, body []byte) (bool, string) {
	if status == http.StatusForbidden || status == http.StatusServiceUnavailable {
		if strings.Contains(strings.ToLower(header(headers, "Server")), "cloudflare") {
			return true, "Cloudflare"
		}
		for _, sig := range [][]byte{
			[]byte("cf-browser-verification"),
			[]byte("cf-turnstile"),
			[]byte("cloudflare-nginx"),
			[]byte("Attention Required! | Cloudflare"),
		} {
			if bytes.Contains(body, sig) {
				return true, "Cloudflare"
			}
		}
	}
	return false, ""
}

func detectAkamai(status int, headers map[string][]string, body []byte) (bool, string) {
	if status == http.StatusForbidden {
		if strings.Contains(strings.ToLower(header(headers, "Server")), "akamai") {
			return true, "Akamai"
		}
		// Akamai block pages carry a generic "Reference #" denial
		if bytes.Contains(body, []byte("Reference #")) && bytes.Contains(body, []byte("Access Denied")) {
			return true, "Akamai"
		}
	}
	return false, ""
}

func detectDataDome(status int, headers map[string][]string, body []byte) (bool, string) {
	if status == http.StatusForbidden {
		if strings.Contains(strings.ToLower(header(headers, "Server")), "datadome") {
			return true, "DataDome"
		}
		if header(headers, "X-DataDome") != "" || header(headers, "X-DataDome-Response") != "" {
			return true, "DataDome"
		}
		if bytes.Contains(body, []byte("geo.captcha-delivery.com")) || bytes.Contains(body, []byte("datadome")) {
			return true, "DataDome"
		}
	}
	return false, ""
}

func detectPerimeterX(status int, headers map[string][]string, body []byte) (bool, string) {
	if status == http.StatusForbidden {
		if header(headers, "X-Px-Captcha") != "" {
			return true, "PerimeterX"
		}
		for _, sig := range [][]byte{
			[]byte("client.perimeterx.net"),
			[]byte("px-captcha"),
			[]byte("_pxBlock"),
		} {
			if bytes.Contains(body, sig) {
				return true, "PerimeterX"
			}
		}
	}
	return false, ""
}
