// internal/httpapi/request.go
package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tamzrod/panel-controller/internal/settings"
)

// MaxBodyBytes bounds every request body the boundary reads.
const MaxBodyBytes = 512

// DefaultNetmask is applied to every saved network; it is not user-settable.
const DefaultNetmask = "255.255.255.0"

// ErrMalformedRequest is returned for bodies that cannot be decoded.
var ErrMalformedRequest = errors.New("httpapi: malformed request")

// ExtractUpdateURL returns the firmware URL carried by an /ota body.
//
// Accepted shapes, in order: a JSON object with a string "url" member,
// a JSON string, or a bare token. An object without "url" yields "".
func ExtractUpdateURL(body []byte) (string, error) {
	b := bytes.TrimSpace(body)
	if len(b) == 0 {
		return "", ErrMalformedRequest
	}

	switch b[0] {
	case '{':
		var req struct {
			URL *string `json:"url"`
		}
		if err := json.Unmarshal(b, &req); err != nil {
			return "", fmt.Errorf("%w: %v", ErrMalformedRequest, err)
		}
		if req.URL == nil {
			return "", nil
		}
		return *req.URL, nil

	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return "", fmt.Errorf("%w: %v", ErrMalformedRequest, err)
		}
		return s, nil
	}

	// Raw token fallback.
	if bytes.ContainsAny(b, " \t\r\n") {
		return "", fmt.Errorf("%w: raw url contains whitespace", ErrMalformedRequest)
	}
	return string(b), nil
}

type saveWifiRequest struct {
	SSID *string `json:"ssid"`
	Pass *string `json:"pass"`
	IP   *string `json:"ip"`
	GW   *string `json:"gw"`
}

// ParseSaveWifi decodes a /api/save_wifi body. ssid, pass and ip are
// required strings; gw falls back to the factory gateway.
func ParseSaveWifi(body []byte) (settings.Network, error) {
	var req saveWifiRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return settings.Network{}, fmt.Errorf("%w: %v", ErrMalformedRequest, err)
	}
	if req.SSID == nil || req.Pass == nil || req.IP == nil {
		return settings.Network{}, fmt.Errorf("%w: ssid, pass and ip are required", ErrMalformedRequest)
	}

	n := settings.Network{
		SSID:     *req.SSID,
		Password: *req.Pass,
		IP:       *req.IP,
		Gateway:  settings.Defaults().Gateway,
		Netmask:  DefaultNetmask,
	}
	if req.GW != nil {
		n.Gateway = *req.GW
	}

	if err := n.Validate(); err != nil {
		return settings.Network{}, fmt.Errorf("%w: %v", ErrMalformedRequest, err)
	}
	return n, nil
}
