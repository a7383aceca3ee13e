// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Greg Kennedy

package vncslots

import (
	"net"
	"net/http"
	"testing"
)

func TestRateLimiter_Burst(t *testing.T) {
	rl := NewRateLimiter(1, 3)

	for i := 0; i < 3; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatalf("connection %d within burst denied", i)
		}
	}
	if rl.Allow("10.0.0.1") {
		t.Error("connection beyond burst allowed")
	}

	// Another IP has its own budget.
	if !rl.Allow("10.0.0.2") {
		t.Error("fresh IP denied")
	}
}

func TestAddrIP(t *testing.T) {
	addr := &net.TCPAddr{IP: net.ParseIP("192.0.2.7"), Port: 55900}
	if got := addrIP(addr); got != "192.0.2.7" {
		t.Errorf("addrIP = %q, want 192.0.2.7", got)
	}
}

func TestRequestIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"plain", "192.0.2.7:55900", nil, "192.0.2.7"},
		{"forwarded", "10.0.0.1:80", map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"}, "203.0.113.9"},
		{"real ip", "10.0.0.1:80", map[string]string{"X-Real-Ip": "203.0.113.9"}, "203.0.113.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &http.Request{RemoteAddr: tt.remoteAddr, Header: http.Header{}}
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := requestIP(r); got != tt.want {
				t.Errorf("requestIP = %q, want %q", got, tt.want)
			}
		})
	}
}
