package email

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// A listener that accepts connections and never sends the SMTP greeting.
func silentListener(t *testing.T) (host string, port int) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	return addr.IP.String(), addr.Port
}

func TestSendHonorsContextDeadline(t *testing.T) {
	host, port := silentListener(t)
	provider := NewSMTP(Config{
		Host: host,
		Port: port,
		From: "noreply@example.com",
	})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := provider.Send(ctx, []string{"tenant@example.com"}, "hello", "<p>hi</p>")
	elapsed := time.Since(start)

	assert.Error(t, err)
	if elapsed > time.Second {
		t.Fatalf("send blocked %s past a 100ms deadline", elapsed)
	}
}

func TestSendUnreachableHost(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	provider := NewSMTP(Config{
		Host: "127.0.0.1",
		Port: port,
		From: "noreply@example.com",
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err = provider.Send(ctx, []string{"tenant@example.com"}, "hello", "<p>hi</p>")
	assert.Error(t, err)
}

func TestInviteTemplateRenders(t *testing.T) {
	provider := NewSMTP(Config{Host: "127.0.0.1", Port: 2525, From: "noreply@example.com"})

	var body bytes.Buffer
	err := provider.tmpl.ExecuteTemplate(&body, "tenant_invite.html", map[string]interface{}{
		"property_name": "Maple Court",
		"tenant_name":   "Jane Doe",
		"invite_url":    "https://app.example.com/invite/tok_123",
		"expires_at":    "2024-03-08",
	})
	if err != nil {
		t.Fatalf("execute template: %v", err)
	}
	assert.Contains(t, body.String(), "Maple Court")
	assert.Contains(t, body.String(), "https://app.example.com/invite/tok_123")
}
