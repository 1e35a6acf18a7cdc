package email

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"
)

// silentListener accepts connections and never speaks SMTP, standing in for
// a hung server.
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
			go func(c net.Conn) {
				defer c.Close()
				buf := make([]byte, 1)
				for {
					if _, err := c.Read(buf); err != nil {
						return
					}
				}
			}(conn)
		}
	}()
	addr := ln.Addr().(*net.TCPAddr)
	return "127.0.0.1", addr.Port
}

func TestSendFailsWhenServerHangs(t *testing.T) {
	host, port := silentListener(t)
	p := NewSMTP(Config{Host: host, Port: port, From: "noreply@acme.test"})

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- p.Send(ctx, []string{"pat@example.test"}, "subject", "<p>body</p>")
	}()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected an error from a hung server")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Send did not return after the context deadline")
	}
}

func TestSendFailsWhenDialRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	p := NewSMTP(Config{Host: "127.0.0.1", Port: port, From: "noreply@acme.test"})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := p.Send(ctx, []string{"pat@example.test"}, "subject", "body"); err == nil {
		t.Fatal("expected dial error")
	}
}

func TestSendDeliversThroughServer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	received := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		r := bufio.NewReader(conn)
		w := bufio.NewWriter(conn)
		reply := func(line string) {
			w.WriteString(line + "\r\n")
			w.Flush()
		}
		reply("220 test ready")
		var body strings.Builder
		inData := false
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			line = strings.TrimRight(line, "\r\n")
			if inData {
				if line == "." {
					inData = false
					reply("250 ok")
					received <- body.String()
					continue
				}
				body.WriteString(line + "\n")
				continue
			}
			switch {
			case strings.HasPrefix(line, "EHLO"), strings.HasPrefix(line, "HELO"):
				reply("250 test")
			case strings.HasPrefix(line, "MAIL FROM"), strings.HasPrefix(line, "RCPT TO"):
				reply("250 ok")
			case line == "DATA":
				inData = true
				reply("354 go ahead")
			case line == "QUIT":
				reply("221 bye")
				return
			default:
				reply("250 ok")
			}
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	p := NewSMTP(Config{Host: "127.0.0.1", Port: addr.Port, From: "noreply@acme.test"})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = p.Send(ctx, []string{"pat@example.test"}, "Invoice ready", "<p>hello</p>")
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	select {
	case msg := <-received:
		if !strings.Contains(msg, "Subject: Invoice ready") || !strings.Contains(msg, "<p>hello</p>") {
			t.Fatalf("unexpected message body:\n%s", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("server never received the message")
	}
}
