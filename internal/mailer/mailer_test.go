package mailer

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-contacts-api/internal/config"
)

// fakeSMTP — минимальный SMTP-сервер: принимает одно письмо и отдаёт его в канал.
func fakeSMTP(t *testing.T) (string, <-chan string) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	got := make(chan string, 1)

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		r := bufio.NewReader(conn)
		write := func(s string) { _, _ = conn.Write([]byte(s + "\r\n")) }

		write("220 fake ready")

		var data strings.Builder
		inData := false
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}

			if inData {
				if line == ".\r\n" {
					inData = false
					got <- data.String()
					write("250 queued")
					continue
				}
				data.WriteString(line)
				continue
			}

			cmd := strings.ToUpper(strings.TrimSpace(line))
			switch {
			case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
				write("250 fake")
			case strings.HasPrefix(cmd, "MAIL FROM"), strings.HasPrefix(cmd, "RCPT TO"):
				write("250 ok")
			case cmd == "DATA":
				inData = true
				write("354 go ahead")
			case cmd == "QUIT":
				write("221 bye")
				return
			default:
				write("502 not implemented")
			}
		}
	}()

	return ln.Addr().String(), got
}

func TestSendConfirmation_OK(t *testing.T) {
	t.Parallel()

	addr, got := fakeSMTP(t)
	m := New(config.SMTPConfig{Addr: addr, From: "noreply@contacts.local", Timeout: 2 * time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	link := "http://localhost:8000/api/auth/confirmed_email/abc.def.ghi"
	require.NoError(t, m.SendConfirmation(ctx, "alice@example.com", "alice", link))

	select {
	case msg := <-got:
		require.Contains(t, msg, "To: alice@example.com")
		require.Contains(t, msg, "From: noreply@contacts.local")
		require.Contains(t, msg, "Subject: "+confirmSubject)
		require.Contains(t, msg, "Hello, alice!")
		require.Contains(t, msg, link)
	case <-time.After(3 * time.Second):
		t.Fatal("message was not delivered")
	}
}

func TestSend_DialError(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	m := New(config.SMTPConfig{Addr: addr, Timeout: time.Second})
	err = m.Send(context.Background(), "a@x.com", "s", "b")
	require.Error(t, err)
	require.Contains(t, err.Error(), "mailer.Send")
}

func TestNew_AuthOnlyWithCredentials(t *testing.T) {
	t.Parallel()

	require.Nil(t, New(config.SMTPConfig{Addr: "localhost:1025"}).auth)
	require.NotNil(t, New(config.SMTPConfig{Addr: "localhost:1025", User: "u", Password: "p"}).auth)
}

func TestBuildMessage_Headers(t *testing.T) {
	t.Parallel()

	msg := string(buildMessage("f@x.com", "t@x.com", "subj", "body"))
	require.True(t, strings.HasPrefix(msg, "From: f@x.com\r\nTo: t@x.com\r\nSubject: subj\r\n"))
	require.Contains(t, msg, "Content-Type: text/plain; charset=utf-8\r\n\r\nbody\r\n")
	require.Equal(t, "smtp.example.com", host("smtp.example.com:587"))
	require.Equal(t, "nohost", host("nohost"))
}
