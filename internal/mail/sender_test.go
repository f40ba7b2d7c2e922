package mail

import (
	"bufio"
	"bytes"
	"context"
	"log/slog"
	"net"
	"net/textproto"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSMTP accepts one session and records the envelope and data.
type fakeSMTP struct {
	ln   net.Listener
	from string
	to   string
	data string
	done chan struct{}
}

func startFakeSMTP(t *testing.T) *fakeSMTP {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	f := &fakeSMTP{ln: ln, done: make(chan struct{})}
	go f.serve()
	t.Cleanup(func() { _ = ln.Close() })
	return f
}

func (f *fakeSMTP) port() int { return f.ln.Addr().(*net.TCPAddr).Port }

func (f *fakeSMTP) serve() {
	defer close(f.done)
	conn, err := f.ln.Accept()
	if err != nil {
		return
	}
	defer conn.Close()
	tp := textproto.NewConn(conn)
	_ = tp.PrintfLine("220 localhost ESMTP")
	for {
		line, err := tp.ReadLine()
		if err != nil {
			return
		}
		cmd := strings.ToUpper(line)
		switch {
		case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
			_ = tp.PrintfLine("250-localhost")
			_ = tp.PrintfLine("250 8BITMIME")
		case strings.HasPrefix(cmd, "MAIL FROM:"):
			f.from = strings.Trim(line[len("MAIL FROM:"):], "<> ")
			if i := strings.Index(f.from, ">"); i >= 0 {
				f.from = f.from[:i]
			}
			_ = tp.PrintfLine("250 OK")
		case strings.HasPrefix(cmd, "RCPT TO:"):
			f.to = strings.Trim(line[len("RCPT TO:"):], "<> ")
			_ = tp.PrintfLine("250 OK")
		case cmd == "DATA":
			_ = tp.PrintfLine("354 go ahead")
			b, err := tp.ReadDotBytes()
			if err != nil {
				return
			}
			f.data = string(b)
			_ = tp.PrintfLine("250 queued")
		case cmd == "QUIT":
			_ = tp.PrintfLine("221 bye")
			return
		default:
			_ = tp.PrintfLine("250 OK")
		}
	}
}

func TestSMTPSenderDeliversMultipartMessage(t *testing.T) {
	srv := startFakeSMTP(t)
	s := NewSMTPSender(SMTPConfig{Host: "127.0.0.1", Port: srv.port()})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.Send(ctx, Message{
		From:     "contact@userauth.local",
		To:       "ann@x.com",
		Subject:  "Account activation",
		TextBody: "code 123456",
		HTMLBody: "<p>code 123456</p>",
	})
	require.NoError(t, err)
	<-srv.done

	assert.Equal(t, "contact@userauth.local", srv.from)
	assert.Equal(t, "ann@x.com", srv.to)
	assert.Contains(t, srv.data, "Subject: Account activation")
	assert.Contains(t, srv.data, "multipart/alternative")
	assert.Contains(t, srv.data, "code 123456")
	assert.Contains(t, srv.data, "<p>code 123456</p>")
	assert.Contains(t, srv.data, "Message-ID: <")
}

func TestSMTPSenderDialFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	s := NewSMTPSender(SMTPConfig{Host: "127.0.0.1", Port: port})
	err = s.Send(context.Background(), Message{From: "a@x.com", To: "b@x.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp send 127.0.0.1:"+strconv.Itoa(port))
}

func TestComposeMsgEncodesHeaders(t *testing.T) {
	msg, err := composeMsg(Message{From: "a@x.com", To: "b@x.com", Subject: "Activación", TextBody: "hi"})
	require.NoError(t, err)

	var raw bytes.Buffer
	_, err = msg.WriteTo(&raw)
	require.NoError(t, err)

	r := textproto.NewReader(bufio.NewReader(&raw))
	hdr, err := r.ReadMIMEHeader()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(strings.ToLower(hdr.Get("Subject")), "=?utf-8?q?"), hdr.Get("Subject"))
	assert.NotEmpty(t, hdr.Get("Message-Id"))
	assert.Contains(t, hdr.Get("From"), "<a@x.com>")
	assert.NotContains(t, raw.String(), "text/html")
}

func TestComposeMsgRequiresAddresses(t *testing.T) {
	_, err := composeMsg(Message{To: "b@x.com"})
	assert.Error(t, err)

	_, err = composeMsg(Message{From: "a@x.com", To: "not an address"})
	assert.Error(t, err)
}

func TestLogSenderOmitsBody(t *testing.T) {
	var buf bytes.Buffer
	s := LogSender{Logger: slog.New(slog.NewJSONHandler(&buf, nil))}

	require.NoError(t, s.Send(context.Background(), Message{
		To:       "ann@x.com",
		Subject:  "Account activation",
		TextBody: "code 123456",
		HTMLBody: "<p>code 123456</p>",
	}))

	assert.Contains(t, buf.String(), "ann@x.com")
	assert.NotContains(t, buf.String(), "123456")
}
