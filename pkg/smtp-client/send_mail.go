package smtp_client

import (
	"errors"
	"log/slog"
	"net/textproto"
	"time"

	"github.com/jordan-wright/email"
)

// HeaderOverrides replaces header defaults of the server list for a
// single message.
type HeaderOverrides struct {
	From      string   `json:"from"`
	Sender    string   `json:"sender"`
	ReplyTo   []string `json:"replyTo"`
	NoReplyTo bool     `json:"noReplyTo"`
}

// SendMail delivers one HTML message through the next pool in
// round-robin order. A failed send triggers a reconnect attempt on the
// affected server.
func (sc *SmtpClients) SendMail(
	to []string,
	subject string,
	htmlContent string,
	overrides *HeaderOverrides,
) error {
	sc.counter += 1
	if len(sc.connections) < 1 {
		sc.connections = openConnections(sc.servers.Servers)
		if len(sc.connections) < 1 {
			return errors.New("no smtp server connection in the pool")
		}
	}

	index := int(sc.counter % uint64(len(sc.connections)))
	conn := sc.connections[index]

	from := sc.servers.From
	sender := sc.servers.Sender
	replyTo := sc.servers.ReplyTo

	if overrides != nil {
		if overrides.From != "" {
			from = overrides.From
		}
		if overrides.Sender != "" {
			sender = overrides.Sender
		}

		if overrides.NoReplyTo {
			replyTo = []string{}
		} else if len(overrides.ReplyTo) > 0 {
			replyTo = overrides.ReplyTo
		}
	}

	e := &email.Email{
		To:      to,
		From:    from,
		Sender:  sender,
		ReplyTo: replyTo,
		Subject: subject,
		HTML:    []byte(htmlContent),
		Headers: textproto.MIMEHeader{},
	}
	err := conn.pool.Send(e, time.Second*time.Duration(conn.server.SendTimeout))
	if err != nil {
		// close and try to reconnect
		slog.Error("error when trying to send email", slog.String("error", err.Error()))

		pool, errReconnect := connectToPool(conn.server)
		if errReconnect != nil {
			slog.Error("cannot reconnect pool", slog.String("error", errReconnect.Error()), slog.String("server", conn.server.Host))
		} else {
			slog.Info("reconnected to pool", slog.String("server", conn.server.Host))
			conn.pool = pool
		}
	}
	return err
}
