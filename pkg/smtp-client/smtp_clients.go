package smtp_client

import (
	"crypto/tls"
	"log/slog"
	"net/smtp"
	"strconv"
	"time"

	"github.com/knadh/smtppool"
)

// smtpConnection keeps the pool together with the server it belongs to,
// so reconnects and timeouts always use the right definition even when
// some configured servers could not be reached.
type smtpConnection struct {
	server SmtpServer
	pool   *smtppool.Pool
}

type SmtpClients struct {
	servers     SmtpServerList
	connections []*smtpConnection
	counter     uint64
}

func NewSmtpClients(config SmtpServerList) (*SmtpClients, error) {
	sc := &SmtpClients{
		servers:     config,
		connections: openConnections(config.Servers),
	}
	if len(config.Servers) > 0 && len(sc.connections) == 0 {
		slog.Warn("no smtp server reachable, will retry on first send")
	}
	return sc, nil
}

func openConnections(servers []SmtpServer) []*smtpConnection {
	connections := []*smtpConnection{}
	for _, server := range servers {
		pool, err := connectToPool(server)
		if err != nil {
			slog.Error("error setting up connection pool", slog.String("error", err.Error()), slog.String("server", server.Address()))
			continue
		}
		connections = append(connections, &smtpConnection{server: server, pool: pool})
	}
	return connections
}

func connectToPool(server SmtpServer) (*smtppool.Pool, error) {
	auth := smtp.PlainAuth(
		"",
		server.AuthData.Username,
		server.AuthData.Password,
		server.Host,
	)
	if server.AuthData.Username == "" && server.AuthData.Password == "" {
		auth = nil
	}

	tlsOpts := &tls.Config{
		InsecureSkipVerify: server.InsecureSkipVerify,
		ServerName:         server.Host,
	}
	port, err := strconv.Atoi(server.Port)
	if err != nil {
		return nil, err
	}

	pool, err := smtppool.New(smtppool.Opt{
		Host:            server.Host,
		Port:            port,
		MaxConns:        server.Connections,
		IdleTimeout:     time.Duration(server.SendTimeout) * time.Second,
		PoolWaitTimeout: time.Duration(server.SendTimeout) * time.Second,
		TLSConfig:       tlsOpts,
		Auth:            auth,
	})
	return pool, err
}
