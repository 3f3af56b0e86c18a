// Command handshakenode runs a minimal node that speaks only the
// transport handshake protocol: it listens for inbound connections and
// answers handshakes on each, and/or dials a peer and initiates one. With
// -dial it exits once that handshake resolves; with -listen alone it keeps
// serving until it is killed.
// It exists to exercise the handshake, wire, version and transport
// packages end to end against a real TCP socket.
package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opensearch-project/go-transport-handshake/handshake"
	"github.com/opensearch-project/go-transport-handshake/internal/clock"
	"github.com/opensearch-project/go-transport-handshake/transport"
	"github.com/opensearch-project/go-transport-handshake/version"
)

// Config holds command-line configuration for the node.
type Config struct {
	listenAddr string
	dialAddr   string
	version    string
	timeout    time.Duration
	logLevel   string
}

func parseFlags() *Config {
	cfg := &Config{}
	flag.StringVar(&cfg.listenAddr, "listen", "", "address to accept inbound handshakes on (e.g. :4545)")
	flag.StringVar(&cfg.dialAddr, "dial", "", "peer address to dial and initiate a handshake against")
	flag.StringVar(&cfg.version, "version", "2.5.0.0", "local protocol version, as major.minor.revision.build")
	flag.DurationVar(&cfg.timeout, "timeout", 5*time.Second, "handshake timeout when dialing")
	flag.StringVar(&cfg.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flag.Parse()
	return cfg
}

func main() {
	cfg := parseFlags()

	level, err := logrus.ParseLevel(cfg.logLevel)
	if err != nil {
		logrus.WithError(err).Fatal("invalid -log-level")
	}
	logrus.SetLevel(level)

	local, err := parseVersion(cfg.version)
	if err != nil {
		logrus.WithError(err).Fatal("invalid -version")
	}

	if cfg.listenAddr == "" && cfg.dialAddr == "" {
		fmt.Fprintln(os.Stderr, "handshakenode: at least one of -listen or -dial is required")
		flag.PrintDefaults()
		os.Exit(2)
	}

	if cfg.listenAddr != "" {
		go runListener(cfg.listenAddr, local)
	}
	if cfg.dialAddr != "" {
		runDialer(cfg.dialAddr, local, cfg.timeout)
	} else {
		select {}
	}
}

func parseVersion(s string) (version.Version, error) {
	var major, minor, revision, build int
	if _, err := fmt.Sscanf(s, "%d.%d.%d.%d", &major, &minor, &revision, &build); err != nil {
		return 0, fmt.Errorf("expected major.minor.revision.build, got %q: %w", s, err)
	}
	return version.New(major, minor, revision, build), nil
}

func runListener(addr string, local version.Version) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		logrus.WithError(err).Fatal("listen failed")
	}
	logrus.WithField("addr", ln.Addr()).Info("handshakenode: listening")

	handshaker := handshake.NewHandshaker(local, clock.Real{}, transport.NewChannelRequestSender())

	for {
		conn, err := ln.Accept()
		if err != nil {
			logrus.WithError(err).Error("accept failed")
			return
		}
		go serve(conn, handshaker)
	}
}

func serve(conn net.Conn, handshaker *handshake.Handshaker) {
	logrus.WithField("remote", conn.RemoteAddr()).Info("handshakenode: accepted connection")
	dispatcher := transport.NewDispatcher(handshaker)
	ch := transport.NewTCPChannel(conn)
	ch.SetFrameHandler(dispatcher.OnFrame(ch))
}

func runDialer(addr string, local version.Version, timeout time.Duration) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		logrus.WithError(err).Fatal("dial failed")
	}
	defer conn.Close()

	handshaker := handshake.NewHandshaker(local, clock.Real{}, transport.NewChannelRequestSender())
	dispatcher := transport.NewDispatcher(handshaker)
	ch := transport.NewTCPChannel(conn)
	ch.SetFrameHandler(dispatcher.OnFrame(ch))

	done := make(chan struct{})
	var negotiated version.Version
	var handshakeErr error
	handshaker.SendHandshake(1, addr, ch, timeout, func(v version.Version, err error) {
		negotiated, handshakeErr = v, err
		close(done)
	})

	<-done
	if handshakeErr != nil {
		logrus.WithError(handshakeErr).Fatal("handshake failed")
	}
	logrus.WithField("negotiated_version", negotiated).Info("handshakenode: handshake succeeded")
}
