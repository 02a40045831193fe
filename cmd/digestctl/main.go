// Command digestctl prints the digest of every stdin line, sha256sum style.
//
// By default lines are sent to a hexdigest server over WebSocket; with
// --offline they are hashed locally.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	flag "github.com/spf13/pflag"

	"github.com/satriahrh/cocoa-fruit/hexdigest/adapters/hasher"
	ws "github.com/satriahrh/cocoa-fruit/hexdigest/adapters/websocket"
	"github.com/satriahrh/cocoa-fruit/hexdigest/domain"
)

const defaultServerURL = "ws://localhost:8080/ws"

type options struct {
	server      string
	token       string
	algorithm   string
	backend     string
	opensslLib  string
	offline     bool
	readTimeout time.Duration
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "digestctl:", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}

	var digest func(line string) (string, error)
	if opts.offline {
		h, err := hasher.New(hasher.Config{
			Algorithm:      domain.Algorithm(opts.algorithm),
			Backend:        opts.backend,
			OpenSSLLibrary: opts.opensslLib,
		})
		if err != nil {
			return err
		}
		digest = func(line string) (string, error) { return h.Hash([]byte(line)) }
	} else {
		remote, err := dial(opts)
		if err != nil {
			return err
		}
		defer remote.close()
		digest = remote.digest
	}

	scanner := bufio.NewScanner(stdin)
	scanner.Buffer(make([]byte, 64*1024), 512*1024)
	for scanner.Scan() {
		line := scanner.Text()
		hex, err := digest(line)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%s  %s\n", hex, line)
	}
	return scanner.Err()
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("digestctl", flag.ContinueOnError)
	fs.StringVarP(&opts.server, "server", "s", defaultServerURL, "hexdigest WebSocket URL")
	fs.StringVarP(&opts.token, "token", "t", os.Getenv("HEXDIGEST_TOKEN"), "JWT from /api/v1/auth/token (default $HEXDIGEST_TOKEN)")
	fs.StringVarP(&opts.algorithm, "algorithm", "a", string(domain.DefaultAlgorithm), "digest algorithm: sha256, sha3-256 or blake3")
	fs.StringVar(&opts.backend, "backend", hasher.BackendStd, "sha256 backend for --offline: std, simd or openssl")
	fs.StringVar(&opts.opensslLib, "openssl-lib", "libcrypto.so.3", "libcrypto loaded by --backend=openssl")
	fs.BoolVar(&opts.offline, "offline", false, "hash locally instead of calling the server")
	fs.DurationVar(&opts.readTimeout, "timeout", 10*time.Second, "per-line server timeout")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if !opts.offline && opts.token == "" {
		return options{}, errors.New("--token is required unless --offline is set")
	}
	return opts, nil
}

type remote struct {
	conn      *websocket.Conn
	algorithm domain.Algorithm
	timeout   time.Duration
	seq       int
}

func dial(opts options) (*remote, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+opts.token)
	conn, _, err := websocket.DefaultDialer.Dial(opts.server, header)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", opts.server, err)
	}
	return &remote{conn: conn, algorithm: domain.Algorithm(opts.algorithm), timeout: opts.readTimeout}, nil
}

// digest sends one request and waits for its reply, skipping event frames.
func (r *remote) digest(line string) (string, error) {
	r.seq++
	id := strconv.Itoa(r.seq)
	if err := r.conn.WriteJSON(ws.Request{Type: ws.TypeDigest, RequestID: id, Algorithm: r.algorithm, Input: &line}); err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}

	r.conn.SetReadDeadline(time.Now().Add(r.timeout))
	for {
		var resp ws.Response
		if err := r.conn.ReadJSON(&resp); err != nil {
			return "", fmt.Errorf("reading response: %w", err)
		}
		if resp.RequestID != id {
			continue
		}
		switch resp.Type {
		case ws.TypeDigest:
			return resp.Hex, nil
		case ws.TypeError:
			return "", fmt.Errorf("server error %s: %s", resp.Code, resp.Message)
		}
	}
}

func (r *remote) close() {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = r.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	r.conn.Close()
}
