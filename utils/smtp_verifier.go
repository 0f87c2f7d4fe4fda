package utils

import (
	"bufio"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// SMTP probe outcome per address.
const (
	SMTPStatusValid   = "valid"
	SMTPStatusInvalid = "invalid"
	SMTPStatusUnknown = "unknown"
	SMTPStatusError   = "error"
)

// ProbeResult is the verdict for one candidate address. Code is the raw SMTP
// reply code from RCPT TO, or 0 when no reply was obtained.
type ProbeResult struct {
	Email  string `json:"email"`
	Status string `json:"status"`
	Code   int    `json:"code,omitempty"`
}

// SMTPVerifier probes candidate addresses against a mail exchange over a
// single SMTP connection: one EHLO session, then MAIL FROM / RCPT TO / RSET
// per address. Reconnecting per candidate would be an order of magnitude
// slower and far more likely to trip server-side rate limits.
type SMTPVerifier struct {
	HeloDomain     string
	Port           int
	ConnectTimeout time.Duration
	ReplyTimeout   time.Duration
	Logger         *logrus.Entry
}

func NewSMTPVerifier(heloDomain string, port int) *SMTPVerifier {
	return &SMTPVerifier{
		HeloDomain:     heloDomain,
		Port:           port,
		ConnectTimeout: 5 * time.Second,
		ReplyTimeout:   5 * time.Second,
		Logger:         logrus.WithField("component", "smtp_verifier"),
	}
}

// VerifyAddresses probes every address against mxHost and returns one result
// per address, in input order. It never returns an error: connection failures
// and protocol faults are reported through per-address statuses.
func (v *SMTPVerifier) VerifyAddresses(emails []string, mxHost string) []ProbeResult {
	results := make([]ProbeResult, len(emails))
	for i, email := range emails {
		results[i] = ProbeResult{Email: email, Status: SMTPStatusError}
	}
	if len(emails) == 0 {
		return results
	}

	addr := net.JoinHostPort(mxHost, strconv.Itoa(v.Port))
	conn, err := net.DialTimeout("tcp", addr, v.ConnectTimeout)
	if err != nil {
		v.Logger.WithField("mx", mxHost).Debugf("connect failed: %v", err)
		return results
	}
	defer conn.Close()

	session := &smtpSession{conn: conn, reader: bufio.NewReader(conn), timeout: v.ReplyTimeout}

	// Greeting must be 2xx, session open must succeed; otherwise the whole
	// run is reported as error for every address.
	code, err := session.readReply()
	if err != nil || code/100 != 2 {
		v.Logger.WithField("mx", mxHost).Debugf("bad greeting (code=%d err=%v)", code, err)
		return results
	}
	code, err = session.command("EHLO " + v.HeloDomain)
	if err != nil || code != 250 {
		v.Logger.WithField("mx", mxHost).Debugf("EHLO rejected (code=%d err=%v)", code, err)
		return results
	}

	for i, email := range emails {
		results[i] = v.probeOne(session, email)
	}

	// Best effort; the deferred Close releases the connection either way.
	_ = session.write("QUIT")

	return results
}

// probeOne runs the per-address sub-transaction: declare a sender, query the
// recipient, then reset so the session can carry the next candidate.
func (v *SMTPVerifier) probeOne(session *smtpSession, email string) ProbeResult {
	result := ProbeResult{Email: email, Status: SMTPStatusError}

	code, err := session.command("MAIL FROM:<>")
	if err != nil {
		return result
	}
	if code != 250 {
		// Some servers refuse the null sender; retry with a synthetic one.
		code, err = session.command(fmt.Sprintf("MAIL FROM:<verify@%s>", v.HeloDomain))
		if err != nil {
			return result
		}
		if code != 250 {
			result.Code = code
			return result
		}
	}

	code, err = session.command(fmt.Sprintf("RCPT TO:<%s>", email))
	if err != nil {
		return result
	}
	result.Code = code
	switch {
	case code == 250 || code == 251:
		result.Status = SMTPStatusValid
	case code >= 550 && code <= 559:
		result.Status = SMTPStatusInvalid
	case code >= 450 && code <= 459:
		result.Status = SMTPStatusUnknown
	default:
		result.Status = SMTPStatusUnknown
	}

	_, _ = session.command("RSET")
	return result
}

// IsCatchAll probes a synthetic local-part that should not exist. A valid
// verdict means the server accepts any recipient, so acceptance probes on
// this domain are not diagnostic.
func (v *SMTPVerifier) IsCatchAll(domain, mxHost string) bool {
	garbage := fmt.Sprintf("xq9z7m2k4j_probe_%d@%s", time.Now().UnixNano(), domain)
	results := v.VerifyAddresses([]string{garbage}, mxHost)
	return len(results) == 1 && results[0].Status == SMTPStatusValid
}

type smtpSession struct {
	conn    net.Conn
	reader  *bufio.Reader
	timeout time.Duration
}

func (s *smtpSession) write(cmd string) error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.timeout)); err != nil {
		return err
	}
	_, err := s.conn.Write([]byte(cmd + "\r\n"))
	return err
}

func (s *smtpSession) command(cmd string) (int, error) {
	if err := s.write(cmd); err != nil {
		return 0, err
	}
	return s.readReply()
}

// readReply consumes one SMTP reply, which may span multiple lines. A reply
// is complete when a line's 3-digit code is followed by a space (a hyphen
// marks continuation). The read deadline bounds the whole accumulation.
func (s *smtpSession) readReply() (int, error) {
	if err := s.conn.SetReadDeadline(time.Now().Add(s.timeout)); err != nil {
		return 0, err
	}
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			return 0, err
		}
		line = strings.TrimRight(line, "\r\n")
		if len(line) < 3 {
			return 0, fmt.Errorf("short SMTP reply line %q", line)
		}
		code, err := strconv.Atoi(line[:3])
		if err != nil {
			return 0, fmt.Errorf("malformed SMTP reply line %q", line)
		}
		if len(line) > 3 && line[3] == '-' {
			continue
		}
		return code, nil
	}
}
