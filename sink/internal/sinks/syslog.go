package sinks

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Labs64/labs64.io-auditflow/common/envelope"
	"github.com/Labs64/labs64.io-auditflow/common/plugin"
)

// Syslog severity levels per RFC 3164.
var syslogSeverity = map[string]int{
	"EMERGENCY": 0,
	"ALERT":     1,
	"CRITICAL":  2,
	"ERROR":     3,
	"WARNING":   4,
	"NOTICE":    5,
	"INFO":      6,
	"DEBUG":     7,
}

// Syslog facility codes per RFC 3164.
var syslogFacility = map[string]int{
	"KERN":     0,
	"USER":     1,
	"MAIL":     2,
	"DAEMON":   3,
	"AUTH":     4,
	"SYSLOG":   5,
	"LPR":      6,
	"NEWS":     7,
	"UUCP":     8,
	"CRON":     9,
	"AUTHPRIV": 10,
	"LOCAL0":   16,
	"LOCAL1":   17,
	"LOCAL2":   18,
	"LOCAL3":   19,
	"LOCAL4":   20,
	"LOCAL5":   21,
	"LOCAL6":   22,
	"LOCAL7":   23,
}

// Syslog delivers audit events to a syslog server over UDP or TCP in
// RFC 3164 framing.
type Syslog struct {
	// dialTimeout bounds the TCP connect.
	dialTimeout time.Duration
}

func NewSyslog() *Syslog {
	return &Syslog{dialTimeout: 10 * time.Second}
}

// Process sends the event to syslog. Properties:
//
//	host:     syslog server host (required)
//	port:     server port (default 514)
//	protocol: udp or tcp (default udp)
//	facility: syslog facility (default USER)
//	severity: syslog severity (default INFO)
//	tag:      application tag (default auditflow)
//	format:   json or cef (default json)
func (s *Syslog) Process(ctx context.Context, event envelope.Event, props plugin.Properties) (plugin.Result, error) {
	host := props.Get("host", "")
	if host == "" {
		return nil, plugin.MissingProperty("host")
	}

	port, err := strconv.Atoi(props.Get("port", "514"))
	if err != nil {
		return nil, &plugin.ConfigError{Field: "port", Reason: "must be an integer"}
	}
	protocol := strings.ToLower(props.Get("protocol", "udp"))
	if protocol != "udp" && protocol != "tcp" {
		return nil, &plugin.ConfigError{Field: "protocol", Reason: fmt.Sprintf("invalid protocol %q, must be udp or tcp", protocol)}
	}
	facility := strings.ToUpper(props.Get("facility", "USER"))
	severity := strings.ToUpper(props.Get("severity", "INFO"))
	tag := props.Get("tag", "auditflow")
	format := strings.ToLower(props.Get("format", "json"))

	facilityCode, ok := syslogFacility[facility]
	if !ok {
		facilityCode = syslogFacility["USER"]
	}
	severityCode, ok := syslogSeverity[severity]
	if !ok {
		severityCode = syslogSeverity["INFO"]
	}
	priority := facilityCode*8 + severityCode

	var message string
	if format == "cef" {
		message = formatCEF(event)
	} else {
		raw, err := json.Marshal(map[string]any(event))
		if err != nil {
			return nil, fmt.Errorf("marshal event: %w", err)
		}
		message = string(raw)
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}
	timestamp := time.Now().UTC().Format("Jan _2 15:04:05")
	syslogMessage := fmt.Sprintf("<%d>%s %s %s: %s", priority, timestamp, hostname, tag, message)

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	if err := s.send(protocol, addr, syslogMessage); err != nil {
		return nil, fmt.Errorf("failed to send event to syslog at %s: %w", addr, err)
	}

	return plugin.Result{
		"sent":           true,
		"destination":    "syslog",
		"host":           host,
		"port":           port,
		"protocol":       protocol,
		"facility":       facility,
		"severity":       severity,
		"message_length": len(syslogMessage),
	}, nil
}

func (s *Syslog) send(protocol, addr, message string) error {
	conn, err := net.DialTimeout(protocol, addr, s.dialTimeout)
	if err != nil {
		return err
	}
	defer conn.Close()

	payload := []byte(message)
	if protocol == "tcp" {
		payload = append(payload, '\n')
	}
	_, err = conn.Write(payload)
	return err
}

// formatCEF renders the event in Common Event Format:
// CEF:Version|Vendor|Product|Device Version|Signature ID|Name|Severity|Extension
func formatCEF(event envelope.Event) string {
	extra := event.Section("extra")

	signatureID := event.String("eventType", "unknown")
	name := extra.String("action_name", "unknown")

	extensions := []string{
		"src=" + event.String("sourceSystem", "unknown"),
		"act=" + extra.String("action_name", "unknown"),
		"outcome=" + extra.String("action_status", "unknown"),
	}
	if event.Has("eventId") {
		extensions = append(extensions, "externalId="+event.String("eventId", ""))
	}

	return fmt.Sprintf("CEF:0|Labs64|AuditFlow|1.0|%s|%s|5|%s",
		signatureID, name, strings.Join(extensions, " "))
}
