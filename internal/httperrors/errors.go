// Copyright (c) 2025 gdc authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package httperrors provides user-friendly rendering of connectivity failures
// against the platform API and the staging service.
package httperrors

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"syscall"

	gderrors "gooddata/cli/internal/errors"
)

// Category is the broad cause of a connectivity failure.
type Category int

const (
	Generic Category = iota
	Timeout
	DNS
	ConnectionRefused
	TLS
	// Degraded means the platform answered, but not with an API response
	// (maintenance pages, proxy errors, HTML bodies).
	Degraded
)

// Classify determines the category of err.
func Classify(err error) Category {
	switch {
	case err == nil:
		return Generic
	case isTimeoutError(err):
		return Timeout
	case isDNSError(err):
		return DNS
	case isConnectionRefusedError(err):
		return ConnectionRefused
	case isSSLError(err):
		return TLS
	}
	var e *gderrors.E
	if errors.As(err, &e) && e.StatusCode != 0 {
		return Degraded
	}
	return Generic
}

// Describe renders a user-friendly explanation of a connectivity failure that
// happened while doing context.
func Describe(err error, context string) string {
	host := "the platform"
	var e *gderrors.E
	if errors.As(err, &e) && e.URI != "" {
		host = ExtractHostFromURL(e.URI)
	}

	var b strings.Builder
	switch Classify(err) {
	case Timeout:
		fmt.Fprintf(&b, "⏱️  Connection timeout while %s\n\n", context)
		b.WriteString("The server took too long to respond. This could mean:\n")
		b.WriteString("  • Slow internet connection\n")
		b.WriteString("  • Server is under heavy load\n")
		b.WriteString("  • Network firewall is blocking the connection\n\n")
		b.WriteString("Please try again in a few moments, or raise --http-timeout.\n")
	case DNS:
		fmt.Fprintf(&b, "🌐 Cannot resolve server address while %s\n\n", context)
		fmt.Fprintf(&b, "Unable to look up %s. Please check:\n", host)
		b.WriteString("  • Your internet connection is working\n")
		b.WriteString("  • The --host and --staging-host settings are correct\n")
		b.WriteString("  • No DNS-level blocking (corporate firewall, VPN)\n")
	case ConnectionRefused:
		fmt.Fprintf(&b, "🚫 Connection refused while %s\n\n", context)
		b.WriteString("The server is not accepting connections. This could mean:\n")
		b.WriteString("  • The service is temporarily down\n")
		b.WriteString("  • Firewall is blocking the connection\n")
		b.WriteString("  • Wrong server address or port\n")
	case TLS:
		fmt.Fprintf(&b, "🔒 Secure connection failed while %s\n\n", context)
		b.WriteString("Cannot establish a secure HTTPS connection. This could mean:\n")
		b.WriteString("  • SSL/TLS certificate issue\n")
		b.WriteString("  • Network proxy interfering with HTTPS\n")
		b.WriteString("  • System clock is incorrect\n")
	case Degraded:
		fmt.Fprintf(&b, "⚠️  The platform is not answering normally while %s\n\n", context)
		if e != nil {
			fmt.Fprintf(&b, "%s returned HTTP %d without an API error document.\n", host, e.StatusCode)
		}
		b.WriteString("This usually means maintenance or an outage on the platform side.\n")
		b.WriteString("Please try again in a few minutes.\n")
	default:
		fmt.Fprintf(&b, "❌ Cannot connect to %s while %s\n\n", host, context)
		b.WriteString("Please check:\n")
		b.WriteString("  • Your internet connection\n")
		b.WriteString("  • Firewall settings that might block HTTPS requests\n")
	}
	b.WriteString("\n")
	return b.String()
}

// isTimeoutError checks if the error is a timeout error.
func isTimeoutError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded")
}

// isDNSError checks if the error is a DNS resolution error.
func isDNSError(err error) bool {
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

// isConnectionRefusedError checks if the error is a connection refused error.
func isConnectionRefusedError(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "connection refused")
}

// isSSLError checks if the error is an SSL/TLS error.
func isSSLError(err error) bool {
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "tls") ||
		strings.Contains(errStr, "x509") ||
		strings.Contains(errStr, "certificate") ||
		strings.Contains(errStr, "handshake")
}

// ExtractHostFromURL extracts the hostname from a URL for error messages.
func ExtractHostFromURL(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil || u.Host == "" {
		return "the platform"
	}
	return u.Host
}
