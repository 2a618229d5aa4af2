package tlsconfig

import (
	"net"
	"net/http"
	"strings"

	"todo-web/internal/logging"

	"github.com/sirupsen/logrus"
)

// RedirectHandler sends every plain HTTP request to the same path on the HTTPS port.
// 308 keeps the method, so form posts survive the redirect.
func RedirectHandler(httpsPort string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpsURL := "https://" + httpsHost(r.Host, httpsPort) + r.URL.RequestURI()

		logging.Logger.WithFields(logrus.Fields{
			"client_ip": r.RemoteAddr,
			"http_url":  r.URL.String(),
			"https_url": httpsURL,
			"method":    r.Method,
		}).Debug("HTTP to HTTPS redirect")

		http.Redirect(w, r, httpsURL, http.StatusPermanentRedirect)
	})
}

// httpsHost swaps the port of a request host, omitting the default 443
func httpsHost(host, httpsPort string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	} else {
		host = strings.Trim(host, "[]")
	}

	if httpsPort == "443" || httpsPort == "" {
		if strings.Contains(host, ":") {
			return "[" + host + "]"
		}
		return host
	}
	return net.JoinHostPort(host, httpsPort)
}
