package rest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/berfenger/askoheat2mqtt/internal/core/port"

	"go.uber.org/zap"
)

var ErrUnknownEmergencyState = errors.New("emergency mode state not found in response")

// HTTPEmergencySwitch drives the /on and /off endpoints of the heater web
// interface.
type HTTPEmergencySwitch struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func NewHTTPEmergencySwitch(host string, timeout time.Duration, logger *zap.Logger) *HTTPEmergencySwitch {
	baseURL := host
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}
	return &HTTPEmergencySwitch{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With(zap.String("component", "emergency")),
	}
}

func (s *HTTPEmergencySwitch) SetEmergencyMode(ctx context.Context, enable bool) (bool, error) {
	command := "off"
	if enable {
		command = "on"
	}
	url := fmt.Sprintf("%s/%s", s.baseURL, command)
	s.logger.Debug("emergency: call rest command", zap.String("url", url))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	res, err := s.client.Do(req)
	if err != nil {
		return false, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 4096))
	if err != nil {
		return false, err
	}
	if res.StatusCode != http.StatusOK {
		return false, fmt.Errorf("emergency %s: unexpected status %d: %s", command, res.StatusCode, strings.TrimSpace(string(body)))
	}

	text := string(body)
	switch {
	case strings.Contains(text, "OFF"):
		return false, nil
	case strings.Contains(text, "ON"):
		return true, nil
	}
	return false, ErrUnknownEmergencyState
}

// ensure interface compliance
var _ port.EmergencySwitch = (*HTTPEmergencySwitch)(nil)
