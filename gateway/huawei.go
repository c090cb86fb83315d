package gateway

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/lte-dashboard/exporter/netmode"
)

const (
	passwordTypeBase64 = "0"
	passwordTypeSHA256 = "4"
	stateLoggedIn      = "0"
)

// HuaweiClient implements GatewayClient for Huawei LTE routers
// (B525, B535, B618, E5186 and similar firmwares).
type HuaweiClient struct {
	config     ClientConfig
	httpClient *http.Client
	logger     *slog.Logger

	mu       sync.Mutex
	tokens   []string
	model    string
	loggedIn bool
}

// NewHuaweiClient creates a client around an existing http.Client. The
// session is not opened; NewClient does that.
func NewHuaweiClient(cfg ClientConfig, httpClient *http.Client, logger *slog.Logger) (*HuaweiClient, error) {
	if httpClient == nil {
		return nil, fmt.Errorf("httpClient is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HuaweiClient{
		config:     cfg,
		httpClient: httpClient,
		logger:     logger,
		model:      ModelUnknown,
	}, nil
}

// openSession fetches a session cookie and the first request token.
func (c *HuaweiClient) openSession(ctx context.Context) error {
	values, err := c.get(ctx, "webserver/SesTokInfo")
	if err != nil {
		return err
	}

	if sesInfo := values["SesInfo"]; sesInfo != "" && c.httpClient.Jar != nil {
		name, value, found := strings.Cut(sesInfo, "=")
		if !found {
			name, value = "SessionID", sesInfo
		}
		base, err := url.Parse(c.config.URL)
		if err != nil {
			return fmt.Errorf("invalid router URL: %w", err)
		}
		c.httpClient.Jar.SetCookies(base, []*http.Cookie{{Name: name, Value: value, Path: "/"}})
	}

	if tok := values["TokInfo"]; tok != "" {
		c.mu.Lock()
		c.tokens = []string{tok}
		c.mu.Unlock()
	}
	return nil
}

// requestToken returns a token for the next write, asking the router for
// a new one when none is left over from previous responses.
func (c *HuaweiClient) requestToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	if len(c.tokens) > 0 {
		tok := c.tokens[0]
		c.tokens = c.tokens[1:]
		c.mu.Unlock()
		return tok, nil
	}
	c.mu.Unlock()

	values, err := c.get(ctx, "webserver/SesTokInfo")
	if err != nil {
		return "", fmt.Errorf("failed to get request token: %w", err)
	}
	tok := values["TokInfo"]
	if tok == "" {
		return "", fmt.Errorf("router returned an empty request token")
	}
	return tok, nil
}

// storeTokens keeps the tokens a response hands out for later writes.
func (c *HuaweiClient) storeTokens(h http.Header) {
	var tokens []string
	if v := h.Get(tokenHeader); v != "" {
		for _, t := range strings.Split(v, "#") {
			if t != "" {
				tokens = append(tokens, t)
			}
		}
	} else if v := h.Get(tokenHeaderOne); v != "" {
		tokens = []string{v}
	}
	if len(tokens) == 0 {
		return
	}

	c.mu.Lock()
	c.tokens = tokens
	c.mu.Unlock()
}

func (c *HuaweiClient) login(ctx context.Context) error {
	state, err := c.get(ctx, "user/state-login")
	if err != nil {
		return err
	}
	if state["State"] == stateLoggedIn {
		c.logger.DebugContext(ctx, "session already logged in")
		c.setLoggedIn(true)
		return nil
	}

	passwordType := state["password_type"]
	if passwordType == "" {
		passwordType = passwordTypeBase64
	}

	token, err := c.requestToken(ctx)
	if err != nil {
		return err
	}
	// The token used to salt the password is sent with the login request.
	c.mu.Lock()
	c.tokens = append([]string{token}, c.tokens...)
	c.mu.Unlock()

	_, err = c.post(ctx, "user/login",
		field{"Username", c.config.Username},
		field{"Password", encodePassword(c.config.Username, c.config.Password, token, passwordType)},
		field{"password_type", passwordType},
	)
	if err != nil && !IsAPIError(err, ErrCodeUserAlreadyLogin) {
		return err
	}

	c.setLoggedIn(true)
	c.logger.InfoContext(ctx, "logged in to router", slog.String("username", c.config.Username))
	return nil
}

// encodePassword encodes the password as the login form of the router's
// web UI does.
func encodePassword(username, password, token, passwordType string) string {
	if passwordType != passwordTypeSHA256 {
		return base64.StdEncoding.EncodeToString([]byte(password))
	}
	passwordHash := sha256.Sum256([]byte(password))
	encoded := base64.StdEncoding.EncodeToString([]byte(hex.EncodeToString(passwordHash[:])))
	sum := sha256.Sum256([]byte(username + encoded + token))
	return base64.StdEncoding.EncodeToString([]byte(hex.EncodeToString(sum[:])))
}

func (c *HuaweiClient) setLoggedIn(v bool) {
	c.mu.Lock()
	c.loggedIn = v
	c.mu.Unlock()
}

// detectModel records the router's device name. Failure is not fatal.
func (c *HuaweiClient) detectModel(ctx context.Context) {
	for _, candidate := range []struct{ endpoint, key string }{
		{"device/basic_information", "devicename"},
		{"device/information", "DeviceName"},
	} {
		values, err := c.get(ctx, candidate.endpoint)
		if err != nil {
			c.logger.DebugContext(ctx, "model detection failed",
				slog.String("endpoint", candidate.endpoint), slog.Any("error", err))
			continue
		}
		if name := values[candidate.key]; name != "" {
			c.mu.Lock()
			c.model = name
			c.mu.Unlock()
			return
		}
	}
}

// GetStatus retrieves the current signal metrics.
func (c *HuaweiClient) GetStatus(ctx context.Context) (*GatewayStatus, error) {
	values, err := c.get(ctx, "device/signal")
	if err != nil {
		return nil, fmt.Errorf("failed to get signal: %w", err)
	}

	return &GatewayStatus{
		Model: c.GetModel(),
		Signal: SignalMetrics{
			RSRP: parseFloat(values["rsrp"]),
			RSRQ: parseFloat(values["rsrq"]),
			RSSI: parseFloat(values["rssi"]),
			SINR: parseFloat(values["sinr"]),
		},
		Cell: CellInfo{
			PCI:       parseInt(values["pci"]),
			CellID:    parseInt(values["cell_id"]),
			Band:      parseBand(values["band"]),
			Bandwidth: values["dlbandwidth"],
		},
		Connection: ConnectionInfo{
			Type: connectionType(values["mode"]),
		},
	}, nil
}

// NetModeSettings fetches the combined net-mode snapshot. Fields the router
// leaves out are absent from the result.
func (c *HuaweiClient) NetModeSettings(ctx context.Context) (netmode.Settings, error) {
	values, err := c.get(ctx, "net/net-mode")
	if err != nil {
		return nil, err
	}
	return netmode.Settings(values), nil
}

// SetNetMode writes the combined net-mode endpoint.
func (c *HuaweiClient) SetNetMode(ctx context.Context, lteBand netmode.LTEBand, networkBand netmode.NetworkBand, mode netmode.NetworkMode) error {
	_, err := c.post(ctx, "net/net-mode",
		field{netmode.KeyNetworkMode, string(mode)},
		field{netmode.KeyNetworkBand, networkBand.Hex()},
		field{netmode.KeyLTEBand, lteBand.Hex()},
	)
	return err
}

// GetModel returns the router model.
func (c *HuaweiClient) GetModel() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.model
}

// Close logs out of the router if the client logged in.
func (c *HuaweiClient) Close() error {
	c.mu.Lock()
	loggedIn := c.loggedIn
	c.mu.Unlock()
	if !loggedIn {
		return nil
	}

	timeout := c.config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if _, err := c.post(ctx, "user/logout", field{"Logout", "1"}); err != nil {
		return fmt.Errorf("failed to log out: %w", err)
	}
	c.setLoggedIn(false)
	return nil
}

func connectionType(mode string) string {
	switch strings.TrimSpace(mode) {
	case "0":
		return "2G"
	case "2":
		return "3G"
	case "7":
		return "LTE"
	case "":
		return "unknown"
	default:
		return mode
	}
}
