package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/safetatt/safetatt-backend/pkg/config"
	"github.com/safetatt/safetatt-backend/pkg/enums"
	pkgerrors "github.com/safetatt/safetatt-backend/pkg/errors"
	"github.com/safetatt/safetatt-backend/pkg/logger"
)

var (
	errBaseURLRequired = errors.New("whatsapp base url is required")
	errAPIKeyRequired  = errors.New("whatsapp api key is required")
	errLoggerRequired  = errors.New("whatsapp logger is required")
)

// Client talks to the WhatsApp gateway HTTP API with centralized auth,
// logging, and error mapping.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *logger.Logger
}

// Sender is the minimal surface needed by campaign dispatch.
type Sender interface {
	SendText(ctx context.Context, instance, token string, params SendTextParams) (*SendTextResult, error)
}

// InstanceAPI is the surface needed by studio provisioning and health checks.
type InstanceAPI interface {
	ConnectionState(ctx context.Context, instance, token string) (enums.WhatsAppConnectionState, error)
	Connect(ctx context.Context, instance, token string) (*ConnectResult, error)
	CreateInstance(ctx context.Context, params CreateInstanceParams) (*CreateInstanceResult, error)
}

// NewClient initializes the gateway wrapper and validates configuration.
func NewClient(ctx context.Context, cfg config.WhatsAppConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errBaseURLRequired
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
		logger:     logg,
	}

	logg.Info(ctx, "whatsapp client initialized")
	return c, nil
}

// SendTextParams carries one outbound text message.
type SendTextParams struct {
	Number   string
	Text     string
	DelayMS  int
	Presence string
}

// SendTextResult is the gateway acknowledgement for a sent message.
type SendTextResult struct {
	Success   bool
	MessageID string
}

// ConnectResult carries the pairing material returned by the gateway.
type ConnectResult struct {
	QRCodeBase64 string
	PairingCode  string
}

// CreateInstanceParams provisions a new messaging instance.
type CreateInstanceParams struct {
	InstanceName string
	Token        string
	Number       string
}

// CreateInstanceResult reports the provisioned instance identity.
type CreateInstanceResult struct {
	InstanceName string
	Token        string
	Status       string
}

// ConnectionState fetches the live connection state for the instance.
func (c *Client) ConnectionState(ctx context.Context, instance, token string) (enums.WhatsAppConnectionState, error) {
	if strings.TrimSpace(instance) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "whatsapp instance is required")
	}

	var out struct {
		Instance struct {
			State string `json:"state"`
		} `json:"instance"`
		State string `json:"state"`
	}
	path := "/instance/connectionState/" + url.PathEscape(instance)
	if err := c.do(ctx, http.MethodGet, path, token, nil, &out); err != nil {
		return "", err
	}

	state := out.Instance.State
	if state == "" {
		state = out.State
	}
	parsed, ok := enums.ParseWhatsAppConnectionState(state)
	if !ok {
		return "", pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("unexpected connection state %q", state))
	}
	return parsed, nil
}

// Connect requests pairing material (QR code or pairing code) for the instance.
func (c *Client) Connect(ctx context.Context, instance, token string) (*ConnectResult, error) {
	if strings.TrimSpace(instance) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "whatsapp instance is required")
	}

	var out struct {
		Base64      string `json:"base64"`
		Code        string `json:"code"`
		PairingCode string `json:"pairingCode"`
	}
	path := "/instance/connect/" + url.PathEscape(instance)
	if err := c.do(ctx, http.MethodGet, path, token, nil, &out); err != nil {
		return nil, err
	}

	result := &ConnectResult{
		QRCodeBase64: out.Base64,
		PairingCode:  out.PairingCode,
	}
	if result.QRCodeBase64 == "" {
		result.QRCodeBase64 = out.Code
	}
	return result, nil
}

// CreateInstance provisions a gateway messaging instance.
func (c *Client) CreateInstance(ctx context.Context, params CreateInstanceParams) (*CreateInstanceResult, error) {
	if strings.TrimSpace(params.InstanceName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "instance name is required")
	}

	body := map[string]any{
		"instanceName": params.InstanceName,
	}
	if params.Token != "" {
		body["token"] = params.Token
	}
	if params.Number != "" {
		body["number"] = params.Number
	}

	var out struct {
		Instance struct {
			InstanceName string `json:"instanceName"`
			Status       string `json:"status"`
		} `json:"instance"`
		Hash struct {
			APIKey string `json:"apikey"`
		} `json:"hash"`
	}
	if err := c.do(ctx, http.MethodPost, "/instance/create", "", body, &out); err != nil {
		return nil, err
	}

	return &CreateInstanceResult{
		InstanceName: out.Instance.InstanceName,
		Token:        out.Hash.APIKey,
		Status:       out.Instance.Status,
	}, nil
}

// SendText pushes a single text message through the instance.
func (c *Client) SendText(ctx context.Context, instance, token string, params SendTextParams) (*SendTextResult, error) {
	if strings.TrimSpace(instance) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "whatsapp instance is required")
	}
	if strings.TrimSpace(params.Number) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipient number is required")
	}
	if strings.TrimSpace(params.Text) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "message text is required")
	}

	options := map[string]any{}
	if params.DelayMS > 0 {
		options["delay"] = params.DelayMS
	}
	if params.Presence != "" {
		options["presence"] = params.Presence
	}
	body := map[string]any{
		"number":      params.Number,
		"textMessage": map[string]any{"text": params.Text},
	}
	if len(options) > 0 {
		body["options"] = options
	}

	var out struct {
		Success   bool   `json:"success"`
		MessageID string `json:"messageId"`
		Key       struct {
			ID string `json:"id"`
		} `json:"key"`
	}
	path := "/message/sendText/" + url.PathEscape(instance)
	if err := c.do(ctx, http.MethodPost, path, token, body, &out); err != nil {
		return nil, err
	}

	messageID := out.MessageID
	if messageID == "" {
		messageID = out.Key.ID
	}
	return &SendTextResult{Success: out.Success || messageID != "", MessageID: messageID}, nil
}

func (c *Client) do(ctx context.Context, method, path, instanceToken string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding gateway request")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building gateway request")
	}
	req.Header.Set("apikey", c.apiKey)
	if instanceToken != "" {
		req.Header.Set("Authorization", "Bearer "+instanceToken)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "calling whatsapp gateway")
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil && c.logger != nil {
			c.logger.Warn(ctx, "whatsapp: closing response body failed")
		}
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return mapGatewayStatus(resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding gateway response")
	}
	return nil
}

func mapGatewayStatus(statusCode int, snippet string) error {
	msg := fmt.Sprintf("whatsapp gateway returned %d", statusCode)
	if snippet != "" {
		msg = fmt.Sprintf("%s: %s", msg, snippet)
	}
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return pkgerrors.New(pkgerrors.CodeDependency, msg)
	case http.StatusNotFound:
		return pkgerrors.New(pkgerrors.CodeNotFound, msg)
	case http.StatusTooManyRequests:
		return pkgerrors.New(pkgerrors.CodeRateLimit, msg)
	default:
		return pkgerrors.New(pkgerrors.CodeDependency, msg)
	}
}
