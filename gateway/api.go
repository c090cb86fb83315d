package gateway

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

const (
	tokenHeader    = "__RequestVerificationToken"
	tokenHeaderOne = "__RequestVerificationTokenone"
	xmlHeader      = `<?xml version="1.0" encoding="UTF-8"?>`
)

// Router API error codes.
const (
	ErrCodeSystemNotSupported = 100002
	ErrCodeNoRights           = 100003
	ErrCodeSystemBusy         = 100004
	ErrCodeFormatError        = 100005
	ErrCodeParameterError     = 100006
	ErrCodeUserAlreadyLogin   = 108003
	ErrCodeUsernameWrong      = 108001
	ErrCodePasswordWrong      = 108002
	ErrCodeLoginWrong         = 108006
	ErrCodeLoginTooManyTimes  = 108007
	ErrCodeWrongToken         = 125001
	ErrCodeWrongSession       = 125002
	ErrCodeWrongSessionToken  = 125003
)

var apiErrorMessages = map[int]string{
	ErrCodeSystemNotSupported: "not supported by this device",
	ErrCodeNoRights:           "login required",
	ErrCodeSystemBusy:         "system busy",
	ErrCodeFormatError:        "request format error",
	ErrCodeParameterError:     "parameter error",
	ErrCodeUserAlreadyLogin:   "user already logged in",
	ErrCodeUsernameWrong:      "wrong username",
	ErrCodePasswordWrong:      "wrong password",
	ErrCodeLoginWrong:         "wrong username or password",
	ErrCodeLoginTooManyTimes:  "too many login attempts",
	ErrCodeWrongToken:         "wrong token",
	ErrCodeWrongSession:       "wrong session",
	ErrCodeWrongSessionToken:  "wrong session token",
}

// APIError is an <error> document returned by the router.
type APIError struct {
	Endpoint string
	Code     int
	Message  string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = apiErrorMessages[e.Code]
	}
	if msg == "" {
		msg = "unknown error"
	}
	return fmt.Sprintf("%s: api error %d: %s", e.Endpoint, e.Code, msg)
}

// IsAPIError reports whether err is an APIError with one of the given codes.
func IsAPIError(err error, codes ...int) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	for _, c := range codes {
		if apiErr.Code == c {
			return true
		}
	}
	return false
}

// errUnexpectedResponse is returned when a write is not acknowledged with OK.
var errUnexpectedResponse = errors.New("unexpected response")

// field is one element of a flat request body.
type field struct {
	Name  string
	Value string
}

// encodeRequest builds a <request> document. Field order is preserved since
// some firmwares reject reordered bodies.
func encodeRequest(fields ...field) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xmlHeader)
	enc := xml.NewEncoder(&buf)

	root := xml.StartElement{Name: xml.Name{Local: "request"}}
	if err := enc.EncodeToken(root); err != nil {
		return nil, err
	}
	for _, f := range fields {
		if err := enc.EncodeElement(f.Value, xml.StartElement{Name: xml.Name{Local: f.Name}}); err != nil {
			return nil, err
		}
	}
	if err := enc.EncodeToken(root.End()); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeResponse parses a flat <response> document into a map of child
// element text. A bare <response>OK</response> decodes to an empty map with
// ok set. <error> documents decode to *APIError.
func decodeResponse(endpoint string, body []byte) (values map[string]string, ok bool, err error) {
	dec := xml.NewDecoder(bytes.NewReader(body))

	var root *xml.StartElement
	for root == nil {
		tok, err := dec.Token()
		if err != nil {
			return nil, false, fmt.Errorf("%s: failed to parse XML response: %w", endpoint, err)
		}
		if se, isStart := tok.(xml.StartElement); isStart {
			root = &se
		}
	}

	values = make(map[string]string)
	var (
		text  strings.Builder
		key   string
		depth int
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, false, fmt.Errorf("%s: failed to parse XML response: %w", endpoint, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if depth == 1 {
				key = t.Name.Local
				text.Reset()
			}
		case xml.CharData:
			if depth <= 1 {
				text.Write(t)
			}
		case xml.EndElement:
			if depth == 1 {
				values[key] = strings.TrimSpace(text.String())
				text.Reset()
			}
			if depth == 0 {
				ok = strings.TrimSpace(text.String()) == "OK"
			}
			depth--
		}
	}

	if root.Name.Local == "error" {
		code, _ := strconv.Atoi(values["code"])
		return nil, false, &APIError{Endpoint: endpoint, Code: code, Message: values["message"]}
	}
	if root.Name.Local != "response" {
		return nil, false, fmt.Errorf("%s: unexpected root element <%s>", endpoint, root.Name.Local)
	}
	return values, ok, nil
}

// get fetches an API endpoint and decodes its response.
func (c *HuaweiClient) get(ctx context.Context, endpoint string) (map[string]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL(endpoint), nil)
	if err != nil {
		return nil, err
	}
	body, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", endpoint, err)
	}
	values, _, err := decodeResponse(endpoint, body)
	return values, err
}

// post sends a <request> to an API endpoint. The router must acknowledge
// it with OK unless the response carries values.
func (c *HuaweiClient) post(ctx context.Context, endpoint string, fields ...field) (map[string]string, error) {
	payload, err := encodeRequest(fields...)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to encode request: %w", endpoint, err)
	}

	token, err := c.requestToken(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL(endpoint), bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	req.Header.Set(tokenHeader, token)

	body, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", endpoint, err)
	}
	values, ok, err := decodeResponse(endpoint, body)
	if err != nil {
		return nil, err
	}
	if !ok && len(values) == 0 {
		return nil, fmt.Errorf("%s: %w: %q", endpoint, errUnexpectedResponse, body)
	}
	return values, nil
}

// do executes req and returns the body of a 200 response. Tokens handed out
// in response headers are kept for the next write.
func (c *HuaweiClient) do(req *http.Request) ([]byte, error) {
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	c.storeTokens(resp.Header)
	return body, nil
}

func (c *HuaweiClient) apiURL(endpoint string) string {
	return fmt.Sprintf("%s/api/%s", strings.TrimRight(c.config.URL, "/"), endpoint)
}
