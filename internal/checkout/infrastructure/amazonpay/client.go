// Package amazonpay speaks the provider's order-reference protocol:
// signed form-POST requests with XML responses, keyed by an opaque order
// reference id and a short-lived access token.
package amazonpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sweetshop/checkout-service/internal/checkout/application"
)

const apiVersion = "2013-01-01"

type Config struct {
	// Endpoint is the full API URL, e.g.
	// https://mws.amazonservices.jp/OffAmazonPayments_Sandbox/2013-01-01.
	Endpoint  string
	SellerID  string
	AccessKey string
	SecretKey string

	// HTTPClient defaults to a client with a 30s timeout.
	HTTPClient *http.Client
}

type Client struct {
	cfg      Config
	endpoint *url.URL
	httpc    *http.Client
	now      func() time.Time
}

func NewClient(cfg Config) (*Client, error) {
	u, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("amazonpay: bad endpoint: %w", err)
	}
	httpc := cfg.HTTPClient
	if httpc == nil {
		httpc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{cfg: cfg, endpoint: u, httpc: httpc, now: time.Now}, nil
}

func (c *Client) GetOrderDetails(ctx context.Context, orderReferenceID, accessToken string) (application.OrderDetails, error) {
	params := map[string]string{
		"AmazonOrderReferenceId": orderReferenceID,
		"AccessToken":            accessToken,
	}
	var resp getOrderReferenceDetailsResponse
	if err := c.call(ctx, "GetOrderReferenceDetails", params, &resp); err != nil {
		return application.OrderDetails{}, err
	}
	d := resp.Result.Details
	pd := d.Destination.PhysicalDestination
	// Absent XML elements decode to empty strings, which is exactly the
	// substitution the order fields require.
	return application.OrderDetails{
		Buyer: application.Buyer{Name: d.Buyer.Name, Email: d.Buyer.Email, Phone: d.Buyer.Phone},
		Destination: application.Destination{
			Name:          pd.Name,
			Phone:         pd.Phone,
			PostalCode:    pd.PostalCode,
			StateOrRegion: pd.StateOrRegion,
			City:          pd.City,
			AddressLine1:  pd.AddressLine1,
			AddressLine2:  pd.AddressLine2,
			AddressLine3:  pd.AddressLine3,
		},
	}, nil
}

func (c *Client) SetOrderDetails(ctx context.Context, req application.SetOrderDetailsRequest) error {
	params := map[string]string{
		"AmazonOrderReferenceId": req.OrderReferenceID,
		"OrderReferenceAttributes.OrderTotal.Amount":       strconv.FormatInt(req.Amount, 10),
		"OrderReferenceAttributes.OrderTotal.CurrencyCode": req.CurrencyCode,
		"OrderReferenceAttributes.SellerNote":              req.SellerNote,
		"OrderReferenceAttributes.SellerOrderAttributes.SellerOrderId": req.SellerOrderID,
		"OrderReferenceAttributes.SellerOrderAttributes.StoreName":     req.StoreName,
	}
	return c.call(ctx, "SetOrderReferenceDetails", params, nil)
}

func (c *Client) ConfirmOrder(ctx context.Context, orderReferenceID string) error {
	params := map[string]string{
		"AmazonOrderReferenceId": orderReferenceID,
	}
	return c.call(ctx, "ConfirmOrderReference", params, nil)
}

func (c *Client) Authorize(ctx context.Context, req application.AuthorizeRequest) (application.AuthorizeResult, error) {
	params := map[string]string{
		"AmazonOrderReferenceId":               req.OrderReferenceID,
		"AuthorizationReferenceId":             req.AuthorizationReferenceID,
		"AuthorizationAmount.Amount":           strconv.FormatInt(req.Amount, 10),
		"AuthorizationAmount.CurrencyCode":     req.CurrencyCode,
		"SellerAuthorizationNote":              req.SellerAuthorizationNote,
		"TransactionTimeout":                   strconv.Itoa(req.TransactionTimeout),
	}
	var resp authorizeResponse
	if err := c.call(ctx, "Authorize", params, &resp); err != nil {
		return application.AuthorizeResult{}, err
	}
	return application.AuthorizeResult{
		AuthorizationID: resp.Result.AuthorizationDetails.AmazonAuthorizationID,
		State:           resp.Result.AuthorizationDetails.AuthorizationStatus.State,
	}, nil
}

// call signs and posts one action. Non-2xx responses carry an XML error
// body that becomes a *ServiceError.
func (c *Client) call(ctx context.Context, action string, params map[string]string, out any) error {
	form := map[string]string{
		"Action":           action,
		"SellerId":         c.cfg.SellerID,
		"AWSAccessKeyId":   c.cfg.AccessKey,
		"SignatureMethod":  "HmacSHA256",
		"SignatureVersion": "2",
		"Timestamp":        c.now().UTC().Format(time.RFC3339),
		"Version":          apiVersion,
	}
	for k, v := range params {
		if v != "" {
			form[k] = v
		}
	}
	form["Signature"] = c.sign(form)

	body := encodeForm(form)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint.String(), strings.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=utf-8")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("amazonpay: %s: %w", action, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("amazonpay: %s: read response: %w", action, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var er errorResponse
		serr := &ServiceError{StatusCode: resp.StatusCode}
		if err := xml.Unmarshal(data, &er); err == nil {
			serr.Code = er.Error.Code
			serr.Message = er.Error.Message
			serr.RequestID = er.RequestID
		}
		if serr.Code == "" {
			serr.Code = http.StatusText(resp.StatusCode)
			serr.Message = string(data)
		}
		return serr
	}

	if out != nil {
		if err := xml.Unmarshal(data, out); err != nil {
			return fmt.Errorf("amazonpay: %s: decode response: %w", action, err)
		}
	}
	return nil
}

// sign computes the V2 request signature: HMAC-SHA256 over the canonical
// request string, base64 encoded.
func (c *Client) sign(params map[string]string) string {
	canonical := strings.Join([]string{
		http.MethodPost,
		strings.ToLower(c.endpoint.Host),
		c.endpoint.Path,
		encodeForm(params),
	}, "\n")
	mac := hmac.New(sha256.New, []byte(c.cfg.SecretKey))
	mac.Write([]byte(canonical))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// encodeForm percent-encodes per RFC 3986 (space as %20, '~' untouched)
// with keys in byte order, as the signature scheme requires.
func encodeForm(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(percentEncode(k))
		b.WriteByte('=')
		b.WriteString(percentEncode(params[k]))
	}
	return b.String()
}

func percentEncode(s string) string {
	enc := url.QueryEscape(s)
	enc = strings.ReplaceAll(enc, "+", "%20")
	enc = strings.ReplaceAll(enc, "%7E", "~")
	return enc
}
