// Package sso signs a user in on the Garmin SSO web flow and returns the
// service ticket that the oauth package trades for tokens.
package sso

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/2beens/garminpartner/internal/telemetry/tracing"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"
	"golang.org/x/net/publicsuffix"
)

const (
	widgetID   = "gauth-widget"
	maxPageLen = 2 << 20
)

var (
	ErrCSRFNotFound       = errors.New("csrf token not found on sign in page")
	ErrTicketNotFound     = errors.New("service ticket not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountLocked      = errors.New("account locked")
	ErrMFARequired        = errors.New("multi factor authentication required")
	ErrUnexpectedPage     = errors.New("unexpected sso page")
	ticketRegex           = regexp.MustCompile(`embed\?ticket=([^"]+)"`)
)

// MFAPrompt is asked for the one time code when the account has MFA enabled.
type MFAPrompt func(ctx context.Context) (string, error)

type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	mfaPrompt  MFAPrompt
}

func NewClient(baseURL, userAgent string, transport http.RoundTripper, timeout time.Duration) (*Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			Jar:       jar,
			Timeout:   timeout,
		},
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		userAgent: userAgent,
	}, nil
}

func (c *Client) SetMFAPrompt(prompt MFAPrompt) {
	c.mfaPrompt = prompt
}

// EmbedURL is the login url the oauth preauthorize call must quote back.
func (c *Client) EmbedURL() string {
	return c.baseURL + "/sso/embed"
}

// Login runs the sign in form flow and returns the service ticket.
func (c *Client) Login(ctx context.Context, email, password string) (_ string, err error) {
	ctx, span := tracing.StartSpan(ctx, "sso.login")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	embedParams := url.Values{
		"id":          {widgetID},
		"embedWidget": {"true"},
		"gauthHost":   {c.baseURL + "/sso"},
	}
	if _, err := c.get(ctx, "/sso/embed", embedParams, ""); err != nil {
		return "", fmt.Errorf("init sso session: %w", err)
	}

	signinParams := c.signinParams()
	signinURL := c.baseURL + "/sso/signin?" + signinParams.Encode()

	signinPage, err := c.get(ctx, "/sso/signin", signinParams, c.EmbedURL())
	if err != nil {
		return "", fmt.Errorf("get sign in page: %w", err)
	}

	csrf := signinPage.csrf()
	if csrf == "" {
		return "", ErrCSRFNotFound
	}
	log.Debugln("sso: csrf token found")

	result, err := c.post(ctx, "/sso/signin", signinParams, url.Values{
		"username": {email},
		"password": {password},
		"embed":    {"true"},
		"_csrf":    {csrf},
	}, signinURL)
	if err != nil {
		return "", fmt.Errorf("submit credentials: %w", err)
	}

	if strings.Contains(result.title(), "MFA") {
		log.Debugln("sso: account requires mfa")
		result, err = c.completeMFA(ctx, result, signinParams, signinURL)
		if err != nil {
			return "", err
		}
	}

	return result.ticket()
}

func (c *Client) completeMFA(ctx context.Context, mfaPage *page, params url.Values, referer string) (*page, error) {
	if c.mfaPrompt == nil {
		return nil, ErrMFARequired
	}

	code, err := c.mfaPrompt(ctx)
	if err != nil {
		return nil, fmt.Errorf("mfa prompt: %w", err)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrMFARequired
	}

	csrf := mfaPage.csrf()
	if csrf == "" {
		return nil, ErrCSRFNotFound
	}

	result, err := c.post(ctx, "/sso/verifyMFA/loginEnterMfaCode", params, url.Values{
		"mfa-code": {code},
		"embed":    {"true"},
		"_csrf":    {csrf},
		"fromPage": {"setupEnterMfaCode"},
	}, referer)
	if err != nil {
		return nil, fmt.Errorf("submit mfa code: %w", err)
	}

	return result, nil
}

func (c *Client) signinParams() url.Values {
	embed := c.EmbedURL()
	return url.Values{
		"id":                              {widgetID},
		"embedWidget":                     {"true"},
		"gauthHost":                       {embed},
		"service":                         {embed},
		"source":                          {embed},
		"redirectAfterAccountLoginUrl":    {embed},
		"redirectAfterAccountCreationUrl": {embed},
	}
}

func (c *Client) get(ctx context.Context, path string, params url.Values, referer string) (*page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	return c.do(req, referer)
}

func (c *Client) post(ctx context.Context, path string, params, form url.Values, referer string) (*page, error) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+path+"?"+params.Encode(),
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, referer)
}

func (c *Client) do(req *http.Request, referer string) (*page, error) {
	req.Header.Set("User-Agent", c.userAgent)
	if referer != "" {
		req.Header.Set("Referer", referer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageLen))
	if err != nil {
		return nil, fmt.Errorf("read sso response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("%w: %s returned status %d", ErrUnexpectedPage, req.URL.Path, resp.StatusCode)
	}

	return parsePage(body)
}

type page struct {
	body []byte
	doc  *goquery.Document
}

func parsePage(body []byte) (*page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse sso page: %w", err)
	}
	return &page{body: body, doc: doc}, nil
}

func (p *page) title() string {
	return strings.TrimSpace(p.doc.Find("title").First().Text())
}

func (p *page) csrf() string {
	return p.doc.Find(`input[name="_csrf"]`).First().AttrOr("value", "")
}

func (p *page) ticket() (string, error) {
	title := p.title()
	if title != "Success" {
		lower := strings.ToLower(title)
		switch {
		case strings.Contains(lower, "locked"):
			return "", ErrAccountLocked
		case p.csrf() != "", title == "":
			// the sign in form came back
			return "", ErrInvalidCredentials
		default:
			return "", fmt.Errorf("%w: %q", ErrUnexpectedPage, title)
		}
	}

	match := ticketRegex.FindSubmatch(p.body)
	if match == nil {
		return "", ErrTicketNotFound
	}

	return string(match[1]), nil
}
