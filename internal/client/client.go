package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/BrunoKrugel/jpegcheck/internal/config"
	"github.com/go-resty/resty/v2"
)

var ErrEmptyBody = errors.New("empty snapshot body")

// StatusError is returned when a snapshot URL answers with a non-200 status
type StatusError struct {
	URL    string
	Status string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: bad status %s", e.URL, e.Status)
}

type Client struct {
	restyClient *resty.Client
}

func NewRestyClient(cfg *config.Config) *Client {

	restyClient := resty.New().
		SetTimeout(15*time.Second).
		SetHeader("User-Agent", "jpegcheck/1").
		SetHeader("Accept", "image/jpeg")

	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		IdleConnTimeout:     90 * time.Second,
	}
	restyClient.SetTransport(transport)

	if cfg.Authorization.Token != "" {
		restyClient.SetHeader("Authorization", cfg.Authorization.Token)
	}

	cookieName, cookieValue := parseCookie(cfg.Authorization.Cookie)
	if cookieValue != "" {
		restyClient.SetCookie(&http.Cookie{
			Name:  cookieName,
			Value: cookieValue,
		})
	}

	return &Client{
		restyClient: restyClient,
	}
}

// GetSnapshot downloads a single JPEG frame. The body is returned as-is;
// judging it is the inspector's job.
func (c *Client) GetSnapshot(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.restyClient.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, &StatusError{URL: url, Status: resp.Status(), Code: resp.StatusCode()}
	}

	body := resp.Body()
	if len(body) == 0 {
		return nil, ErrEmptyBody
	}

	return body, nil
}

func parseCookie(s string) (name, value string) {
	if s == "" {
		return "", ""
	}
	if strings.Contains(s, "=") {
		parts := strings.SplitN(s, "=", 2)
		return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	}
	return "SessaoId", s
}
