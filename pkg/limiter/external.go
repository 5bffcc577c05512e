package limiter

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

type ExternalLimiter struct {
	host   *url.URL
	client *http.Client
}

func NewExternalLimiter(host *url.URL) *ExternalLimiter {
	cl := retryablehttp.NewClient()
	cl.RetryMax = 3
	cl.RetryWaitMin = time.Millisecond * 200
	cl.RetryWaitMax = time.Second * 2
	cl.Logger = slog.Default()
	return &ExternalLimiter{host: host, client: cl.StandardClient()}
}

func (c ExternalLimiter) CanOpenSession(active int) bool {
	return c.doRequest("/can/open/session", active)
}

func (c ExternalLimiter) GetRemainingSessions(active int) int {
	return c.doRemainRequest("/remain/sessions", active)
}

func (c ExternalLimiter) endpoint(path string, active int) string {
	u := c.host.ResolveReference(&url.URL{Path: path})
	u.RawQuery = url.Values{"active": {strconv.Itoa(active)}}.Encode()
	return u.String()
}

func (c ExternalLimiter) doRemainRequest(path string, active int) int {
	resp, err := c.client.Get(c.endpoint(path, active))
	if err != nil {
		slog.Error("Request remains", "err", err)
		return -1
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return -1
	}

	remain, err := strconv.Atoi(resp.Header.Get("X-Entity-Remain"))
	if err != nil {
		slog.Error("Parse remain answer", "raw", resp.Header.Get("X-Entity-Remain"), "err", err)
		return -1
	}
	return remain
}

func (c ExternalLimiter) doRequest(path string, active int) bool {
	resp, err := c.client.Get(c.endpoint(path, active))
	if err != nil {
		slog.Error("Request access rule", "err", err)
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
