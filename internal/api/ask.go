package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	http "github.com/bogdanfinn/fhttp"

	"github.com/diogo/askflow/internal/chat"
	apierrors "github.com/diogo/askflow/internal/errors"
)

type askRequest struct {
	Question string `json:"question"`
}

// Ask posts one question to the endpoint and converts every result,
// including transport errors, into a chat.Outcome.
func (c *Client) Ask(ctx context.Context, q chat.Request) chat.Outcome {
	askURL := c.AskURL()
	if askURL == "" {
		return chat.Failure{Err: fmt.Errorf("%w: client not initialized", apierrors.ErrNoAskURL)}
	}

	payload, err := json.Marshal(askRequest{Question: q.Question})
	if err != nil {
		return chat.Failure{Err: fmt.Errorf("encode question: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, askURL, bytes.NewReader(payload))
	if err != nil {
		return chat.Failure{Err: fmt.Errorf("create ask request: %w", err)}
	}
	for key, value := range askHeaders(q.CSRFToken, c.baseURL.String()) {
		req.Header.Set(key, value)
	}
	c.addSessionCookies(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return chat.Failure{Err: apierrors.NewNetworkError("ask", askURL, err)}
	}

	body, readErr := c.readBody(resp)
	if readErr != nil && !errors.Is(readErr, errBodyTooLarge) {
		return chat.Failure{Err: apierrors.NewNetworkError("read answer", askURL, readErr)}
	}

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		// a cut-off answer is never shown as if it were whole
		if readErr != nil {
			return chat.Failure{Err: apierrors.NewParseError(readErr.Error(), "")}
		}
		p, err := ParseAnswerPayload(body)
		if err != nil {
			return chat.Failure{Err: err}
		}
		if p.Answer == nil {
			c.logger.Warn("answer missing from response", "status", resp.StatusCode)
			return chat.Answer{}
		}
		return chat.Answer{Content: *p.Answer}
	}

	return c.failure(resp, askURL, body)
}

// failure builds the Failure for a non-2xx response
func (c *Client) failure(resp *http.Response, askURL string, body []byte) chat.Outcome {
	var message string
	if p, err := ParseErrorPayload(body); err == nil && p.Error != nil {
		message = *p.Error
	}

	var cause error
	if isAuthStatus(resp.StatusCode) {
		cause = apierrors.NewAuthErrorWithEndpoint(authMessage(resp), askURL, resp.StatusCode)
	} else {
		detail := message
		if detail == "" {
			detail = http.StatusText(resp.StatusCode)
		}
		cause = apierrors.NewAPIError(resp.StatusCode, askURL, detail).WithBody(string(body))
	}

	return chat.Failure{Message: message, Err: cause}
}

func askHeaders(csrfToken, referer string) map[string]string {
	return map[string]string{
		"Content-Type":     "application/json",
		"Accept":           "application/json",
		"X-CSRFToken":      csrfToken,
		"X-Requested-With": "XMLHttpRequest",
		// Django rejects HTTPS POSTs without a same-origin Referer.
		"Referer":    referer,
		"User-Agent": userAgent,
	}
}
