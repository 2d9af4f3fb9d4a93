package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// Overridable for tests.
var recaptchaVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

// ErrRecaptchaRejected means the assessment came back below the configured
// threshold or for the wrong action; the caller treats it as a validation
// failure, not a server error.
var ErrRecaptchaRejected = errors.New("recaptcha assessment rejected")

type recaptchaVerifyResponse struct {
	Success     bool     `json:"success"`
	Score       float64  `json:"score"`
	Action      string   `json:"action"`
	ChallengeTS string   `json:"challenge_ts"`
	Hostname    string   `json:"hostname"`
	ErrorCodes  []string `json:"error-codes"`
}

// VerifyRecaptcha submits the client token for scoring and fails closed on
// anything other than a passing assessment for the expected action.
func (c Client) VerifyRecaptcha(ctx context.Context, token string, remoteIP string) error {
	form := url.Values{}
	form.Set("secret", c.RecaptchaSecretKey)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, recaptchaVerifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return errors.Wrap(err, "VerifyRecaptcha: error creating HTTP request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.Client.Do(req)
	if err != nil {
		return errors.Wrap(err, "VerifyRecaptcha: error doing request")
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.Logger.Errorf("VerifyRecaptcha: error closing response body, err: %v", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("VerifyRecaptcha: unexpected status from siteverify: %s", resp.Status)
	}

	var vr recaptchaVerifyResponse
	if err = json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return errors.Wrap(err, "VerifyRecaptcha: error decoding siteverify response")
	}

	if !vr.Success {
		c.Logger.Debugf("VerifyRecaptcha: siteverify unsuccessful, error codes: %v", vr.ErrorCodes)
		return errors.Wrapf(ErrRecaptchaRejected, "siteverify unsuccessful, error codes: %v", vr.ErrorCodes)
	}
	if vr.Action != c.RecaptchaAction {
		c.Logger.Debugf("VerifyRecaptcha: action mismatch, want: %s, got: %s", c.RecaptchaAction, vr.Action)
		return errors.Wrapf(ErrRecaptchaRejected, "action mismatch, want: %s, got: %s", c.RecaptchaAction, vr.Action)
	}
	if vr.Score < c.RecaptchaMinScore {
		c.Logger.Debugf("VerifyRecaptcha: score %.2f below threshold %.2f", vr.Score, c.RecaptchaMinScore)
		return errors.Wrapf(ErrRecaptchaRejected, "score %.2f below threshold %.2f", vr.Score, c.RecaptchaMinScore)
	}
	return nil
}
