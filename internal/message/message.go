// internal/message/message.go
//
// Submission notifications.
//
// Context
//   A valid profile submission is handed to every configured Publisher.
//   Handlers never wait on delivery: they call Queue.Enqueue and move on (see
//   queue.go).  Two publishers ship today.  LogPublisher writes one INFO line
//   and WebhookPublisher POSTs the submission as JSON with retries.
//
//   Submissions never carry passwords.
//
//------------------------------------------------------------------------------

package message

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/yanizio/profileform/internal/profile"
	"github.com/yanizio/profileform/internal/requestinfo"
)

// Submission is the notification payload for one accepted profile.
type Submission struct {
	Session   string                   `json:"session"`
	At        time.Time                `json:"at"`
	FirstName string                   `json:"firstName"`
	LastName  string                   `json:"lastName"`
	Email     string                   `json:"email"`
	Phone     string                   `json:"phoneNumber"`
	Age       string                   `json:"age,omitempty"`
	Gender    string                   `json:"gender"`
	Interests []string                 `json:"interests"`
	BirthDate string                   `json:"birthDate"`
	Address   profile.Address          `json:"address"`
	Client    *requestinfo.RequestInfo `json:"client,omitempty"`
}

// FromDraft copies the non-secret fields of d.
func FromDraft(session string, d profile.Draft, at time.Time) Submission {
	return Submission{
		Session:   session,
		At:        at.UTC(),
		FirstName: d.FirstName,
		LastName:  d.LastName,
		Email:     d.Email,
		Phone:     d.PhoneNumber,
		Age:       d.Age,
		Gender:    d.Gender,
		Interests: d.Interests.Items(),
		BirthDate: d.BirthDate,
		Address:   d.Address,
	}
}

// Publisher delivers one submission.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, s Submission) error
}

/*──────────────────────────── log publisher ────────────────────────────────*/

// LogPublisher writes the submission to the structured log.
type LogPublisher struct {
	Log *zap.SugaredLogger
}

func (LogPublisher) Name() string { return "log" }

func (p LogPublisher) Publish(_ context.Context, s Submission) error {
	l := p.Log
	if l == nil {
		l = zap.S()
	}
	l.Infow("profile submitted",
		"session", s.Session,
		"email", s.Email,
		"gender", s.Gender,
		"interests", s.Interests,
		"country", s.Address.Country,
	)
	return nil
}

/*──────────────────────────── webhook publisher ────────────────────────────*/

// WebhookPublisher POSTs each submission as JSON.  Transient failures and
// 5xx responses are retried by go-retryablehttp.
type WebhookPublisher struct {
	url    string
	client *retryablehttp.Client
}

// NewWebhook returns a publisher for url.  retries caps the retry count;
// timeout bounds each attempt.
func NewWebhook(url string, retries int, timeout time.Duration, log *zap.SugaredLogger) *WebhookPublisher {
	c := retryablehttp.NewClient()
	c.RetryMax = retries
	c.RetryWaitMin = 100 * time.Millisecond
	c.RetryWaitMax = 2 * time.Second
	c.HTTPClient.Timeout = timeout
	c.Logger = leveled{log}
	return &WebhookPublisher{url: url, client: c}
}

func (*WebhookPublisher) Name() string { return "webhook" }

func (p *WebhookPublisher) Publish(ctx context.Context, s Submission) error {
	body, err := jsonBody(s)
	if err != nil {
		return err
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, p.url, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook %s: %w", p.url, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook %s: status %d", p.url, resp.StatusCode)
	}
	return nil
}

// leveled adapts a sugared logger to retryablehttp.LeveledLogger.
type leveled struct{ l *zap.SugaredLogger }

func (a leveled) log() *zap.SugaredLogger {
	if a.l == nil {
		return zap.S()
	}
	return a.l
}

func (a leveled) Error(msg string, kv ...interface{}) { a.log().Errorw(msg, kv...) }
func (a leveled) Info(msg string, kv ...interface{})  { a.log().Debugw(msg, kv...) }
func (a leveled) Debug(msg string, kv ...interface{}) { a.log().Debugw(msg, kv...) }
func (a leveled) Warn(msg string, kv ...interface{})  { a.log().Warnw(msg, kv...) }
