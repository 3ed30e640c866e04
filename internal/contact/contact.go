// Package contact handles the public contact form: per-IP rate limiting,
// spam heuristics, optional Turnstile verification and owner notification.
package contact

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"atelier/api/internal/logger"
)

var (
	ErrRateLimited        = errors.New("too many requests")
	ErrHoneypot           = errors.New("invalid request")
	ErrMissingFields      = errors.New("all fields are required")
	ErrTooManyLinks       = errors.New("too many links in message")
	ErrVerificationFailed = errors.New("verification failed")
)

// MaxLinks is the number of URLs a message may contain before it is
// treated as spam.
const MaxLinks = 2

var linkPattern = regexp.MustCompile(`(?i)https?://`)

// Submission is the contact form body.
type Submission struct {
	Name           string `json:"name"`
	ContactMethod  string `json:"contactMethod"`
	ContactInfo    string `json:"contactInfo"`
	Subject        string `json:"subject"`
	Message        string `json:"message"`
	Website        string `json:"website"`
	TurnstileToken string `json:"cf-turnstile-response"`
}

// SpamReason says which heuristic flagged a submission.
type SpamReason string

const (
	SpamHoneypot    SpamReason = "honeypot"
	SpamTooManyURLs SpamReason = "too_many_urls"
)

// SpamReport is sent to the spam channel when a submission is rejected.
type SpamReport struct {
	Reason     SpamReason
	Submission Submission
	LinkCount  int
}

// Notifier delivers accepted messages to the site owner.
type Notifier interface {
	Notify(ctx context.Context, sub Submission, at time.Time) error
}

// SpamNotifier receives rejected submissions. Failures are logged only.
type SpamNotifier interface {
	NotifySpam(ctx context.Context, report SpamReport, at time.Time) error
}

// RateLimiter counts submissions per client address.
type RateLimiter interface {
	Allow(ctx context.Context, ip string) (bool, error)
}

// Verifier checks a Turnstile token.
type Verifier interface {
	Verify(ctx context.Context, token, ip string) (bool, error)
}

type Options struct {
	Limiter  RateLimiter
	Verifier Verifier
	Notifier Notifier
	Spam     SpamNotifier
	// VerifyTokens enables Turnstile checks; only set in production.
	VerifyTokens bool
}

type Service struct {
	opts Options
	log  logger.Logger
	now  func() time.Time
}

func NewService(opts Options, log logger.Logger) *Service {
	if opts.Notifier == nil {
		opts.Notifier = NewLogNotifier(log)
	}
	return &Service{opts: opts, log: log.With(logger.String("component", "contact")), now: time.Now}
}

// CountLinks returns the number of http(s) URLs in text.
func CountLinks(text string) int {
	return len(linkPattern.FindAllStringIndex(text, -1))
}

// Submit runs the checks in order and delivers the message. ip may be empty
// when the client address is unknown, in which case no rate limit applies.
func (s *Service) Submit(ctx context.Context, ip string, sub Submission) error {
	if s.opts.Limiter != nil && ip != "" {
		allowed, err := s.opts.Limiter.Allow(ctx, ip)
		if err != nil {
			s.log.Warn("rate limit check failed", logger.String("ip", ip), logger.Error(err))
		} else if !allowed {
			s.log.Info("rate limit exceeded", logger.String("ip", ip))
			return ErrRateLimited
		}
	}

	if sub.Website != "" {
		s.log.Info("bot detected: honeypot filled")
		s.reportSpam(ctx, SpamReport{Reason: SpamHoneypot, Submission: sub})
		return ErrHoneypot
	}

	if missingField(sub) {
		return ErrMissingFields
	}

	if n := CountLinks(sub.Message); n > MaxLinks {
		s.log.Info("spam detected: too many urls", logger.Int("links", n))
		s.reportSpam(ctx, SpamReport{Reason: SpamTooManyURLs, Submission: sub, LinkCount: n})
		return ErrTooManyLinks
	}

	if s.opts.VerifyTokens && s.opts.Verifier != nil && sub.TurnstileToken != "" {
		ok, err := s.opts.Verifier.Verify(ctx, sub.TurnstileToken, ip)
		if err != nil {
			return fmt.Errorf("verify turnstile token: %w", err)
		}
		if !ok {
			return ErrVerificationFailed
		}
	}

	if err := s.opts.Notifier.Notify(ctx, sub, s.now()); err != nil {
		return fmt.Errorf("deliver contact message: %w", err)
	}
	return nil
}

func (s *Service) reportSpam(ctx context.Context, report SpamReport) {
	if s.opts.Spam == nil {
		return
	}
	if err := s.opts.Spam.NotifySpam(ctx, report, s.now()); err != nil {
		s.log.Warn("failed to send spam notification", logger.Error(err))
	}
}

func missingField(sub Submission) bool {
	for _, v := range []string{sub.Name, sub.ContactMethod, sub.ContactInfo, sub.Subject, sub.Message} {
		if strings.TrimSpace(v) == "" {
			return true
		}
	}
	return false
}

// LogNotifier only logs messages. Used when no delivery channel is configured.
type LogNotifier struct {
	log logger.Logger
}

func NewLogNotifier(log logger.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(_ context.Context, sub Submission, _ time.Time) error {
	n.log.Info("contact message (no delivery channel configured)",
		logger.String("name", sub.Name),
		logger.String("contact_method", sub.ContactMethod),
		logger.String("contact_info", sub.ContactInfo),
		logger.String("subject", sub.Subject),
		logger.Int("message_length", len(sub.Message)),
	)
	return nil
}
