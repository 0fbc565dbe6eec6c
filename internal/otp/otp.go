// Package otp holds the code generation and validity rules shared by the
// signup, login and password-reset flows. Storage lives in the repositories;
// this package only decides.
package otp

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"
)

type Flow string

const (
	FlowSignup        Flow = "signup"
	FlowLogin         Flow = "login"
	FlowPasswordReset Flow = "password_reset"
)

const (
	DefaultMin            = 10101
	DefaultMax            = 909090
	DefaultWindow         = 50 * time.Second
	DefaultResendCooldown = 20 * time.Second
)

var (
	ErrIncorrect        = errors.New("otp incorrect")
	ErrExpired          = errors.New("otp expired")
	ErrAttemptsExceeded = errors.New("otp attempts exceeded")
)

// Clock returns the current time; tests substitute a fixed or stepping clock.
type Clock func() time.Time

// CodeGenerator produces a fresh numeric code.
type CodeGenerator interface {
	Generate() (string, error)
}

// RandomGenerator draws uniformly from [Min, Max) using crypto/rand.
type RandomGenerator struct {
	Min int
	Max int
}

func (g RandomGenerator) Generate() (string, error) {
	lo, hi := g.Min, g.Max
	if hi <= lo {
		lo, hi = DefaultMin, DefaultMax
	}

	n, err := rand.Int(rand.Reader, big.NewInt(int64(hi-lo)))
	if err != nil {
		return "", fmt.Errorf("draw otp: %w", err)
	}
	return fmt.Sprintf("%d", n.Int64()+int64(lo)), nil
}

const replaceDraws = 8

// Replace draws a code that differs from previous. A generator that keeps
// repeating itself gets a bounded number of draws and the last one wins.
func Replace(g CodeGenerator, previous string) (string, error) {
	var code string
	for i := 0; i < replaceDraws; i++ {
		var err error
		if code, err = g.Generate(); err != nil {
			return "", err
		}
		if code != previous {
			break
		}
	}
	return code, nil
}

// Slot is the single live code for one identity in one flow.
type Slot struct {
	Code     string
	IssuedAt time.Time
	Attempts int
}

// Policy carries the per-flow windows and the optional attempt cap.
type Policy struct {
	Windows        map[Flow]time.Duration
	ResendCooldown time.Duration
	// MaxAttempts caps incorrect submissions per issued code; 0 disables the cap.
	MaxAttempts int
}

func DefaultPolicy() Policy {
	return Policy{
		Windows: map[Flow]time.Duration{
			FlowSignup:        DefaultWindow,
			FlowLogin:         DefaultWindow,
			FlowPasswordReset: DefaultWindow,
		},
		ResendCooldown: DefaultResendCooldown,
	}
}

func (p Policy) Window(flow Flow) time.Duration {
	if w, ok := p.Windows[flow]; ok && w > 0 {
		return w
	}
	return DefaultWindow
}

// Check validates a submitted code against the slot. Expiry is decided first
// and wins even when the code matches.
func (p Policy) Check(flow Flow, slot Slot, submitted string, now time.Time) error {
	if now.Sub(slot.IssuedAt) >= p.Window(flow) {
		return ErrExpired
	}
	if p.MaxAttempts > 0 && slot.Attempts >= p.MaxAttempts {
		return ErrAttemptsExceeded
	}
	if submitted != slot.Code {
		return ErrIncorrect
	}
	return nil
}

// CanResend reports whether the cooldown since the last issuance has elapsed.
func (p Policy) CanResend(slot Slot, now time.Time) bool {
	return now.Sub(slot.IssuedAt) > p.ResendCooldown
}

// Message renders the human readable text delivered over SMS or email.
func Message(code string, window time.Duration) string {
	return fmt.Sprintf("verification code is: %s\nthis code will valid for only %d secs", code, int(window.Seconds()))
}
