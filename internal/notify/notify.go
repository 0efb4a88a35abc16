// Package notify tells candidates about the screening outcome.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"

	"github.com/jonathan/screening-agent/internal/logger"
	"github.com/jonathan/screening-agent/internal/types"
)

// Channel is the delivery medium for a notification.
type Channel string

// Supported channels
const (
	ChannelSMS      Channel = "sms"
	ChannelWhatsApp Channel = "whatsapp"
)

const (
	acceptedMessage = "Congratulations! You have cleared this round. Our team will contact you soon."
	rejectedMessage = "Unfortunately, you were not selected for the next round. We encourage you to apply again in the future!"
)

// StatusMessage returns the candidate-facing copy for a decision.
func StatusMessage(decision types.Decision) string {
	if decision == types.DecisionAccepted {
		return acceptedMessage
	}
	return rejectedMessage
}

// Message is a decision notification for one candidate.
type Message struct {
	Phone         string
	CandidateName string
	Decision      types.Decision
}

// Result reports the delivery attempt. It is returned to API callers as-is.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	SID     string `json:"sid,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Notifier sends decision notifications.
type Notifier interface {
	Notify(ctx context.Context, msg Message) Result
}

// MessageCreator is the subset of the Twilio REST API used here.
type MessageCreator interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

// TwilioConfig holds sender identity and template settings.
type TwilioConfig struct {
	Channel        Channel
	FromNumber     string
	WhatsAppNumber string
	ContentSID     string
}

// TwilioNotifier delivers notifications over SMS or WhatsApp.
type TwilioNotifier struct {
	api MessageCreator
	cfg TwilioConfig
	log *zap.Logger
}

// NewTwilioNotifier builds a notifier backed by the Twilio REST client.
func NewTwilioNotifier(accountSID, authToken string, cfg TwilioConfig, log *zap.Logger) *TwilioNotifier {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return NewTwilioNotifierWithAPI(client.Api, cfg, log)
}

// NewTwilioNotifierWithAPI builds a notifier around an existing message API.
func NewTwilioNotifierWithAPI(api MessageCreator, cfg TwilioConfig, log *zap.Logger) *TwilioNotifier {
	if cfg.Channel == "" {
		cfg.Channel = ChannelWhatsApp
	}
	return &TwilioNotifier{api: api, cfg: cfg, log: logger.Service(log, "notify")}
}

// Notify sends one message. Failures are reported in the Result, never returned as errors.
// The Twilio client does not take a context; ctx is checked before sending.
func (n *TwilioNotifier) Notify(ctx context.Context, msg Message) Result {
	channelName := "SMS"
	if n.cfg.Channel == ChannelWhatsApp {
		channelName = "WhatsApp"
	}

	if err := ctx.Err(); err != nil {
		return n.failed(channelName, err)
	}

	params, err := n.buildParams(msg)
	if err != nil {
		return n.failed(channelName, err)
	}

	resp, err := n.api.CreateMessage(params)
	if err != nil {
		return n.failed(channelName, err)
	}

	sid := ""
	if resp != nil && resp.Sid != nil {
		sid = *resp.Sid
	}
	n.log.Info("notification sent", zap.String("channel", string(n.cfg.Channel)), zap.String("sid", sid))
	return Result{
		Success: true,
		Message: channelName + " notification sent successfully!",
		SID:     sid,
	}
}

func (n *TwilioNotifier) buildParams(msg Message) (*openapi.CreateMessageParams, error) {
	phone := strings.TrimSpace(msg.Phone)
	if phone == "" {
		return nil, fmt.Errorf("no phone number")
	}
	status := StatusMessage(msg.Decision)

	params := &openapi.CreateMessageParams{}
	switch n.cfg.Channel {
	case ChannelWhatsApp:
		params.SetTo("whatsapp:" + phone)
		params.SetFrom("whatsapp:" + n.cfg.WhatsAppNumber)
		if n.cfg.ContentSID != "" {
			vars, err := json.Marshal(map[string]string{"1": msg.CandidateName, "2": status})
			if err != nil {
				return nil, err
			}
			params.SetContentSid(n.cfg.ContentSID)
			params.SetContentVariables(string(vars))
		} else {
			params.SetBody(plainBody(msg.CandidateName, status))
		}
	case ChannelSMS:
		params.SetTo(phone)
		params.SetFrom(n.cfg.FromNumber)
		params.SetBody(plainBody(msg.CandidateName, status))
	default:
		return nil, fmt.Errorf("unknown channel %q", n.cfg.Channel)
	}
	return params, nil
}

func (n *TwilioNotifier) failed(channelName string, err error) Result {
	n.log.Warn("notification failed", zap.String("channel", string(n.cfg.Channel)), zap.Error(err))
	return Result{
		Success: false,
		Message: "Failed to send " + channelName + " notification.",
		Error:   err.Error(),
	}
}

func plainBody(name, status string) string {
	if strings.TrimSpace(name) == "" {
		return status
	}
	return fmt.Sprintf("Hi %s, %s", name, status)
}
