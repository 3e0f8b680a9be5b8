package twilio

import (
	"fmt"
	"strings"

	twilio "github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Client wraps the Twilio messaging operations the bot needs.
type Client struct {
	client  *twilio.RestClient
	fromNum string
}

// New creates a Twilio client bound to the configured sender number.
func New(accountSID, authToken, fromNum string) *Client {
	return &Client{
		client:  twilio.NewRestClientWithParams(twilio.ClientParams{Username: accountSID, Password: authToken}),
		fromNum: fromNum,
	}
}

// SendSMS sends a text message to an MSISDN via Twilio's API. Provider-level
// failures reported inside an otherwise successful response surface as
// errors too.
func (c *Client) SendSMS(to, body string) error {
	if c.client == nil {
		return fmt.Errorf("twilio client not initialised")
	}

	sender := strings.TrimSpace(c.fromNum)
	if sender == "" {
		return fmt.Errorf("twilio sender number is not configured")
	}

	recipient := strings.TrimSpace(to)
	if recipient == "" {
		return fmt.Errorf("recipient number missing")
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(recipient)
	params.SetFrom(sender)
	params.SetBody(body)

	resp, err := c.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio send message error: %w", err)
	}
	if resp.ErrorMessage != nil && *resp.ErrorMessage != "" {
		return fmt.Errorf("twilio rejected message: %s", *resp.ErrorMessage)
	}
	return nil
}
