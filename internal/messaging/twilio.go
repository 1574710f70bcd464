package messaging

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// ValidateTwilioSignature validates that a request came from Twilio
func ValidateTwilioSignature(r *http.Request, authToken, webhookURL string) bool {
	signature := r.Header.Get("X-Twilio-Signature")
	if signature == "" {
		return false
	}
	if err := r.ParseForm(); err != nil {
		return false
	}
	expected := computeSignature(buildSignaturePayload(webhookURL, r.PostForm), authToken)
	return hmac.Equal([]byte(signature), []byte(expected))
}

// buildSignaturePayload is the URL followed by every sorted key and its values.
func buildSignaturePayload(url string, params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var payload strings.Builder
	payload.WriteString(url)
	for _, key := range keys {
		for _, value := range params[key] {
			payload.WriteString(key)
			payload.WriteString(value)
		}
	}
	return payload.String()
}

func computeSignature(data, key string) string {
	h := hmac.New(sha1.New, []byte(key))
	h.Write([]byte(data))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// TwilioWebhookRequest is an inbound SMS or voice callback.
type TwilioWebhookRequest struct {
	MessageSid   string
	CallSid      string
	AccountSid   string
	From         string
	To           string
	Body         string
	SpeechResult string
}

// ParseTwilioWebhook parses a Twilio webhook request
func ParseTwilioWebhook(r *http.Request) (*TwilioWebhookRequest, error) {
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("failed to parse form: %w", err)
	}
	return &TwilioWebhookRequest{
		MessageSid:   r.FormValue("MessageSid"),
		CallSid:      r.FormValue("CallSid"),
		AccountSid:   r.FormValue("AccountSid"),
		From:         strings.TrimSpace(r.FormValue("From")),
		To:           strings.TrimSpace(r.FormValue("To")),
		Body:         r.FormValue("Body"),
		SpeechResult: strings.TrimSpace(r.FormValue("SpeechResult")),
	}, nil
}

const voiceName = "Polly.Joanna"

type twimlResponse struct {
	XMLName xml.Name     `xml:"Response"`
	Message string       `xml:"Message,omitempty"`
	Say     *twimlSay    `xml:"Say,omitempty"`
	Gather  *twimlGather `xml:"Gather,omitempty"`
}

type twimlSay struct {
	Voice string `xml:"voice,attr,omitempty"`
	Text  string `xml:",chardata"`
}

type twimlGather struct {
	Input         string `xml:"input,attr"`
	Action        string `xml:"action,attr"`
	Method        string `xml:"method,attr"`
	SpeechTimeout string `xml:"speechTimeout,attr"`
}

// MessageTwiML wraps an SMS reply.
func MessageTwiML(text string) ([]byte, error) {
	return renderTwiML(twimlResponse{Message: text})
}

// SayAndGatherTwiML speaks text and listens for the caller's next utterance.
func SayAndGatherTwiML(text, action string) ([]byte, error) {
	return renderTwiML(twimlResponse{
		Say:    &twimlSay{Voice: voiceName, Text: text},
		Gather: &twimlGather{Input: "speech", Action: action, Method: http.MethodPost, SpeechTimeout: "auto"},
	})
}

func renderTwiML(resp twimlResponse) ([]byte, error) {
	body, err := xml.Marshal(resp)
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}
