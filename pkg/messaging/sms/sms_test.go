package sms

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/egov-portal/portal-backend/pkg/messaging/types"
)

func TestSendOTPSMSSimulated(t *testing.T) {
	SmsGatewayConfig = nil
	if err := SendOTPSMS("+3112345678", "123456"); err != nil {
		t.Errorf("unexpected error in simulated mode: %v", err)
	}
}

func TestSendOTPSMSGateway(t *testing.T) {
	var received SMSSendingReq
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("cannot decode gateway payload: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(`{"errorCode": 0}`)); err != nil {
			t.Error(err)
		}
	}))
	defer server.Close()

	SmsGatewayConfig = &types.SMSGatewayConfig{URL: server.URL, From: "Portal", APIKey: "test-key"}
	defer func() { SmsGatewayConfig = nil }()

	if err := SendOTPSMS("+3112345678", "123456"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msgs := received.Messages.Msg
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if msgs[0].To[0].Number != "+3112345678" {
		t.Errorf("unexpected recipient: %s", msgs[0].To[0].Number)
	}
	if !strings.Contains(msgs[0].Body.Content, "123456") {
		t.Errorf("expected code in message body, got %s", msgs[0].Body.Content)
	}
	if received.Messages.Authentication.Producttoken != "test-key" {
		t.Error("expected api key in gateway payload")
	}
}

func TestSendOTPSMSGatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"errorCode": 101}`))
	}))
	defer server.Close()

	SmsGatewayConfig = &types.SMSGatewayConfig{URL: server.URL, From: "Portal"}
	defer func() { SmsGatewayConfig = nil }()

	if err := SendOTPSMS("+3112345678", "123456"); err == nil {
		t.Error("expected error for non-zero gateway error code")
	}
}
