package sms

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

type SMSTo struct {
	Number string `json:"number"`
}

type SMSBody struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

type SingleSMS struct {
	AllowedChannels []string `json:"allowedChannels"`
	From            string   `json:"from"`
	To              []SMSTo  `json:"to"`
	Body            SMSBody  `json:"body"`
}

type SMSAuth struct {
	Producttoken string `json:"producttoken"`
}

type SMSSendingReq struct {
	Messages struct {
		Authentication SMSAuth     `json:"authentication"`
		Msg            []SingleSMS `json:"msg"`
	} `json:"messages"`
}

func runSMSsending(to string, message string, from string) error {
	if SmsGatewayConfig == nil || SmsGatewayConfig.URL == "" {
		return errors.New("connection to sms gateway not initialized")
	}

	payload := SMSSendingReq{
		Messages: struct {
			Authentication SMSAuth     `json:"authentication"`
			Msg            []SingleSMS `json:"msg"`
		}{
			Authentication: SMSAuth{
				Producttoken: SmsGatewayConfig.APIKey,
			},
			Msg: []SingleSMS{
				{
					AllowedChannels: []string{"SMS"},
					From:            from,
					To: []SMSTo{
						{
							Number: to,
						},
					},
					Body: SMSBody{
						Type:    "auto",
						Content: message,
					},
				},
			},
		},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	resp, err := http.Post(SmsGatewayConfig.URL, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Error("sms gateway returned error", slog.String("status", resp.Status))
		return errors.New("sms gateway returned error")
	}

	var res map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		slog.Error("error decoding sms gateway response", slog.String("error", err.Error()))
		return err
	}

	errorCode, ok := res["errorCode"]
	if !ok {
		return errors.New("no error code in sms gateway response")
	}
	errorCodeNum, ok := errorCode.(float64)
	if !ok {
		return errors.New("sms gateway error code is not a number")
	}
	if errorCodeNum != 0 {
		slog.Error("sms gateway returned error", slog.Int("errorCode", int(errorCodeNum)))
		return errors.New("sms gateway returned error")
	}

	return nil
}
