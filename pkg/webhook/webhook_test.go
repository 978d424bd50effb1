/*
Copyright 2022 Amazon.com, Inc. or its affiliates. All rights reserved.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package webhook_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/eks-node-drainer/pkg/logging"
	h "github.com/aws/eks-node-drainer/pkg/test"
	"github.com/aws/eks-node-drainer/pkg/webhook"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	testHeaders  = `{"Content-type":"application/json"}`
	testTemplate = `{"text":"Drained node {{ .NodeName }} ({{ .InstanceID }}) in {{ .ClusterName }}: evictedAll={{ .EvictedAll }}, stragglers={{ .StragglerCount }}"}`
)

func discardContext() context.Context {
	logger := zap.New(zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(io.Discard),
		zap.NewAtomicLevelAt(zap.DebugLevel),
	))
	return logging.WithLogger(context.Background(), logger.Sugar())
}

func testNotification() webhook.Notification {
	return webhook.Notification{
		NodeName:             "ip-10-0-1-5.ec2.internal",
		InstanceID:           "i-0633ac2b0d9769723",
		ClusterName:          "prod-cluster",
		AutoScalingGroupName: "eks-workers",
		EvictedAll:           true,
	}
}

func TestSend(t *testing.T) {
	var gotRequest *http.Request
	var gotBody []byte

	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		gotRequest = req
		gotBody, _ = io.ReadAll(req.Body)
		rw.Write([]byte(`OK`))
	}))
	defer server.Close()

	headers, err := webhook.ParseHeaders(testHeaders)
	h.Ok(t, err)

	client, err := webhook.ClientBuilder(webhook.NewHttpClientDo).
		NewClient(server.URL, "", testTemplate, headers)
	h.Ok(t, err)

	h.Ok(t, client.NewRequest(testNotification()).Send(discardContext()))

	h.Assert(t, gotRequest != nil, "no request received by the webhook server")
	h.Equals(t, http.MethodPost, gotRequest.Method)
	h.Equals(t, "application/json", gotRequest.Header.Get("Content-type"))

	body := map[string]interface{}{}
	h.Ok(t, json.Unmarshal(gotBody, &body))
	h.Equals(t,
		"Drained node ip-10-0-1-5.ec2.internal (i-0633ac2b0d9769723) in prod-cluster: evictedAll=true, stragglers=0",
		body["text"])
}

func TestSendDisabled(t *testing.T) {
	requestCount := 0
	sendFunc := func(*http.Request) (*http.Response, error) {
		requestCount++
		return nil, nil
	}

	client, err := webhook.ClientBuilder(func(webhook.ProxyFunc) webhook.HttpSendFunc { return sendFunc }).
		NewClient("", "", testTemplate, nil)
	h.Ok(t, err)

	h.Ok(t, client.NewRequest(testNotification()).Send(discardContext()))
	h.Equals(t, 0, requestCount)
}

type closeRecordingBody struct {
	io.Reader
	closed bool
}

func (b *closeRecordingBody) Close() error {
	b.closed = true
	return nil
}

func TestSendClosesResponseBody(t *testing.T) {
	body := &closeRecordingBody{Reader: strings.NewReader("OK")}
	sendFunc := func(*http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusOK, Body: body}, nil
	}

	client, err := webhook.ClientBuilder(func(webhook.ProxyFunc) webhook.HttpSendFunc { return sendFunc }).
		NewClient("http://webhook.example.com", "", testTemplate, nil)
	h.Ok(t, err)

	h.Ok(t, client.NewRequest(testNotification()).Send(discardContext()))
	h.Assert(t, body.closed, "response body was not closed")
}

func TestSendNonSuccessfulStatusCode(t *testing.T) {
	body := &closeRecordingBody{Reader: strings.NewReader("boom")}
	sendFunc := func(*http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusInternalServerError, Body: body}, nil
	}

	client, err := webhook.ClientBuilder(func(webhook.ProxyFunc) webhook.HttpSendFunc { return sendFunc }).
		NewClient("http://webhook.example.com", "", testTemplate, nil)
	h.Ok(t, err)

	h.Nok(t, client.NewRequest(testNotification()).Send(discardContext()))
	h.Assert(t, body.closed, "response body was not closed")
}

func TestSendFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusInternalServerError)
	}))
	server.Close()

	client, err := webhook.ClientBuilder(webhook.NewHttpClientDo).
		NewClient(server.URL, "", testTemplate, nil)
	h.Ok(t, err)

	h.Nok(t, client.NewRequest(testNotification()).Send(discardContext()))
}

func TestNewClientSprigFunctions(t *testing.T) {
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		gotBody, _ = io.ReadAll(req.Body)
		rw.Write([]byte(`OK`))
	}))
	defer server.Close()

	client, err := webhook.ClientBuilder(webhook.NewHttpClientDo).
		NewClient(server.URL, "", `{{ .NodeName | upper }}`, nil)
	h.Ok(t, err)

	h.Ok(t, client.NewRequest(testNotification()).Send(discardContext()))
	h.Equals(t, "IP-10-0-1-5.EC2.INTERNAL", string(gotBody))
}

func TestNewClientBadTemplate(t *testing.T) {
	_, err := webhook.ClientBuilder(webhook.NewHttpClientDo).
		NewClient("http://localhost", "", `{{ .NodeName `, nil)
	h.Nok(t, err)
}

func TestNewClientBadProxyURL(t *testing.T) {
	_, err := webhook.ClientBuilder(webhook.NewHttpClientDo).
		NewClient("http://localhost", "://bad-proxy", testTemplate, nil)
	h.Nok(t, err)
}

func TestParseHeadersBadJSON(t *testing.T) {
	_, err := webhook.ParseHeaders(`{"Content-type"`)
	h.Nok(t, err)
}
