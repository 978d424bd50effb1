// Copyright 2016-2017 Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"). You may
// not use this file except in compliance with the License. A copy of the
// License is located at
//
//     http://aws.amazon.com/apache2.0/
//
// or in the "license" file accompanying this file. This file is distributed
// on an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either
// express or implied. See the License for the specific language governing
// permissions and limitations under the License.

package config_test

import (
	"flag"
	"os"
	"strings"
	"testing"

	"github.com/aws/eks-node-drainer/pkg/config"
	h "github.com/aws/eks-node-drainer/pkg/test"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var envForTest = map[string]string{}

func resetFlagsForTest() {
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	os.Args = []string{"cmd"}
	for key := range envForTest {
		os.Unsetenv(key)
	}
}

func setEnvForTest(key string, val string) {
	os.Setenv(key, val)
	envForTest[key] = val
}

func TestParseCliArgsDefaults(t *testing.T) {
	resetFlagsForTest()

	drainerConfig, err := config.ParseCliArgs()
	h.Ok(t, err)

	h.Equals(t, false, drainerConfig.DryRun)
	h.Equals(t, "", drainerConfig.EventFile)
	h.Equals(t, "", drainerConfig.KubeconfigPath)
	h.Equals(t, 750, drainerConfig.PodEvictionGracePeriod)
	h.Equals(t, 5, drainerConfig.PollInterval)
	h.Equals(t, 180, drainerConfig.DrainDeadline)
	h.Equals(t, 30, drainerConfig.PostDeadlineWait)
	h.Equals(t, "", drainerConfig.WebhookURL)
	h.Equals(t, `{"Content-type":"application/json"}`, drainerConfig.WebhookHeaders)
	h.Equals(t, true, drainerConfig.JsonLogging)
	h.Equals(t, "INFO", drainerConfig.LogLevel)
}

func TestParseCliArgsEnvSuccess(t *testing.T) {
	resetFlagsForTest()
	setEnvForTest("DRY_RUN", "true")
	setEnvForTest("EVENT_FILE", "EVENT_FILE")
	setEnvForTest("KUBECONFIG_PATH", "KUBECONFIG_PATH")
	setEnvForTest("POD_EVICTION_GRACE_PERIOD", "12345")
	setEnvForTest("POLL_INTERVAL", "7")
	setEnvForTest("DRAIN_DEADLINE", "240")
	setEnvForTest("POST_DEADLINE_WAIT", "45")
	setEnvForTest("WEBHOOK_URL", "WEBHOOK_URL")
	setEnvForTest("WEBHOOK_HEADERS", "WEBHOOK_HEADERS")
	setEnvForTest("WEBHOOK_TEMPLATE", "WEBHOOK_TEMPLATE")
	setEnvForTest("JSON_LOGGING", "false")
	setEnvForTest("LOG_LEVEL", "DEBUG")
	setEnvForTest("AWS_REGION", "us-east-1")

	drainerConfig, err := config.ParseCliArgs()
	h.Ok(t, err)

	// Assert all the values were set
	h.Equals(t, true, drainerConfig.DryRun)
	h.Equals(t, "EVENT_FILE", drainerConfig.EventFile)
	h.Equals(t, "KUBECONFIG_PATH", drainerConfig.KubeconfigPath)
	h.Equals(t, 12345, drainerConfig.PodEvictionGracePeriod)
	h.Equals(t, 7, drainerConfig.PollInterval)
	h.Equals(t, 240, drainerConfig.DrainDeadline)
	h.Equals(t, 45, drainerConfig.PostDeadlineWait)
	h.Equals(t, "WEBHOOK_URL", drainerConfig.WebhookURL)
	h.Equals(t, "WEBHOOK_HEADERS", drainerConfig.WebhookHeaders)
	h.Equals(t, "WEBHOOK_TEMPLATE", drainerConfig.WebhookTemplate)
	h.Equals(t, false, drainerConfig.JsonLogging)
	h.Equals(t, "DEBUG", drainerConfig.LogLevel)
	h.Equals(t, "us-east-1", drainerConfig.AWSRegion)
}

func TestParseCliArgsSuccess(t *testing.T) {
	resetFlagsForTest()
	os.Args = []string{
		"cmd",
		"--dry-run=true",
		"--event-file=EVENT_FILE",
		"--kubeconfig-path=KUBECONFIG_PATH",
		"--pod-eviction-grace-period=12345",
		"--poll-interval=7",
		"--drain-deadline=240",
		"--post-deadline-wait=45",
		"--webhook-url=WEBHOOK_URL",
		"--webhook-headers=WEBHOOK_HEADERS",
		"--webhook-template=WEBHOOK_TEMPLATE",
		"--json-logging=false",
		"--log-level=DEBUG",
		"--aws-region=us-east-1",
	}

	drainerConfig, err := config.ParseCliArgs()
	h.Ok(t, err)

	// Assert all the values were set
	h.Equals(t, true, drainerConfig.DryRun)
	h.Equals(t, "EVENT_FILE", drainerConfig.EventFile)
	h.Equals(t, "KUBECONFIG_PATH", drainerConfig.KubeconfigPath)
	h.Equals(t, 12345, drainerConfig.PodEvictionGracePeriod)
	h.Equals(t, 7, drainerConfig.PollInterval)
	h.Equals(t, 240, drainerConfig.DrainDeadline)
	h.Equals(t, 45, drainerConfig.PostDeadlineWait)
	h.Equals(t, "WEBHOOK_URL", drainerConfig.WebhookURL)
	h.Equals(t, "WEBHOOK_HEADERS", drainerConfig.WebhookHeaders)
	h.Equals(t, "WEBHOOK_TEMPLATE", drainerConfig.WebhookTemplate)
	h.Equals(t, false, drainerConfig.JsonLogging)
	h.Equals(t, "DEBUG", drainerConfig.LogLevel)
	h.Equals(t, "us-east-1", drainerConfig.AWSRegion)
}

func TestParseCliArgsOverrides(t *testing.T) {
	resetFlagsForTest()
	setEnvForTest("DRY_RUN", "false")
	setEnvForTest("POD_EVICTION_GRACE_PERIOD", "99999")
	setEnvForTest("POLL_INTERVAL", "99")
	setEnvForTest("DRAIN_DEADLINE", "99999")
	setEnvForTest("WEBHOOK_URL", "no")
	setEnvForTest("LOG_LEVEL", "ERROR")
	os.Args = []string{
		"cmd",
		"--dry-run=true",
		"--pod-eviction-grace-period=12345",
		"--poll-interval=7",
		"--drain-deadline=240",
		"--webhook-url=WEBHOOK_URL",
		"--log-level=DEBUG",
	}

	drainerConfig, err := config.ParseCliArgs()
	h.Ok(t, err)

	h.Equals(t, true, drainerConfig.DryRun)
	h.Equals(t, 12345, drainerConfig.PodEvictionGracePeriod)
	h.Equals(t, 7, drainerConfig.PollInterval)
	h.Equals(t, 240, drainerConfig.DrainDeadline)
	h.Equals(t, "WEBHOOK_URL", drainerConfig.WebhookURL)
	h.Equals(t, "DEBUG", drainerConfig.LogLevel)
}

func TestParseCliArgsInvalidLogLevelFailure(t *testing.T) {
	resetFlagsForTest()
	setEnvForTest("LOG_LEVEL", "VERBOSE")
	_, err := config.ParseCliArgs()
	h.Assert(t, err != nil, "Failed to return error for an invalid log-level")
}

func TestParseCliArgsCreateFlagsFailure(t *testing.T) {
	resetFlagsForTest()
	setEnvForTest("DRY_RUN", "something not true or false")
	_, err := config.ParseCliArgs()
	h.Assert(t, err != nil, "Failed to return error when creating flags")
}

func TestParseCliArgsNonPositivePollIntervalFailure(t *testing.T) {
	resetFlagsForTest()
	setEnvForTest("POLL_INTERVAL", "0")
	_, err := config.ParseCliArgs()
	h.Assert(t, err != nil, "Failed to return error when poll-interval is not positive")
}

func TestParseCliArgsNegativePostDeadlineWaitFailure(t *testing.T) {
	resetFlagsForTest()
	setEnvForTest("POST_DEADLINE_WAIT", "-1")
	_, err := config.ParseCliArgs()
	h.Assert(t, err != nil, "Failed to return error when post-deadline-wait is negative")
}

func TestPrint_JSON(t *testing.T) {
	resetFlagsForTest()
	setEnvForTest("JSON_LOGGING", "true")
	setEnvForTest("WEBHOOK_URL", "http://hooks.example.com/secret-path")

	drainerConfig, err := config.ParseCliArgs()
	h.Ok(t, err)

	core, logs := observer.New(zapcore.InfoLevel)
	drainerConfig.Print(zap.New(core).Sugar())

	h.Equals(t, 1, logs.Len())
	entry := logs.All()[0]
	h.Equals(t, "eks-node-drainer arguments", entry.Message)

	fields := entry.ContextMap()
	h.Equals(t, int64(750), fields["pod_eviction_grace_period"])
	h.Equals(t, int64(5), fields["poll_interval"])
	_, ok := fields["webhook_url"]
	h.Equals(t, false, ok)
}

func TestPrint_Human(t *testing.T) {
	resetFlagsForTest()
	setEnvForTest("JSON_LOGGING", "false")
	setEnvForTest("WEBHOOK_URL", "http://hooks.example.com/secret-path")

	drainerConfig, err := config.ParseCliArgs()
	h.Ok(t, err)

	core, logs := observer.New(zapcore.InfoLevel)
	drainerConfig.Print(zap.New(core).Sugar())

	h.Equals(t, 1, logs.Len())
	msg := logs.All()[0].Message
	h.Assert(t, strings.Contains(msg, "drain-deadline: 180"), "Should print the drain deadline, got: %s", msg)
	h.Assert(t, strings.Contains(msg, "<provided-not-displayed>"), "Should mask the webhook url, got: %s", msg)
	h.Assert(t, !strings.Contains(msg, "secret-path"), "Should not print the webhook url, got: %s", msg)
}
