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

package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const (
	dryRunConfigKey                 = "DRY_RUN"
	dryRunDefault                   = false
	eventFileConfigKey              = "EVENT_FILE"
	eventFileDefault                = ""
	kubeconfigPathConfigKey         = "KUBECONFIG_PATH"
	kubeconfigPathDefault           = ""
	podEvictionGracePeriodConfigKey = "POD_EVICTION_GRACE_PERIOD"
	podEvictionGracePeriodDefault   = 750
	pollIntervalConfigKey           = "POLL_INTERVAL"
	pollIntervalDefault             = 5
	drainDeadlineConfigKey          = "DRAIN_DEADLINE"
	drainDeadlineDefault            = 180
	postDeadlineWaitConfigKey       = "POST_DEADLINE_WAIT"
	postDeadlineWaitDefault         = 30
	webhookURLConfigKey             = "WEBHOOK_URL"
	webhookURLDefault               = ""
	webhookProxyConfigKey           = "WEBHOOK_PROXY"
	webhookProxyDefault             = ""
	webhookHeadersConfigKey         = "WEBHOOK_HEADERS"
	webhookHeadersDefault           = `{"Content-type":"application/json"}`
	webhookTemplateConfigKey        = "WEBHOOK_TEMPLATE"
	webhookTemplateFileConfigKey    = "WEBHOOK_TEMPLATE_FILE"
	webhookTemplateDefault          = `{"text":"[EKS Node Drainer] Drained node {{ .NodeName }} (instance {{ .InstanceID }}) in cluster {{ .ClusterName }} - ASG: {{ .AutoScalingGroupName }} - Fully evicted: {{ .EvictedAll }} - Pods remaining: {{ .StragglerCount }}"}`
	jsonLoggingConfigKey            = "JSON_LOGGING"
	jsonLoggingDefault              = true
	logLevelConfigKey               = "LOG_LEVEL"
	logLevelDefault                 = "INFO"
	awsRegionConfigKey              = "AWS_REGION"
	awsRegionDefault                = ""
)

//Config arguments set via CLI, environment variables, or defaults
type Config struct {
	DryRun                 bool
	EventFile              string
	KubeconfigPath         string
	PodEvictionGracePeriod int
	PollInterval           int
	DrainDeadline          int
	PostDeadlineWait       int
	WebhookURL             string
	WebhookHeaders         string
	WebhookTemplate        string
	WebhookTemplateFile    string
	WebhookProxy           string
	JsonLogging            bool
	LogLevel               string
	AWSRegion              string
}

//ParseCliArgs parses cli arguments and uses environment variables as fallback values
func ParseCliArgs() (config Config, err error) {
	defer func() {
		if r := recover(); r != nil {
			switch pval := r.(type) {
			default:
				err = fmt.Errorf("%v", pval)
			}
		}
	}()
	flag.BoolVar(&config.DryRun, "dry-run", getBoolEnv(dryRunConfigKey, dryRunDefault), "If true, only log the pods that would be evicted and the lifecycle action that would be completed")
	flag.StringVar(&config.EventFile, "event-file", getEnv(eventFileConfigKey, eventFileDefault), "If specified, read the lifecycle event from the JSON file instead of waiting for Lambda invocations")
	flag.StringVar(&config.KubeconfigPath, "kubeconfig-path", getEnv(kubeconfigPathConfigKey, kubeconfigPathDefault), "If specified, write the generated kubeconfig to this file path")
	flag.IntVar(&config.PodEvictionGracePeriod, "pod-eviction-grace-period", getIntEnv(podEvictionGracePeriodConfigKey, podEvictionGracePeriodDefault), "Period of time in seconds given to each pod to terminate gracefully. If negative, the default value specified in the pod will be used.")
	flag.IntVar(&config.PollInterval, "poll-interval", getIntEnv(pollIntervalConfigKey, pollIntervalDefault), "Period of time in seconds between checks for pods remaining on the node")
	flag.IntVar(&config.DrainDeadline, "drain-deadline", getIntEnv(drainDeadlineConfigKey, drainDeadlineDefault), "Maximum period of time in seconds to wait for the evicted pods to leave the node")
	flag.IntVar(&config.PostDeadlineWait, "post-deadline-wait", getIntEnv(postDeadlineWaitConfigKey, postDeadlineWaitDefault), "Period of time in seconds to wait before completing the lifecycle action when pods remain past the drain deadline")
	flag.StringVar(&config.WebhookURL, "webhook-url", getEnv(webhookURLConfigKey, webhookURLDefault), "If specified, posts drain results to URL after the node is drained.")
	flag.StringVar(&config.WebhookProxy, "webhook-proxy", getEnv(webhookProxyConfigKey, webhookProxyDefault), "If specified, uses the HTTP(S) proxy to send webhooks. Example: --webhook-proxy='tcp://<ip-or-dns-to-proxy>:<port>'")
	flag.StringVar(&config.WebhookHeaders, "webhook-headers", getEnv(webhookHeadersConfigKey, webhookHeadersDefault), "If specified, replaces the default webhook headers.")
	flag.StringVar(&config.WebhookTemplate, "webhook-template", getEnv(webhookTemplateConfigKey, webhookTemplateDefault), "If specified, replaces the default webhook message template.")
	flag.StringVar(&config.WebhookTemplateFile, "webhook-template-file", getEnv(webhookTemplateFileConfigKey, ""), "If specified, replaces the default webhook message template with content from template file.")
	flag.BoolVar(&config.JsonLogging, "json-logging", getBoolEnv(jsonLoggingConfigKey, jsonLoggingDefault), "If true, use JSON-formatted logs instead of human readable logs.")
	flag.StringVar(&config.LogLevel, "log-level", getEnv(logLevelConfigKey, logLevelDefault), "Sets the log level (INFO, DEBUG, or ERROR)")
	flag.StringVar(&config.AWSRegion, "aws-region", getEnv(awsRegionConfigKey, awsRegionDefault), "If specified, use the AWS region for AWS API calls")

	flag.Parse()

	switch strings.ToLower(config.LogLevel) {
	case "info":
	case "debug":
	case "error":
	default:
		return config, fmt.Errorf("Invalid log-level passed: %s  Should be one of: info, debug, error", config.LogLevel)
	}

	if config.PollInterval <= 0 {
		panic("You must provide a positive poll-interval to the CLI or POLL_INTERVAL environment variable.")
	}
	if config.DrainDeadline <= 0 {
		panic("You must provide a positive drain-deadline to the CLI or DRAIN_DEADLINE environment variable.")
	}
	if config.PostDeadlineWait < 0 {
		panic("You must provide a non-negative post-deadline-wait to the CLI or POST_DEADLINE_WAIT environment variable.")
	}

	return config, err
}

// Print uses the JSON log setting to print either JSON formatted config value logs or human-readable config values
func (c Config) Print(logger *zap.SugaredLogger) {
	if c.JsonLogging {
		c.PrintJsonConfigArgs(logger)
	} else {
		c.PrintHumanConfigArgs(logger)
	}
}

// PrintJsonConfigArgs prints the config values with JSON formatting
func (c Config) PrintJsonConfigArgs(logger *zap.SugaredLogger) {
	// intentionally did not log webhook configuration as there may be secrets
	logger.Infow("eks-node-drainer arguments",
		"dry_run", c.DryRun,
		"event_file", c.EventFile,
		"kubeconfig_path", c.KubeconfigPath,
		"pod_eviction_grace_period", c.PodEvictionGracePeriod,
		"poll_interval", c.PollInterval,
		"drain_deadline", c.DrainDeadline,
		"post_deadline_wait", c.PostDeadlineWait,
		"webhook_proxy", c.WebhookProxy,
		"json_logging", c.JsonLogging,
		"log_level", c.LogLevel,
		"aws_region", c.AWSRegion,
	)
}

// PrintHumanConfigArgs prints config args as a human-readable pretty printed string
func (c Config) PrintHumanConfigArgs(logger *zap.SugaredLogger) {
	webhookURLDisplay := ""
	if c.WebhookURL != "" {
		webhookURLDisplay = "<provided-not-displayed>"
	}
	// intentionally did not log webhook configuration as there may be secrets
	logger.Infof(
		"eks-node-drainer arguments: \n"+
			"\tdry-run: %t,\n"+
			"\tevent-file: %s,\n"+
			"\tkubeconfig-path: %s,\n"+
			"\tpod-eviction-grace-period: %d,\n"+
			"\tpoll-interval: %d,\n"+
			"\tdrain-deadline: %d,\n"+
			"\tpost-deadline-wait: %d,\n"+
			"\twebhook-url: %s,\n"+
			"\twebhook-proxy: %s,\n"+
			"\twebhook-headers: %s,\n"+
			"\twebhook-template: %s,\n"+
			"\tjson-logging: %t,\n"+
			"\tlog-level: %s,\n"+
			"\taws-region: %s,\n",
		c.DryRun,
		c.EventFile,
		c.KubeconfigPath,
		c.PodEvictionGracePeriod,
		c.PollInterval,
		c.DrainDeadline,
		c.PostDeadlineWait,
		webhookURLDisplay,
		c.WebhookProxy,
		"<not-displayed>",
		"<not-displayed>",
		c.JsonLogging,
		c.LogLevel,
		c.AWSRegion,
	)
}

// Get env var or default
func getEnv(key string, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		if value != "" {
			return value
		}
	}
	return fallback
}

// Parse env var to int if key exists
func getIntEnv(key string, fallback int) int {
	envStrValue := getEnv(key, "")
	if envStrValue == "" {
		return fallback
	}
	envIntValue, err := strconv.Atoi(envStrValue)
	if err != nil {
		panic("Env Var " + key + " must be an integer")
	}
	return envIntValue
}

// Parse env var to boolean if key exists
func getBoolEnv(key string, fallback bool) bool {
	envStrValue := getEnv(key, "")
	if envStrValue == "" {
		return fallback
	}
	envBoolValue, err := strconv.ParseBool(envStrValue)
	if err != nil {
		panic("Env Var " + key + " must be either true or false")
	}
	return envBoolValue
}
