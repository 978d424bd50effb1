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

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aws/eks-node-drainer/pkg/cluster"
	"github.com/aws/eks-node-drainer/pkg/config"
	"github.com/aws/eks-node-drainer/pkg/event"
	"github.com/aws/eks-node-drainer/pkg/handler"
	"github.com/aws/eks-node-drainer/pkg/logging"
	nodename "github.com/aws/eks-node-drainer/pkg/node/name"
	"github.com/aws/eks-node-drainer/pkg/webhook"

	"github.com/aws/aws-lambda-go/lambda"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/autoscaling"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/eks"

	"github.com/go-logr/zapr"
	"k8s.io/klog/v2"
)

// Set by the Lambda runtime; its presence selects Lambda mode.
const lambdaRuntimeAPIKey = "AWS_LAMBDA_RUNTIME_API"

func main() {
	cfg, err := config.ParseCliArgs()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to parse arguments: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(cfg.JsonLogging, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	// client-go logs through klog; route it to the same backend.
	klog.SetLogger(zapr.NewLogger(logger.Desugar()))

	cfg.Print(logger)

	ctx := logging.WithLogger(context.Background(), logger)

	h, err := newHandler(ctx, cfg)
	if err != nil {
		logger.With("error", err).Fatal("failed to initialize")
	}

	if os.Getenv(lambdaRuntimeAPIKey) != "" {
		lambda.StartWithContext(ctx, h.Handle)
		return
	}

	if cfg.EventFile == "" {
		logger.Fatal("no event source: run in Lambda or pass -event-file")
	}

	evt, err := readEventFile(cfg.EventFile)
	if err != nil {
		logger.With("error", err).Fatal("failed to read event file")
	}

	if err := h.Handle(ctx, evt); err != nil {
		logger.With("error", err).Fatal("node drain invocation failed")
	}
}

func newHandler(ctx context.Context, cfg config.Config) (handler.Handler, error) {
	options := []func(*awscfg.LoadOptions) error{}
	if cfg.AWSRegion != "" {
		options = append(options, awscfg.WithRegion(cfg.AWSRegion))
	}

	awsConfig, err := awscfg.LoadDefaultConfig(ctx, options...)
	if err != nil {
		return handler.Handler{}, fmt.Errorf("loading AWS configuration: %w", err)
	}

	webhookClient, err := newWebhookClient(cfg)
	if err != nil {
		return handler.Handler{}, err
	}

	return handler.Handler{
		NodeNameGetter:           nodename.Getter{EC2InstancesDescriber: ec2.NewFromConfig(awsConfig)},
		ClusterConfigGetter:      cluster.Getter{EKSClusterDescriber: eks.NewFromConfig(awsConfig)},
		LifecycleActionCompleter: autoscaling.NewFromConfig(awsConfig),
		Webhook:                  webhookClient,
		Config:                   cfg,
	}, nil
}

func newWebhookClient(cfg config.Config) (webhook.Client, error) {
	headers, err := webhook.ParseHeaders(cfg.WebhookHeaders)
	if err != nil {
		return webhook.Client{}, err
	}

	template := cfg.WebhookTemplate
	if cfg.WebhookTemplateFile != "" {
		content, err := os.ReadFile(cfg.WebhookTemplateFile)
		if err != nil {
			return webhook.Client{}, fmt.Errorf("reading webhook template file: %w", err)
		}
		template = string(content)
	}

	return webhook.ClientBuilder(webhook.NewHttpClientDo).
		NewClient(cfg.WebhookURL, cfg.WebhookProxy, template, headers)
}

func readEventFile(path string) (event.AWSEvent, error) {
	evt := event.AWSEvent{}

	content, err := os.ReadFile(path)
	if err != nil {
		return evt, err
	}
	if err := json.Unmarshal(content, &evt); err != nil {
		return evt, fmt.Errorf("parsing event file %s: %w", path, err)
	}
	return evt, nil
}
