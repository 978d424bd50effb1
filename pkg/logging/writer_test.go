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

package logging_test

import (
	"testing"

	"github.com/aws/eks-node-drainer/pkg/logging"
	h "github.com/aws/eks-node-drainer/pkg/test"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWriterRoutesByPrefix(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	w := logging.Writer{SugaredLogger: zap.New(core).Sugar()}

	for _, msg := range []string{"error: node not found", "WARNING: pods remain", "cordoned node"} {
		n, err := w.Write([]byte(msg))
		h.Ok(t, err)
		h.Equals(t, len(msg), n)
	}

	entries := logs.All()
	h.Equals(t, 3, len(entries))
	h.Equals(t, zapcore.ErrorLevel, entries[0].Level)
	h.Equals(t, zapcore.WarnLevel, entries[1].Level)
	h.Equals(t, zapcore.InfoLevel, entries[2].Level)
	h.Equals(t, "cordoned node", entries[2].Message)
}

func TestWriterTrimsTrailingNewline(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	w := logging.Writer{SugaredLogger: zap.New(core).Sugar()}

	line := "node/ip-10-0-1-5.ec2.internal cordoned\n"
	n, err := w.Write([]byte(line))
	h.Ok(t, err)
	h.Equals(t, len(line), n)

	entries := logs.All()
	h.Equals(t, 1, len(entries))
	h.Equals(t, "node/ip-10-0-1-5.ec2.internal cordoned", entries[0].Message)
}

func TestWriterNilLogger(t *testing.T) {
	var w logging.Writer

	n, err := w.Write([]byte("dropped"))
	h.Nok(t, err)
	h.Equals(t, 0, n)
}

func TestNewLogger(t *testing.T) {
	for _, level := range []string{"debug", "info", "error", "INFO"} {
		logger, err := logging.NewLogger(true, level)
		h.Ok(t, err)
		h.Assert(t, logger != nil, "expected a logger for level %q", level)
	}

	_, err := logging.NewLogger(false, "verbose")
	h.Nok(t, err)
}
