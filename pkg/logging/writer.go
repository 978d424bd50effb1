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

package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Writer adapts a SugaredLogger to the io.Writer the kubectl drain helpers
// expect for their progress output.
type Writer struct {
	*zap.SugaredLogger
}

// Write logs buf as a single message, with the trailing newline kubectl
// appends trimmed off. kubectl prefixes its own diagnostics with "WARNING:"
// or "error", so those prefixes (case-insensitive) select the level;
// everything else lands at info.
func (w Writer) Write(buf []byte) (int, error) {
	if w.SugaredLogger == nil {
		return 0, fmt.Errorf("no logger backing this writer")
	}

	msg := strings.TrimRight(string(buf), "\n")
	switch lower := strings.ToLower(msg); {
	case strings.HasPrefix(lower, "error"):
		w.Error(msg)
	case strings.HasPrefix(lower, "warn"):
		w.Warn(msg)
	default:
		w.Info(msg)
	}

	return len(buf), nil
}
