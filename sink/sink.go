// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package sink delivers publication payloads to downstream consumers.
//
// Delivery is best effort: the orchestrator logs sink failures and never
// changes a run's status because of one. No sink offers exactly-once
// delivery; consumers key on the payload's run id.
package sink

import (
	"encoding/json"
	"errors"
	"fmt"
	"path"

	"github.com/poiesic/newsdigest/pipeline"
)

// ErrNilPayload is returned when asked to deliver a nil payload.
var ErrNilPayload = errors.New("payload is nil")

// Compile-time checks that every sink satisfies pipeline.Sink.
var (
	_ pipeline.Sink = (*FileSink)(nil)
	_ pipeline.Sink = (*S3Sink)(nil)
	_ pipeline.Sink = (*KafkaSink)(nil)
)

// Encode renders a payload as indented JSON.
func Encode(payload *pipeline.Payload) ([]byte, error) {
	if payload == nil {
		return nil, ErrNilPayload
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding payload: %w", err)
	}
	return data, nil
}

// ObjectKey is the object name for a run's payload under prefix.
func ObjectKey(prefix, runID string) string {
	return path.Join(prefix, runID+".json")
}
