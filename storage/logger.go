// Copyright 2025 Blink Labs Software
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

package storage

import (
	"fmt"
	"log/slog"
	"strings"
)

// BadgerLogger routes badger's internal log output to slog
type BadgerLogger struct {
	logger *slog.Logger
}

func NewBadgerLogger(logger *slog.Logger) *BadgerLogger {
	return &BadgerLogger{logger: logger}
}

func (b *BadgerLogger) Errorf(msg string, args ...any) {
	b.logger.Error(b.format(msg, args...), "component", "storage")
}

func (b *BadgerLogger) Warningf(msg string, args ...any) {
	b.logger.Warn(b.format(msg, args...), "component", "storage")
}

func (b *BadgerLogger) Infof(msg string, args ...any) {
	b.logger.Info(b.format(msg, args...), "component", "storage")
}

func (b *BadgerLogger) Debugf(msg string, args ...any) {
	b.logger.Debug(b.format(msg, args...), "component", "storage")
}

// badger messages carry a trailing newline
func (b *BadgerLogger) format(msg string, args ...any) string {
	return strings.TrimSpace(fmt.Sprintf(msg, args...))
}
