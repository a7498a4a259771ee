// Copyright (c) 2026 Keymaster Team
// Edgemaster - edge device ownership console
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import "github.com/toeirei/edgemaster/internal/logging"

func dbLogf(format string, v ...any) {
	logging.Debugf(format, v...)
}

func dbWarnf(format string, v ...any) {
	logging.Warnf(format, v...)
}
