/*
 * Copyright 2024-2025 Raamsri Kumar <raam@tinkershack.in>
 * Copyright 2024-2025 The StrataSTOR Authors and Contributors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package lifecycle turns a SIGINT/SIGTERM into a context cancellation
// plus a run of registered shutdown hooks. The sanitize command uses it
// only while the confirmation prompt is waiting; once erasure commands
// are running, signals are not handled here.
package lifecycle

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

var shutdownHooks []func()

// RegisterShutdownHook queues a cleanup func to run once, in registration
// order, when a shutdown signal is received.
func RegisterShutdownHook(hook func()) {
	shutdownHooks = append(shutdownHooks, hook)
}

// HandleSignals cancels cancel on SIGINT/SIGTERM and runs the registered
// shutdown hooks. It returns when ctx is done or a signal is handled,
// whichever comes first.
func HandleSignals(ctx context.Context, cancel context.CancelFunc) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(stop)

	select {
	case <-stop:
		cancel()
		for _, hook := range shutdownHooks {
			hook()
		}
	case <-ctx.Done():
	}
}
