// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor provides the readiness-based demultiplexer: epoll on
// Linux, unsupported elsewhere (see proactor for the completion-based
// path that every other platform uses instead).
package reactor
