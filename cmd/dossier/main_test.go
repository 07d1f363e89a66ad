package main

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestExitCode(t *testing.T) {
	live := context.Background()
	stopped, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name string
		ctx  context.Context
		err  error
		want int
	}{
		{"success", live, nil, 0},
		{"command error", live, errors.New("no remote sections to assemble"), 1},
		{"interrupted", stopped, fmt.Errorf("failed to fetch: %w", context.Canceled), 130},
		{"error after interrupt", stopped, errors.New("bad manifest"), 1},
		{"success after interrupt", stopped, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.ctx, tt.err); got != tt.want {
				t.Errorf("exitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
