package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/danmuck/blefrag/internal/catalog"
	"github.com/danmuck/blefrag/internal/gatt"
	"github.com/danmuck/blefrag/internal/testutil/testlog"
)

func TestRunSimulation(t *testing.T) {
	testlog.Start(t)
	logger := testlog.Logger(t)
	host := gatt.NewHost(gatt.DefaultHostConfig(), catalog.New(), gatt.WithLogger(logger))

	var out bytes.Buffer
	if err := runSimulation(host, logger, &out); err != nil {
		t.Fatalf("simulation: %v", err)
	}
	text := out.String()
	if got := strings.Count(text, "[READ]"); got != simulatedReads {
		t.Fatalf("expected %d reads, got %d:\n%s", simulatedReads, got, text)
	}
	if !strings.Contains(text, `assembled="hello from client"`) {
		t.Fatalf("missing assembled payload:\n%s", text)
	}
	if !strings.Contains(text, "AA ") {
		t.Fatalf("frames should start with the marker:\n%s", text)
	}
	if host.Store().Len() != 0 {
		t.Fatalf("simulation left %d streams resident", host.Store().Len())
	}
}
