package main

import (
	"fmt"
	"io"

	"github.com/danmuck/blefrag/internal/catalog"
	"github.com/danmuck/blefrag/internal/gatt"
	"github.com/danmuck/blefrag/internal/protocol/frame"
	"github.com/rs/zerolog"
)

const (
	simulatedReads   = 3
	simulatedMessage = "hello from client"
)

// runSimulation drives the host the way a central would: a few reads of
// the status characteristic, then one full write of a client message.
func runSimulation(host *gatt.Host, logger zerolog.Logger, w io.Writer) error {
	charID := catalog.StatusCharUUID
	for i := 0; i < simulatedReads; i++ {
		block, err := host.OnRead(charID)
		if err != nil {
			return fmt.Errorf("read %d: %w", i+1, err)
		}
		fmt.Fprintf(w, "[READ] char=%s frame=% X\n", charID, block)
	}

	blocks, err := frame.EncodeBytes([]byte(simulatedMessage))
	if err != nil {
		return err
	}
	for _, block := range blocks {
		payload, done, err := host.OnWrite(charID, block)
		if err != nil {
			return fmt.Errorf("write: %w", err)
		}
		if done {
			fmt.Fprintf(w, "[WRITE] char=%s assembled=%q\n", charID, payload)
		}
	}
	logger.Debug().Int("reads", simulatedReads).Int("writes", len(blocks)).Msg("simulation done")
	return nil
}
