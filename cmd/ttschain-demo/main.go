// Command ttschain-demo is a minimal CLI wiring: it builds a chain from an
// always-on offline fallback and synthesizes whatever text is given on the
// command line, printing which provider served it, whether it succeeded,
// and the audio byte count. It exists to give the root module something
// directly runnable with `go run`.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ttsrelay/ttschain"
	"github.com/ttsrelay/ttschain/internal/offlineprovider"
)

func main() {
	text := "Hello from ttschain."
	if len(os.Args) > 1 {
		text = strings.Join(os.Args[1:], " ")
	}

	clock := ttschain.NewSystemClock()
	registry := ttschain.NewProviderRegistry(clock,
		ttschain.RegistryEntry{
			Provider: offlineprovider.New("offline"),
			Config: ttschain.ProviderConfig{
				Name: "offline", Priority: 1, Enabled: true,
				Breaker: ttschain.BreakerConfig{FailureThreshold: ttschain.DisabledBreakerThreshold},
			},
		},
	)
	orchestrator := ttschain.New(registry, clock, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := orchestrator.Synthesize(ctx, &ttschain.SynthesisRequest{Text: text})
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	fmt.Printf("provider=%s success=%v bytes=%d\n", result.ProviderUsed, result.Success, len(result.Audio.Bytes))
}
