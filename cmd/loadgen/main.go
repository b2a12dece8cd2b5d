package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"slices"
	"time"

	"github.com/samber/lo"

	"council-lab/client"
)

// prompts rotate through the specialist trigger words so a run
// exercises every handler, not just one.
var prompts = []string{
	"Review the code of my react component",
	"Suggest a cleaner design for the settings ui",
	"Write the documentation for the new endpoint",
	"Analyze the performance of the ingestion path",
	"Help me optimize this javascript bundle and its style sheet",
}

func main() {
	addr := flag.String("addr", "http://localhost:8080", "Server base URL")
	messages := flag.Int("messages", 20, "Number of rounds to run")
	flag.Parse()

	ctx := context.Background()
	api := client.New(*addr)

	// 1. Fresh account per run; the suffix avoids collisions.
	email := fmt.Sprintf("loadgen-%d@example.com", time.Now().UnixNano())
	if _, err := api.Register(ctx, email, "LoadGen123!Complex"); err != nil {
		log.Fatalf("register failed: %v", err)
	}

	// 2. One conversation carries the whole run.
	conversation, err := api.CreateConversation(ctx, "loadgen run")
	if err != nil {
		log.Fatalf("create conversation failed: %v", err)
	}

	// 3. Post and time every round.
	latencies := make([]time.Duration, 0, *messages)
	var appended, failures int
	for i := range *messages {
		start := time.Now()
		round, err := api.PostMessage(ctx, conversation.ID, prompts[i%len(prompts)])
		if err != nil {
			log.Fatalf("round %d failed: %v", i+1, err)
		}
		latencies = append(latencies, time.Since(start))
		appended += len(round.Messages)
		failures += len(round.Failed)
	}

	// 4. Local view of the run.
	report(latencies, appended, failures)

	// 5. Server-side counters, for cross-checking.
	stats, err := api.Stats(ctx)
	if err != nil {
		log.Fatalf("stats failed: %v", err)
	}
	fmt.Printf("\nServer counters: started=%d succeeded=%d partial=%d failed=%d appended=%d\n",
		stats.RoundsStarted, stats.RoundsSucceeded, stats.RoundsPartial, stats.RoundsFailed,
		stats.MessagesAppended)
}

func report(latencies []time.Duration, appended, failures int) {
	n := len(latencies)
	if n == 0 {
		fmt.Println("no rounds ran")
		return
	}
	slices.Sort(latencies)
	total := lo.Sum(latencies)

	fmt.Printf("\n--- %d rounds, %d records appended, %d specialist failures ---\n", n, appended, failures)
	fmt.Printf("min    %v\n", latencies[0])
	fmt.Printf("p50    %v\n", latencies[n/2])
	fmt.Printf("p95    %v\n", latencies[n*95/100])
	fmt.Printf("max    %v\n", latencies[n-1])
	fmt.Printf("avg    %v\n", total/time.Duration(n))
}
