/*
Package dialflow executes call-flow graphs for live voice calls.

A workflow is a directed graph of typed nodes: prompts to speak, answers
to gather, AI conversation steps, branches over collected variables,
outbound API calls and transfers. The engine walks the graph one caller
turn at a time, keeping all mutable state in a per-call session, so a
single process serves many concurrent calls over the same workflow.

The cmd/dialflow server exposes the engine over a websocket relay: one
connection per call, JSON frames in both directions. For embedding in a
different transport, use the Service type directly:

	package main

	import (
		"context"
		"log"

		"github.com/dialflow/dialflow"
		"github.com/dialflow/dialflow/pkg/domain"
	)

	func main() {
		svc := dialflow.New("./workflows")
		defer svc.Close()

		ctx := context.Background()
		setup := domain.SetupEvent{CallID: "CA123", From: "+15550001", To: "+15550002"}

		responses, err := svc.StartCall(ctx, "greeter", setup)
		if err != nil {
			log.Fatal(err)
		}
		for _, r := range responses {
			log.Printf("say: %+v", r)
		}

		// Feed caller utterances as they arrive.
		responses, err = svc.HandleEvent(ctx, "CA123", domain.PromptEvent{Text: "Ada"})
		if err != nil {
			log.Fatal(err)
		}
		for _, r := range responses {
			log.Printf("say: %+v", r)
		}
	}
*/
package dialflow
