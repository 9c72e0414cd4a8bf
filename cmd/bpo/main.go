// main is the entry point for the bpo CLI.
package main

import (
	"github.com/LaStefan/bpmn-process-optimization/cmd"
	"github.com/LaStefan/bpmn-process-optimization/internal/contract"
	"github.com/LaStefan/bpmn-process-optimization/internal/simstore"
)

func main() {
	// Wire the global run store manager into the command layer. Commands
	// that never touch persistence leave it dormant.
	cmd.SetStoreManager(simstore.Manager)

	err := cmd.Execute()

	simstore.CloseStores()
	if profErr := cmd.StopProfiling(); profErr != nil {
		contract.LogWarn("Failed to stop profiling", profErr)
	}

	if err != nil {
		contract.LogFatal("Command failed", err)
	}
}
