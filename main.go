package main

import (
	"log"
	"os"
	"os/exec"
)

func main() {
	// Convenience launcher for the ingestion service in cmd/server.
	// Flags pass through, so `go run . -db events.db` works.
	args := append([]string{"run", "./cmd/server"}, os.Args[1:]...)
	cmd := exec.Command("go", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		log.Fatalf("Failed to run event stream service: %v", err)
	}
}
