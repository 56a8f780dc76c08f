package main

import (
	"log"

	"github.com/kilianp07/peakguard/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatalf("peakguard: %v", err)
	}
}
