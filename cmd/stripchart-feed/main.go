// Command stripchart-feed emits a synthetic CSV data stream suitable for
// piping into stripchart, for demos and for exercising a chart without a
// real data producer.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand"
	"os"
	"os/signal"
	"time"
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `%[1]s: emit synthetic CSV time-series data

Usage:

 %[1]s | stripchart

OR

 %[1]s -output file

`, os.Args[0])
	flag.PrintDefaults()
}

// A generator produces the next value of one synthetic series.
type generator struct {
	name string
	next func(step int) float64
}

func generators(amplitude float64, r *rand.Rand) []generator {
	walk := amplitude / 2
	return []generator{
		{
			name: "sine",
			next: func(step int) float64 {
				return amplitude/2 + amplitude/2*math.Sin(float64(step)/10)
			},
		},
		{
			name: "walk",
			next: func(step int) float64 {
				walk += (r.Float64() - 0.5) * amplitude / 10
				if walk < 0 {
					walk = 0
				}
				if walk > amplitude {
					walk = amplitude
				}
				return walk
			},
		},
		{
			name: "sawtooth",
			next: func(step int) float64 {
				return amplitude * float64(step%25) / 25
			},
		},
	}
}

func main() {
	flag.Usage = usage
	dur := flag.Duration("sample-interval", 100*time.Millisecond, "Interval between emitting new samples")
	amplitude := flag.Float64("amplitude", 100, "Peak value of the generated series")
	outputName := flag.String("output", "-", "Output file for CSV data")
	seed := flag.Int64("seed", time.Now().UnixNano(), "Seed for the random walk series")
	flag.Parse()

	var output io.WriteCloser
	if *outputName == "-" {
		output = os.Stdout
	} else {
		f, err := os.Create(*outputName)
		if err != nil {
			log.Fatalf("failed opening output file %q: %v", *outputName, err)
		}
		output = f
	}

	gens := generators(*amplitude, rand.New(rand.NewSource(*seed)))
	fmt.Fprintf(output, "timestamp_ns")
	for _, g := range gens {
		fmt.Fprintf(output, ", %s", g.name)
	}
	fmt.Fprintln(output)

	ticker := time.NewTicker(*dur)
	defer ticker.Stop()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	step := 0
	for {
		select {
		case <-sigChan:
			if err := output.Close(); err != nil {
				log.Printf("failed closing output: %v", err)
			}
			return
		case t := <-ticker.C:
			fmt.Fprintf(output, "%d", t.UnixNano())
			for _, g := range gens {
				fmt.Fprintf(output, ", %f", g.next(step))
			}
			fmt.Fprintln(output)
			step++
		}
	}
}
