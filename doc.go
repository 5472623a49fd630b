/*
Package qflip compares a classical coin flip with a quantum one.

A run flips a pseudo-random coin N times, then executes a one-qubit circuit
(Hadamard followed by a measurement) N times on an execution gateway, which is
either a local statevector simulator or a remote IBM Quantum device. Both
histograms are normalized to integer counts, rendered as bar charts, scored
for fairness and optionally persisted.

# Architecture

The root package holds the Experiment driver. Everything it talks to is a port
declared in pkg/ports:

  - ExecutionGateway runs a circuit and returns a probability distribution.
  - Renderer turns counts into an image.
  - RunStore persists finished runs.
  - CredentialProvider supplies the API token for remote devices.

Adapters live under pkg/adapters (simulator, ibm, plot, memory, file, redis,
credentials, http, mcp).

# Usage

	gw := simulator.New(simulator.WithSeed(7))
	exp := qflip.New(gw,
		qflip.WithOutputDir("results"),
		qflip.WithSeed(7),
	)
	run, err := exp.Run(ctx, 1000)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(run.Classical, run.Quantum)

Truncation is the default normalization, so quantum counts may sum to less
than the shot count. Use WithRounding(normalize.PolicyLargestRemainder) to
hand the lost shots back.
*/
package qflip
